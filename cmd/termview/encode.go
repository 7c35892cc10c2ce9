package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/termview/core"
	"pkt.systems/termview/schema"
)

func newEncodeCmd() *cobra.Command {
	var ctrl, alt, shift, meta bool
	cmd := &cobra.Command{
		Use:   "encode <key>",
		Short: "Print the bytes a key chord sends to the child",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := core.EncodeKey(args[0], schema.Modifiers{
				Ctrl:  ctrl,
				Alt:   alt,
				Shift: shift,
				Meta:  meta,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%q  % x\n", seq, []byte(seq))
			return err
		},
	}
	cmd.Flags().BoolVar(&ctrl, "ctrl", false, "hold ctrl")
	cmd.Flags().BoolVar(&alt, "alt", false, "hold alt")
	cmd.Flags().BoolVar(&shift, "shift", false, "hold shift")
	cmd.Flags().BoolVar(&meta, "meta", false, "hold meta")
	return cmd
}

package host

import (
	"errors"
	"io"

	"pkt.systems/pslog"

	"pkt.systems/termview/schema"
)

// InputSession is the slice of a session the input pump drives.
type InputSession interface {
	RequestScroll(unit schema.ScrollUnit, direction schema.ScrollDirection)
	SendKeypress(key string, mod schema.Modifiers) error
}

// PumpInput decodes raw client bytes into keystrokes until the reader
// or the session goes away. Scroll chords turn into viewport requests
// and never reach the child; a rejected keypress is dropped unless the
// session is gone, which ends the pump.
func PumpInput(r io.Reader, sess InputSession, log pslog.Logger) {
	parser := &KeyParser{}
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		for _, ev := range parser.Feed(buf[:n]) {
			if req, ok := ScrollFor(ev); ok {
				sess.RequestScroll(req.Unit, req.Direction)
				continue
			}
			if kerr := sess.SendKeypress(ev.Key, ev.Mod); kerr != nil {
				if errors.Is(kerr, schema.ErrWriteFailed) {
					return
				}
				log.Debug("keypress dropped", "key", ev.Key, "err", kerr)
			}
		}
		if err != nil {
			return
		}
	}
}

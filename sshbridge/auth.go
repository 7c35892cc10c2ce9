package sshbridge

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"
)

// keyring holds the public keys allowed to open sessions. An empty
// keyring accepts any key; the server warns about that at startup.
type keyring struct {
	keys []ssh.PublicKey
}

// loadAuthorizedKeys reads an authorized_keys file. An empty path or a
// missing file yields an empty keyring; a malformed entry is an error.
func loadAuthorizedKeys(path string) (*keyring, error) {
	if strings.TrimSpace(path) == "" {
		return &keyring{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &keyring{}, nil
		}
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}

	ring := &keyring{}
	rest := data
	for len(bytes.TrimSpace(rest)) > 0 {
		key, _, _, next, err := ssh.ParseAuthorizedKey(rest)
		if err != nil {
			return nil, fmt.Errorf("parse authorized keys %s: %w", path, err)
		}
		ring.keys = append(ring.keys, key)
		rest = next
	}
	return ring, nil
}

func (k *keyring) empty() bool { return len(k.keys) == 0 }

func (k *keyring) contains(key gliderssh.PublicKey) bool {
	for _, allowed := range k.keys {
		if gliderssh.KeysEqual(allowed, key) {
			return true
		}
	}
	return false
}

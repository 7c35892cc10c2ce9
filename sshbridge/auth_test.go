package sshbridge

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestLoadAuthorizedKeysEmptyPathAcceptsAny(t *testing.T) {
	ring, err := loadAuthorizedKeys("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ring.empty() {
		t.Fatalf("expected empty keyring for blank path")
	}
}

func TestLoadAuthorizedKeysMissingFileAcceptsAny(t *testing.T) {
	ring, err := loadAuthorizedKeys(filepath.Join(t.TempDir(), "authorized_keys"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ring.empty() {
		t.Fatalf("expected empty keyring for missing file")
	}
}

func TestLoadAuthorizedKeysMatchesListedKeys(t *testing.T) {
	allowed := generateAuthorizedKey(t)
	stranger := generateAuthorizedKey(t)

	path := filepath.Join(t.TempDir(), "authorized_keys")
	line := ssh.MarshalAuthorizedKey(allowed)
	if err := os.WriteFile(path, append(line, '\n'), 0o600); err != nil {
		t.Fatalf("write authorized keys: %v", err)
	}

	ring, err := loadAuthorizedKeys(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ring.empty() {
		t.Fatalf("expected one key in the ring")
	}
	if !ring.contains(allowed) {
		t.Fatalf("expected listed key accepted")
	}
	if ring.contains(stranger) {
		t.Fatalf("expected unlisted key rejected")
	}
}

func TestLoadAuthorizedKeysRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(path, []byte("rubbish entry\n"), 0o600); err != nil {
		t.Fatalf("write authorized keys: %v", err)
	}
	if _, err := loadAuthorizedKeys(path); err == nil {
		t.Fatalf("expected parse error for malformed entry")
	}
}

func generateAuthorizedKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return sshPub
}

package sshbridge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureHostKeyGeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "ssh_host_key")

	first, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected host key file, got %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("expected mode 0600, got %o", mode)
	}

	second, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("reload host key: %v", err)
	}
	a := first.PublicKey().Marshal()
	b := second.PublicKey().Marshal()
	if !bytes.Equal(a, b) {
		t.Fatalf("expected reload to return the generated key")
	}
}

func TestEnsureHostKeyRequiresPath(t *testing.T) {
	if _, err := EnsureHostKey("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestEnsureHostKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh_host_key")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := EnsureHostKey(path); err == nil {
		t.Fatalf("expected parse error for corrupt key file")
	}
}

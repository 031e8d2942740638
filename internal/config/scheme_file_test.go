package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/mu-online/mupacket/crypto"
)

func TestLoadSchemeFileBuildsScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheme.yaml")

	encHex := hex.EncodeToString(make([]byte, crypto.BlobSize))
	content := "client:\n  encrypt: \"" + encHex + "\"\n  decrypt: \"" + encHex + "\"\n" +
		"server:\n  encrypt: \"" + encHex + "\"\n  decrypt: \"" + encHex + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scheme file: %v", err)
	}

	sf, err := LoadSchemeFile(path)
	if err != nil {
		t.Fatalf("LoadSchemeFile: %v", err)
	}

	if _, err := sf.Client.Scheme(); err != nil {
		t.Fatalf("Client.Scheme(): %v", err)
	}
	if _, err := sf.Server.Scheme(); err != nil {
		t.Fatalf("Server.Scheme(): %v", err)
	}
}

func TestKeyScheduleRejectsWrongLength(t *testing.T) {
	ks := KeySchedule{Encrypt: "abcd", Decrypt: hex.EncodeToString(make([]byte, crypto.BlobSize))}
	if _, err := ks.Scheme(); err == nil {
		t.Fatalf("expected error for short encrypt blob")
	}
}

func TestKeyScheduleRejectsNonHex(t *testing.T) {
	ks := KeySchedule{
		Encrypt: "zz",
		Decrypt: hex.EncodeToString(make([]byte, crypto.BlobSize)),
	}
	if _, err := ks.Scheme(); err == nil {
		t.Fatalf("expected error for non-hex encrypt blob")
	}
}

func TestLoadSchemeFileMissingFile(t *testing.T) {
	if _, err := LoadSchemeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

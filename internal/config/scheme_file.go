package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mu-online/mupacket/crypto"
)

// KeySchedule is the hex-encoded form of one direction's 54-byte key
// schedule blob, as it appears in a scheme.yaml sibling file.
type KeySchedule struct {
	Encrypt string `yaml:"encrypt"`
	Decrypt string `yaml:"decrypt"`
}

// SchemeFile is the optional scheme.yaml sibling of a directive
// configuration file: raw key-schedule blobs for both sides of the
// handshake, for deployments that can't use the project's built-in
// crypto.CLIENT / crypto.SERVER schemes.
type SchemeFile struct {
	Client KeySchedule `yaml:"client"`
	Server KeySchedule `yaml:"server"`
}

// LoadSchemeFile reads and parses a scheme.yaml file.
func LoadSchemeFile(path string) (SchemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchemeFile{}, fmt.Errorf("cannot read scheme file %q: %w", path, err)
	}
	var sf SchemeFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return SchemeFile{}, fmt.Errorf("cannot parse scheme file %q: %w", path, err)
	}
	return sf, nil
}

// Scheme decodes ks's hex blobs and builds a crypto.Scheme from them.
func (ks KeySchedule) Scheme() (crypto.Scheme, error) {
	enc, err := decodeBlob(ks.Encrypt)
	if err != nil {
		return crypto.Scheme{}, fmt.Errorf("invalid encrypt blob: %w", err)
	}
	dec, err := decodeBlob(ks.Decrypt)
	if err != nil {
		return crypto.Scheme{}, fmt.Errorf("invalid decrypt blob: %w", err)
	}
	return crypto.LoadScheme(enc, dec), nil
}

func decodeBlob(raw string) ([crypto.BlobSize]byte, error) {
	var blob [crypto.BlobSize]byte
	b, err := hex.DecodeString(raw)
	if err != nil {
		return blob, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != crypto.BlobSize {
		return blob, fmt.Errorf("expected %d bytes, got %d", crypto.BlobSize, len(b))
	}
	copy(blob[:], b)
	return blob, nil
}

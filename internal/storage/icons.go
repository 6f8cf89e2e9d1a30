package storage

import (
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
)

// IconSignature identifies a custom icon by the BLAKE2b-256 digest of its
// image file, so the same picture registered twice maps to one icon.
func IconSignature(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read icon %s: %w", path, err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

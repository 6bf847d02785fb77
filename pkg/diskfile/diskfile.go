// Package diskfile holds the on-disk primitives shared by the file-backed
// stores: hashed, filesystem-safe names and atomic replacement.
package diskfile

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// TempPrefix starts the name of every temporary file WriteAtomic creates.
// Stores remove leftovers with this prefix when they scan their directory.
const TempPrefix = ".tmp-"

// HashKey returns the first 16 hex characters of the SHA-256 of key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// WriteAtomic writes data to path via a temporary file in tmpDir and a
// rename, so readers see either the old contents or the new ones.
func WriteAtomic(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, TempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}

// Package keystore provides secure storage for provider API secrets.
package keystore

import (
	"os"
	"path/filepath"
	"runtime"
)

// Keystore defines the interface for secure secret storage.
type Keystore interface {
	// Set stores a name-secret pair.
	Set(name, value string) error
	// Get retrieves a secret by name. Returns error if not found.
	Get(name string) (string, error)
	// Delete removes a secret by name.
	Delete(name string) error
	// List returns all stored secret names.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested secret does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// MasterKeySource supplies the master key material used to derive the
// file encryption key.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.trackkit/keys.enc
// - Windows: %USERPROFILE%\.trackkit\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".trackkit", "keys.enc")
}

// NewKeystore creates a keystore at the default path using the
// machine-derived master key.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath())
}

// Package keystore provides encrypted local storage for auth tokens.
package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Keystore defines the interface for secure token storage.
type Keystore interface {
	// Set stores a named value.
	Set(name, value string) error
	// Get retrieves a value by name. Returns *ErrKeyNotFound if absent.
	Get(name string) (string, error)
	// Delete removes a value by name.
	Delete(name string) error
	// List returns all stored names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested entry does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// MasterKeyEnvVar overrides the machine-derived master key.
const MasterKeyEnvVar = "SWIPE_MASTER_KEY"

// MasterKeySource supplies the secret the file encryption key is derived from.
type MasterKeySource interface {
	MasterKey() ([]byte, error)
}

// MasterKeyFunc adapts a function to MasterKeySource.
type MasterKeyFunc func() ([]byte, error)

// MasterKey calls f.
func (f MasterKeyFunc) MasterKey() ([]byte, error) { return f() }

// EnvMasterKey reads the master key from an environment variable.
type EnvMasterKey struct {
	Var string
}

// MasterKey implements MasterKeySource.
func (e EnvMasterKey) MasterKey() ([]byte, error) {
	name := e.Var
	if name == "" {
		name = MasterKeyEnvVar
	}
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil, errors.New("keystore: " + name + " is not set")
	}
	return []byte(v), nil
}

// MachineMasterKey derives a master key from the host and user names.
// It keeps tokens out of plain text but is predictable to anyone with
// access to the machine; set SWIPE_MASTER_KEY for stronger protection.
type MachineMasterKey struct{}

// MasterKey implements MasterKeySource.
func (MachineMasterKey) MasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	return []byte(hostname + ":" + username + ":swipe-keystore"), nil
}

// DefaultMasterKeySource prefers SWIPE_MASTER_KEY and falls back to the
// machine-derived key.
func DefaultMasterKeySource() MasterKeySource {
	return MasterKeyFunc(func() ([]byte, error) {
		if key, err := (EnvMasterKey{}).MasterKey(); err == nil {
			return key, nil
		}
		return MachineMasterKey{}.MasterKey()
	})
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.swipe/keys.enc
// - Windows: %USERPROFILE%\.swipe\keys.enc
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
	return filepath.Join(homeDir, ".swipe", "keys.enc")
}

// NewKeystore opens the default file keystore.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultMasterKeySource())
}

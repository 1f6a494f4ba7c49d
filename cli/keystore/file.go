package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"
)

// File layout: [magic (4)] [version (1)] [salt (16)] [nonce (12)] [ciphertext]
const (
	magicHeader   = "SWPK"
	formatVersion = byte(0x01)
	saltLength    = 16
	nonceLength   = 12
	headerLength  = len(magicHeader) + 1 + saltLength + nonceLength
)

// ErrCorrupt is returned when the file is not a keystore or cannot be
// decrypted with the master key.
var ErrCorrupt = errors.New("keystore: file is corrupt or the master key is wrong")

// kdfParams are the Argon2id parameters.
type kdfParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

var defaultKDF = kdfParams{time: 3, memory: 64 * 1024, threads: 4}

// FileKeystore implements Keystore as a JSON map encrypted with AES-256-GCM.
// The file key is derived from the master key with Argon2id and a fresh salt
// on every write.
type FileKeystore struct {
	path      string
	masterKey []byte
	kdf       kdfParams
	mu        sync.RWMutex
}

// NewFileKeystore creates a file keystore at path using source for the
// master key.
func NewFileKeystore(path string, source MasterKeySource) (*FileKeystore, error) {
	if source == nil {
		source = DefaultMasterKeySource()
	}
	masterKey, err := source.MasterKey()
	if err != nil {
		return nil, err
	}
	if len(masterKey) == 0 {
		return nil, errors.New("keystore: empty master key")
	}
	return &FileKeystore{path: path, masterKey: masterKey, kdf: defaultKDF}, nil
}

// Path returns the file location.
func (f *FileKeystore) Path() string {
	return f.path
}

// Set stores a named value.
func (f *FileKeystore) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[name] = value
	return f.save(data)
}

// Get retrieves a value by name.
func (f *FileKeystore) Get(name string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := data[name]
	if !ok {
		return "", &ErrKeyNotFound{Name: name}
	}
	return value, nil
}

// Delete removes a value by name.
func (f *FileKeystore) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[name]; !ok {
		return &ErrKeyNotFound{Name: name}
	}
	delete(data, name)
	return f.save(data)
}

// List returns all stored names, sorted.
func (f *FileKeystore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileKeystore) load() (map[string]string, error) {
	data := make(map[string]string)

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return data, nil
	}

	plaintext, err := f.decrypt(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return data, nil
}

func (f *FileKeystore) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	plaintext, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ciphertext, err := f.encrypt(plaintext)
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileKeystore) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.masterKey, salt, f.kdf.time, f.kdf.memory, f.kdf.threads, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (f *FileKeystore) encrypt(plaintext []byte) ([]byte, error) {
	header := make([]byte, 0, headerLength)
	header = append(header, magicHeader...)
	header = append(header, formatVersion)

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	header = append(header, salt...)
	header = append(header, nonce...)

	aead, err := f.gcm(salt)
	if err != nil {
		return nil, err
	}
	// The header is authenticated as additional data.
	ciphertext := aead.Seal(nil, nonce, plaintext, header)
	return append(header, ciphertext...), nil
}

func (f *FileKeystore) decrypt(raw []byte) ([]byte, error) {
	if len(raw) < headerLength || string(raw[:len(magicHeader)]) != magicHeader {
		return nil, ErrCorrupt
	}
	if v := raw[len(magicHeader)]; v != formatVersion {
		return nil, fmt.Errorf("keystore: unsupported format version %d", v)
	}

	offset := len(magicHeader) + 1
	salt := raw[offset : offset+saltLength]
	offset += saltLength
	nonce := raw[offset : offset+nonceLength]
	header := raw[:headerLength]

	aead, err := f.gcm(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, raw[headerLength:], header)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plaintext, nil
}

var _ Keystore = (*FileKeystore)(nil)

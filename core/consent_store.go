package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// DefaultConsentStorageKey is the storage key used when none is configured.
const DefaultConsentStorageKey = "trackkit-consent"

// ConsentRecord is the persisted consent document. Absence or a
// policy-version mismatch is treated as "no stored consent".
type ConsentRecord struct {
	Status        ConsentStatus `json:"status"`
	PolicyVersion string        `json:"policyVersion,omitempty"`
	UpdatedAt     int64         `json:"updatedAt"`
}

// ConsentStore persists consent records under a storage key. Implementations
// must tolerate concurrent use. Errors are advisory: the ConsentManager
// degrades to in-memory operation when a store fails.
type ConsentStore interface {
	Load(key string) (*ConsentRecord, error)
	Save(key string, rec ConsentRecord) error
	Delete(key string) error
}

// MemoryConsentStore is an in-process ConsentStore, useful for tests and
// for hosts that manage persistence themselves.
type MemoryConsentStore struct {
	mu      sync.RWMutex
	records map[string]ConsentRecord
}

// NewMemoryConsentStore creates an empty in-memory store.
func NewMemoryConsentStore() *MemoryConsentStore {
	return &MemoryConsentStore{records: make(map[string]ConsentRecord)}
}

// Load returns the stored record, or nil if absent.
func (s *MemoryConsentStore) Load(key string) (*ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[key]; ok {
		return &rec, nil
	}
	return nil, nil
}

// Save stores rec under key.
func (s *MemoryConsentStore) Save(key string, rec ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

// Delete removes the record under key, if any.
func (s *MemoryConsentStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// FileConsentStore persists consent records as JSON files in a directory,
// one file per storage key. The zero directory defaults to
// ~/.trackkit/consent.
type FileConsentStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileConsentStore creates a file-backed store rooted at dir. An empty
// dir selects the default location under the user's home directory.
func NewFileConsentStore(dir string) *FileConsentStore {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".trackkit", "consent")
		} else {
			dir = filepath.Join(".trackkit", "consent")
		}
	}
	return &FileConsentStore{dir: dir}
}

func (s *FileConsentStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the record for key. A missing file is not an error; it
// returns (nil, nil).
func (s *FileConsentStore) Load(key string) (*ConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec ConsentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is the same as no record.
		return nil, nil
	}
	return &rec, nil
}

// Save writes the record for key, creating the directory if needed.
func (s *FileConsentStore) Save(key string, rec ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), data, 0o600)
}

// Delete removes the record for key. Missing files are ignored.
func (s *FileConsentStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

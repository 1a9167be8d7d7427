package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExtension = ".json"

// Cache errors.
var (
	ErrNotFound   = errors.New("cache entry not found")
	ErrExpired    = errors.New("cache entry expired")
	ErrInvalidKey = errors.New("cache key cannot be empty")
	ErrDisabled   = errors.New("cache is disabled")
)

// FileStore keeps entries as JSON files in one directory. Safe for concurrent use.
type FileStore struct {
	directory  string
	enabled    bool
	ttlSeconds int
	now        func() time.Time

	mu sync.RWMutex
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithNow overrides the time source used for expiry checks.
func WithNow(now func() time.Time) StoreOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates a store rooted at directory, creating it if needed. A disabled
// store answers every call with ErrDisabled.
func NewFileStore(directory string, enabled bool, ttlSeconds int, opts ...StoreOption) (*FileStore, error) {
	s := &FileStore{enabled: enabled, ttlSeconds: ttlSeconds, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if !enabled {
		return s, nil
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := ValidateTTL(ttlSeconds); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	s.directory = directory
	return s, nil
}

// Get returns the entry for key, ErrNotFound when absent, or ErrExpired when stale.
// Stale entries are removed.
func (s *FileStore) Get(key string) (*Entry, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.RLock()
	path := s.path(key)
	entry, err := readEntry(path)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if entry.ExpiredAt(s.now()) {
		s.mu.Lock()
		_ = os.Remove(path)
		s.mu.Unlock()
		return nil, ErrExpired
	}
	return entry, nil
}

// Set writes data under key, replacing any existing entry. source is informational,
// typically the URL the data came from.
func (s *FileStore) Set(key, source string, data json.RawMessage) error {
	if !s.enabled {
		return ErrDisabled
	}
	if key == "" {
		return ErrInvalidKey
	}

	entry := NewEntry(key, source, data, s.ttlSeconds, s.now())
	body, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// Delete removes key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if !s.enabled {
		return ErrDisabled
	}
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting cache file: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	return s.sweep(func(*Entry) bool { return true })
}

// CleanupExpired removes entries that have expired. Unreadable files are skipped.
func (s *FileStore) CleanupExpired() error {
	now := s.now()
	return s.sweep(func(e *Entry) bool { return e != nil && e.ExpiredAt(now) })
}

// Count returns the number of entry files, expired or not.
func (s *FileStore) Count() (int, error) {
	if !s.enabled {
		return 0, ErrDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.entryFiles()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Enabled reports whether the store is active.
func (s *FileStore) Enabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.directory }

// TTL returns the entry lifetime.
func (s *FileStore) TTL() time.Duration { return time.Duration(s.ttlSeconds) * time.Second }

func (s *FileStore) sweep(remove func(*Entry) bool) error {
	if !s.enabled {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.entryFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		path := filepath.Join(s.directory, name)
		entry, readErr := readEntry(path)
		if readErr != nil {
			entry = nil
		}
		if !remove(entry) {
			continue
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("removing cache file %s: %w", name, rmErr)
		}
	}
	return nil
}

func (s *FileStore) entryFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var names []string
	for _, d := range dirEntries {
		if !d.IsDir() && filepath.Ext(d.Name()) == fileExtension {
			names = append(names, d.Name())
		}
	}
	return names, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.directory, filepath.Base(key)+fileExtension)
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &entry, nil
}

// Load returns the cached body for endpoint of the API at baseURL.
func (s *FileStore) Load(baseURL, endpoint string) (json.RawMessage, error) {
	entry, err := s.Get(Key(baseURL, endpoint))
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// Store caches the body returned by endpoint of the API at baseURL.
func (s *FileStore) Store(baseURL, endpoint string, data json.RawMessage) error {
	return s.Set(Key(baseURL, endpoint), strings.TrimRight(baseURL, "/")+endpoint, data)
}

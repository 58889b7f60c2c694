package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"

	"github.com/dixieflatline76/courtside/util/log"
)

const (
	// FileName is the data file holding the profile.
	FileName = "profile.json"
	// MaxPersistBytes is the largest encoded profile written to disk. Larger ones,
	// usually carrying big image data URIs, live in memory for the session only.
	MaxPersistBytes = 4 * 1024 * 1024
	// DefaultDebounce delays writes so bursts of edits are saved once.
	DefaultDebounce = 2 * time.Second
)

// Listener is called with the new profile after every change.
type Listener func(Profile)

// Store is the thread-safe home of the profile.
type Store struct {
	mu       sync.RWMutex
	profile  Profile
	storage  *storage.Storage
	inMemory bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	asyncSave        bool
	debounceDuration time.Duration
	saveTimer        *time.Timer
	saveMu           sync.Mutex

	// Testing hooks
	now      func() time.Time
	saveFunc func()
}

// NewStore creates a store backed by st. A nil st keeps everything in memory.
func NewStore(st *storage.Storage) *Store {
	return &Store{
		profile:          Default(),
		storage:          st,
		listeners:        make(map[int]Listener),
		asyncSave:        true,
		debounceDuration: DefaultDebounce,
		now:              time.Now,
	}
}

// OpenStorage opens the data directory with compression on. With a passphrase the
// data files are encrypted with a master key kept in dir/master.key, created on first use.
func OpenStorage(dir, passphrase string) (*storage.Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	keyFile := filepath.Join(dir, "master.key")

	if passphrase == "" {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but no passphrase was given, refusing to read encrypted data", keyFile)
		}
		log.Println("Warning: no passphrase configured, profile data is stored unencrypted.")
		st := storage.New(dir, nil)
		st.EnableCompression(true)
		return st, nil
	}

	masterKey, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading master key: %w", err)
		}
		log.Println("Initializing new master encryption key...")
		if masterKey, err = crypto.CreateMasterKey(); err != nil {
			return nil, fmt.Errorf("creating master key: %w", err)
		}
		if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
			return nil, fmt.Errorf("saving master key: %w", err)
		}
	}
	st := storage.New(dir, masterKey)
	st.EnableCompression(true)
	return st, nil
}

// SetDebounceDuration changes the delay before a change is written.
func (s *Store) SetDebounceDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounceDuration = d
}

// SetAsyncSave switches between debounced and immediate writes.
func (s *Store) SetAsyncSave(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncSave = enabled
}

// Load reads the saved profile. A missing or unreadable file leaves the default
// profile in place; only the age is refreshed from the birthday.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		var p Profile
		err := s.storage.ReadDataFile(FileName, &p)
		switch {
		case err == nil:
			s.profile = p
		case errors.Is(err, os.ErrNotExist):
		default:
			log.Printf("Store: Failed to read profile, using defaults: %v", err)
		}
	}
	if age, ok := AgeOn(s.profile.Birthday, s.now()); ok {
		s.profile.Age = age
	}
}

// Get returns a copy of the profile.
func (s *Store) Get() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// InMemoryOnly reports whether the last write was too large to persist.
func (s *Store) InMemoryOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inMemory
}

// Update applies a patch and returns the new profile.
func (s *Store) Update(pt Patch) Profile {
	s.mu.Lock()
	pt.Apply(&s.profile, s.now())
	p := s.profile
	s.scheduleSaveLocked()
	s.mu.Unlock()

	s.notify(p)
	return p
}

// SetAvatar replaces the avatar image.
func (s *Store) SetAvatar(uri string) Profile {
	return s.Update(Patch{Avatar: &uri})
}

// SetCover replaces the cover image.
func (s *Store) SetCover(uri string) Profile {
	return s.Update(Patch{CoverImage: &uri})
}

// Subscribe registers l for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(p Profile) {
	s.listenersMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(p)
	}
}

// scheduleSaveLocked handles persistence.
// CALLER MUST HOLD s.mu.Lock()
func (s *Store) scheduleSaveLocked() {
	if !s.asyncSave {
		s.saveInternal(s.profile)
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounceDuration, func() {
		s.Save()
	})
}

// Save writes the current profile now.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInternal(s.profile)
}

// Flush cancels a pending debounced write and saves immediately.
func (s *Store) Flush() {
	s.saveMu.Lock()
	pending := s.saveTimer != nil && s.saveTimer.Stop()
	s.saveTimer = nil
	s.saveMu.Unlock()

	if pending {
		s.Save()
	}
}

// saveInternal persists p.
// CALLER MUST HOLD s.mu.Lock()
func (s *Store) saveInternal(p Profile) {
	if s.saveFunc != nil {
		s.saveFunc()
	}
	if s.storage == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("Store: Failed to encode profile: %v", err)
		return
	}
	if len(data) > MaxPersistBytes {
		if !s.inMemory {
			log.Printf("Store: Profile is %d bytes, keeping it in memory for this session only", len(data))
		}
		s.inMemory = true
		return
	}
	s.inMemory = false

	if err := s.storage.SaveDataFile(FileName, p); err != nil {
		log.Printf("Store: Failed to save profile: %v", err)
	}
}

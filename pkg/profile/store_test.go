package profile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncStore(t *testing.T, st *storage.Storage) *Store {
	t.Helper()
	s := NewStore(st)
	s.SetAsyncSave(false)
	s.now = func() time.Time { return day(2026, 10, 19) }
	return s
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	st := storage.New(t.TempDir(), nil)
	s := newSyncStore(t, st)
	s.Load()

	loc := "Denver, CO"
	s.Update(Patch{Location: &loc})
	s.SetAvatar("data:image/jpeg;base64,AAAA")

	reloaded := newSyncStore(t, st)
	reloaded.Load()
	p := reloaded.Get()
	assert.Equal(t, "Denver, CO", p.Location)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", p.Avatar)
	assert.Equal(t, 19, p.Age, "age is refreshed on load")
}

func TestStore_Encrypted(t *testing.T) {
	mk, err := crypto.CreateAESMasterKeyForTest()
	require.NoError(t, err)
	dir := t.TempDir()
	st := storage.New(dir, mk)

	s := newSyncStore(t, st)
	s.SetCover("data:image/jpeg;base64,Q09WRVI=")

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err == nil {
		assert.NotContains(t, string(raw), "Q09WRVI=")
	}

	reloaded := newSyncStore(t, storage.New(dir, mk))
	reloaded.Load()
	assert.Equal(t, "data:image/jpeg;base64,Q09WRVI=", reloaded.Get().CoverImage)
}

func TestStore_LoadWithoutFile(t *testing.T) {
	s := newSyncStore(t, storage.New(t.TempDir(), nil))
	s.Load()

	p := s.Get()
	assert.Equal(t, Default().Name, p.Name)
	assert.Equal(t, 19, p.Age)
}

func TestStore_LargeProfileStaysInMemory(t *testing.T) {
	st := storage.New(t.TempDir(), nil)
	s := newSyncStore(t, st)

	huge := "data:image/jpeg;base64," + strings.Repeat("A", MaxPersistBytes)
	s.SetAvatar(huge)

	assert.True(t, s.InMemoryOnly())
	assert.Equal(t, huge, s.Get().Avatar)

	reloaded := newSyncStore(t, st)
	reloaded.Load()
	assert.Equal(t, Default().Avatar, reloaded.Get().Avatar)

	s.SetAvatar("small")
	assert.False(t, s.InMemoryOnly())
}

func TestStore_DebouncedSave(t *testing.T) {
	s := NewStore(nil)
	s.SetDebounceDuration(20 * time.Millisecond)

	var saves atomic.Int32
	s.saveFunc = func() { saves.Add(1) }

	for i := 0; i < 5; i++ {
		name := "name"
		s.Update(Patch{Name: &name})
	}

	assert.Eventually(t, func() bool { return saves.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), saves.Load())
}

func TestStore_Flush(t *testing.T) {
	st := storage.New(t.TempDir(), nil)
	s := NewStore(st)
	s.SetDebounceDuration(time.Hour)

	email := "ava@example.com"
	s.Update(Patch{Email: &email})
	s.Flush()

	reloaded := NewStore(st)
	reloaded.Load()
	assert.Equal(t, "ava@example.com", reloaded.Get().Email)
}

func TestStore_Subscribe(t *testing.T) {
	s := newSyncStore(t, nil)

	var mu sync.Mutex
	var got []string
	unsubscribe := s.Subscribe(func(p Profile) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p.Name)
	})

	first, second := "first", "second"
	s.Update(Patch{Name: &first})
	unsubscribe()
	s.Update(Patch{Name: &second})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first"}, got)
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	st, err := OpenStorage(dir, "correct horse")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "master.key"))

	s := newSyncStore(t, st)
	s.SetCover("cover")

	st2, err := OpenStorage(dir, "correct horse")
	require.NoError(t, err)
	reloaded := newSyncStore(t, st2)
	reloaded.Load()
	assert.Equal(t, "cover", reloaded.Get().CoverImage)

	_, err = OpenStorage(dir, "")
	assert.Error(t, err, "an encrypted directory needs the passphrase")

	plain, err := OpenStorage(t.TempDir(), "")
	require.NoError(t, err)
	assert.NotNil(t, plain)
}

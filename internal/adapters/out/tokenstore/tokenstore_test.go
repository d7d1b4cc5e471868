// internal/adapters/out/tokenstore/tokenstore_test.go
package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdom "b7pizza/internal/domain/auth"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

// exerciseStore runs the contract every TokenStore must satisfy.
func exerciseStore(t *testing.T, s authdom.TokenStore) {
	t.Helper()
	ctx := context.Background()
	key := uuid.NewString()

	_, ok, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, key, "abc"))
	tok, ok, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Save(ctx, key, "def"))
	tok, _, _ = s.Load(ctx, key)
	assert.Equal(t, "def", tok)

	// empty value deletes
	require.NoError(t, s.Save(ctx, key, ""))
	_, ok, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, key, "ghi"))
	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, ok, _ = s.Load(ctx, key)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Save(ctx, "../escape", "x"), ErrInvalidKey)
	_, _, err = s.Load(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(time.Hour))
}

func TestMemory_Expiry(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemoryWithClock(time.Minute, clock)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "k", "abc"))
	require.NoError(t, m.Save(ctx, "fresh", "def"))
	assert.Equal(t, 2, m.Len())
	clock.t = clock.t.Add(2 * time.Minute)
	require.NoError(t, m.Save(ctx, "fresh", "def"))

	_, ok, err := m.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	// the expired record is dropped, the live one stays
	assert.Equal(t, 1, m.Len())

	tok, ok, err := m.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def", tok)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemory(0).Save(ctx, "k", "abc"), context.Canceled)
}

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "tokens"), time.Hour)
	require.NoError(t, err)
	exerciseStore(t, f)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := NewFile(dir, 0)
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, "sess", "abc"))

	b, err := NewFile(dir, 0)
	require.NoError(t, err)
	tok, ok, err := b.Load(ctx, "sess")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	info, err := os.Stat(filepath.Join(dir, "sess.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_CorruptFileIsNoToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess.json"), []byte("{nope"), 0o600))

	f, err := NewFile(dir, 0)
	require.NoError(t, err)
	_, ok, err := f.Load(context.Background(), "sess")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_Expiry(t *testing.T) {
	f, err := NewFile(t.TempDir(), time.Minute)
	require.NoError(t, err)
	clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.clock = clock
	ctx := context.Background()

	require.NoError(t, f.Save(ctx, "k", "abc"))
	clock.t = clock.t.Add(time.Hour)
	_, ok, err := f.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis(t *testing.T) {
	_, client := newMiniRedis(t)
	exerciseStore(t, NewRedis(client, time.Hour))
}

func TestRedis_KeyLayoutAndTTL(t *testing.T) {
	mr, client := newMiniRedis(t)
	s := NewRedis(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sess-1", "abc"))
	v, err := mr.Get("token:sess-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.Equal(t, time.Minute, mr.TTL("token:sess-1"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Unavailable(t *testing.T) {
	mr, client := newMiniRedis(t)
	s := NewRedis(client, 0)
	mr.Close()

	_, _, err := s.Load(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, s.Save(context.Background(), "sess-1", "abc"), ErrStoreUnavailable)

	var nilStore *Redis
	assert.ErrorIs(t, nilStore.Delete(context.Background(), "k"), ErrStoreUnavailable)
}

// Runs only against the Firestore emulator.
func TestFirestore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "b7pizza-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewFirestore(client, time.Hour))
}

func TestFirestore_NilClient(t *testing.T) {
	s := NewFirestore(nil, 0)
	_, _, err := s.Load(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

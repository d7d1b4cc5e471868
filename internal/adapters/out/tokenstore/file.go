// internal/adapters/out/tokenstore/file.go
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	authdom "b7pizza/internal/domain/auth"
)

// File stores one JSON document per session key under Dir:
//
//	<Dir>/<key>.json  {"token": "...", "updatedAt": "...", "expiresAt": "..."}
//
// Writes go through a temp file and a rename so readers never see a torn file.
type File struct {
	Dir   string
	TTL   time.Duration
	clock Clock

	mu sync.Mutex
}

var _ authdom.TokenStore = (*File)(nil)

// NewFile creates dir (0700) when missing.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	d := strings.TrimSpace(dir)
	if d == "" {
		return nil, errors.New("tokenstore: file store dir is empty")
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return nil, unavailable("mkdir", err)
	}
	return &File{Dir: d, TTL: ttl, clock: systemClock{}}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

func (f *File) Load(ctx context.Context, key string) (string, bool, error) {
	k, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, unavailable("read", err)
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		// a corrupt file is treated as no token
		_ = os.Remove(f.path(k))
		return "", false, nil
	}
	if rec.Token == "" || rec.expired(f.clock.Now()) {
		return "", false, nil
	}
	return rec.Token, true, nil
}

func (f *File) Save(ctx context.Context, key, token string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if token == "" {
		return f.Delete(ctx, k)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(newRecord(token, f.clock.Now(), f.TTL))
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.Dir, k+".*.tmp")
	if err != nil {
		return unavailable("create", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return unavailable("write", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return unavailable("close", err)
	}
	if err := os.Rename(tmpName, f.path(k)); err != nil {
		_ = os.Remove(tmpName)
		return unavailable("rename", err)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("remove", err)
	}
	return nil
}

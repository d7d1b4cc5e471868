// internal/adapters/out/tokenstore/store.go
package tokenstore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStoreUnavailable = errors.New("tokenstore: unavailable")
	ErrInvalidKey       = errors.New("tokenstore: invalid key")
)

// DefaultTTL bounds how long an idle token survives in stores that expire keys.
const DefaultTTL = 30 * 24 * time.Hour

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// record is the persisted shape shared by the file and firestore stores.
type record struct {
	Token     string    `json:"token" firestore:"token"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

func (r record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

func newRecord(token string, now time.Time, ttl time.Duration) record {
	rec := record{Token: token, UpdatedAt: now}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl)
	}
	return rec
}

// normalizeKey trims the key and rejects anything that could escape a
// directory or a document path.
func normalizeKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.ContainsAny(k, "/\\") || k == "." || k == ".." {
		return "", ErrInvalidKey
	}
	return k, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

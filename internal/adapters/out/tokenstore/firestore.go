// internal/adapters/out/tokenstore/firestore.go
package tokenstore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authdom "b7pizza/internal/domain/auth"
)

const sessionsCollection = "sessions"

// Firestore stores tokens in the "sessions" collection.
//
// Collection design:
// - docId: session key
// - fields: token, updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on "expiresAt". Reads also ignore expired docs,
//   since TTL deletion runs lazily.
type Firestore struct {
	Client *firestore.Client
	TTL    time.Duration
	clock  Clock
}

var _ authdom.TokenStore = (*Firestore)(nil)

func NewFirestore(client *firestore.Client, ttl time.Duration) *Firestore {
	return &Firestore{Client: client, TTL: ttl, clock: systemClock{}}
}

func (s *Firestore) col() *firestore.CollectionRef {
	return s.Client.Collection(sessionsCollection)
}

func (s *Firestore) ready() error {
	if s == nil || s.Client == nil {
		return unavailable("firestore", errors.New("client is nil"))
	}
	return nil
}

// Load returns ok=false if the doc is missing or expired.
func (s *Firestore) Load(ctx context.Context, key string) (string, bool, error) {
	k, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	if err := s.ready(); err != nil {
		return "", false, err
	}

	snap, err := s.col().Doc(k).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, unavailable("get", err)
	}

	var rec record
	if err := snap.DataTo(&rec); err != nil {
		return "", false, unavailable("decode", err)
	}
	if rec.Token == "" || rec.expired(s.clock.Now()) {
		return "", false, nil
	}
	return rec.Token, true, nil
}

// Save overwrites the full doc.
func (s *Firestore) Save(ctx context.Context, key, token string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if token == "" {
		return s.Delete(ctx, k)
	}
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.col().Doc(k).Set(ctx, newRecord(token, s.clock.Now(), s.TTL)); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Delete is idempotent; Firestore does not fail on missing docs.
func (s *Firestore) Delete(ctx context.Context, key string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.col().Doc(k).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return unavailable("delete", err)
	}
	return nil
}

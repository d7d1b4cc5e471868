// internal/infra/secrets/secretmanager_test.go
package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionName(t *testing.T) {
	cases := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"sm://redis-pass", "projects/demo/secrets/redis-pass/versions/latest", true},
		{"sm://redis-pass#3", "projects/demo/secrets/redis-pass/versions/3", true},
		{"sm://projects/other/secrets/x/versions/2", "projects/other/secrets/x/versions/2", true},
		{"sm://projects/other/secrets/x", "", false},
		{"sm://", "", false},
		{"sm://a/b", "", false},
		{"redis-pass", "", false},
	}
	for _, tc := range cases {
		got, err := VersionName("demo", tc.ref)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidRef, tc.ref)
			continue
		}
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got)
	}

	_, err := VersionName("", "sm://redis-pass")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestResolver_Resolve(t *testing.T) {
	var asked string
	r := NewResolverFunc("demo", func(_ context.Context, name string) ([]byte, error) {
		asked = name
		if name == "projects/demo/secrets/broken/versions/latest" {
			return nil, errors.New("permission denied")
		}
		return []byte("  s3cret\n"), nil
	})

	v, err := r.Resolve(context.Background(), "sm://api-url#7")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
	assert.Equal(t, "projects/demo/secrets/api-url/versions/7", asked)

	_, err = r.Resolve(context.Background(), "sm://broken")
	assert.ErrorContains(t, err, "permission denied")
}

func TestResolver_NotConfigured(t *testing.T) {
	var r *Resolver
	_, err := r.Resolve(context.Background(), "sm://x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewResolver(nil, "demo").Resolve(context.Background(), "sm://x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

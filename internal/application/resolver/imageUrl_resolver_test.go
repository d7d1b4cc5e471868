// internal/application/resolver/imageUrl_resolver_test.go
package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURLResolver_Resolve(t *testing.T) {
	r := NewImageURLResolver("http://localhost:4000/", "")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"relative name", "calabresa.png", "http://localhost:4000/pizzas/calabresa.png"},
		{"already prefixed", "pizzas/calabresa.png", "http://localhost:4000/pizzas/calabresa.png"},
		{"leading slash and traversal", "/../secret/../a.png", "http://localhost:4000/pizzas/secret/a.png"},
		{"escapes segments", "quatro queijos.png", "http://localhost:4000/pizzas/quatro%20queijos.png"},
		{"gs url", "gs://b7-assets/pizzas/a.png", "https://storage.googleapis.com/b7-assets/pizzas/a.png"},
		{"signed gcs url", "https://storage.googleapis.com/b7-assets/a.png?X-Goog-Signature=1", "https://storage.googleapis.com/b7-assets/a.png"},
		{"bucket host", "https://b7-assets.storage.googleapis.com/a.png", "https://storage.googleapis.com/b7-assets/a.png"},
		{"foreign host", "https://cdn.example.com/a.png?w=200", "https://cdn.example.com/a.png?w=200"},
		{"bad gs url", "gs://", "gs://"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Resolve(tc.in))
		})
	}
}

func TestImageURLResolver_NoBaseURL(t *testing.T) {
	r := NewImageURLResolver("", "img")
	assert.Equal(t, "a.png", r.Resolve("a.png"))
	assert.Equal(t, "img", r.Prefix)
}

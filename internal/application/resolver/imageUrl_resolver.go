// internal/application/resolver/imageUrl_resolver.go
package resolver

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultImagePrefix is the asset folder the backend serves product images from.
const DefaultImagePrefix = "pizzas"

// ImageURLResolver turns the image reference stored on a product into an
// absolute URL the view can load.
//
//   - "calabresa.png"                       -> <AssetBaseURL>/pizzas/calabresa.png
//   - "gs://bucket/pizzas/a.png"            -> https://storage.googleapis.com/bucket/pizzas/a.png
//   - "https://storage.googleapis.com/...?" -> same URL without the signing query
//   - any other absolute http(s) URL        -> unchanged
type ImageURLResolver struct {
	AssetBaseURL string
	Prefix       string
}

// NewImageURLResolver creates a resolver. An empty prefix falls back to
// DefaultImagePrefix.
func NewImageURLResolver(assetBaseURL, prefix string) *ImageURLResolver {
	p := normalizeObjectPath(prefix)
	if p == "" {
		p = DefaultImagePrefix
	}
	return &ImageURLResolver{
		AssetBaseURL: strings.TrimRight(strings.TrimSpace(assetBaseURL), "/"),
		Prefix:       p,
	}
}

// Resolve returns the display URL for raw. Empty input stays empty.
// References that cannot be parsed are returned trimmed but otherwise as-is.
func (r *ImageURLResolver) Resolve(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if looksLikeURL(s) {
		bkt, obj, err := parseGCSLikeURL(s)
		if err != nil {
			// foreign hosts and malformed gcs refs are passed through
			return s
		}
		if u := buildGCSPublicURL(bkt, obj); u != "" {
			return u
		}
		return s
	}

	obj := normalizeObjectPath(s)
	if obj == "" {
		return ""
	}
	if r == nil || r.AssetBaseURL == "" {
		return obj
	}

	prefix := r.Prefix
	if prefix == "" {
		prefix = DefaultImagePrefix
	}
	if !strings.HasPrefix(obj, prefix+"/") {
		obj = prefix + "/" + obj
	}
	return r.AssetBaseURL + "/" + escapeSegments(obj)
}

// ------------------------------------------------------------
// Internal helpers
// ------------------------------------------------------------

var errNotGCS = errors.New("resolver: not a gcs url")

func looksLikeURL(s string) bool {
	ls := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(ls, "http://") || strings.HasPrefix(ls, "https://") || strings.HasPrefix(ls, "gs://")
}

// parseGCSLikeURL supports:
//
// 1) https://storage.googleapis.com/<bucket>/<objectPath>?X-Goog-...
// 2) https://<bucket>.storage.googleapis.com/<objectPath>?X-Goog-...
// 3) gs://<bucket>/<objectPath>
//
// Any other host yields errNotGCS.
func parseGCSLikeURL(raw string) (bucket string, objectPath string, err error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(strings.ToLower(s), "gs://") {
		trim := s[len("gs://"):]

		parts := strings.SplitN(trim, "/", 2)
		if strings.TrimSpace(parts[0]) == "" {
			return "", "", errors.New("resolver: invalid gs:// url: bucket is empty")
		}
		bucket = strings.TrimSpace(parts[0])
		if len(parts) == 1 {
			return bucket, "", errors.New("resolver: invalid gs:// url: objectPath is empty")
		}
		return bucket, parts[1], nil
	}

	u, e := url.Parse(s)
	if e != nil {
		return "", "", e
	}

	host := strings.ToLower(strings.TrimSpace(u.Host))
	path := u.Path

	if host == "storage.googleapis.com" {
		p := strings.TrimPrefix(path, "/")
		parts := strings.SplitN(p, "/", 2)
		if len(parts) < 2 {
			return "", "", errors.New("resolver: invalid storage.googleapis.com url: missing /bucket/objectPath")
		}
		return strings.TrimSpace(parts[0]), parts[1], nil
	}

	if strings.HasSuffix(host, ".storage.googleapis.com") {
		bucket = strings.TrimSuffix(host, ".storage.googleapis.com")
		if strings.TrimSpace(bucket) == "" {
			return "", "", errors.New("resolver: invalid *.storage.googleapis.com url: bucket is empty")
		}
		return bucket, strings.TrimPrefix(path, "/"), nil
	}

	return "", "", errNotGCS
}

func normalizeObjectPath(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}

	s = strings.ReplaceAll(s, "\\", "/")

	// drop traversal segments
	segs := strings.Split(s, "/")
	out := segs[:0]
	for _, seg := range segs {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}

// buildGCSPublicURL builds https://storage.googleapis.com/<bucket>/<encoded-objectPath>.
func buildGCSPublicURL(bucket string, objectPath string) string {
	b := strings.TrimSpace(bucket)
	p := normalizeObjectPath(objectPath)
	if b == "" || p == "" {
		return ""
	}
	return "https://storage.googleapis.com/" + b + "/" + escapeSegments(p)
}

// escapeSegments keeps "/" and PathEscapes each segment.
func escapeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i := range segs {
		segs[i] = url.PathEscape(segs[i])
	}
	return strings.Join(segs, "/")
}

// internal/infra/config/config_validate.go
package config

import (
	"context"
	"fmt"
	"strings"
)

// SecretRefPrefix marks a value to be fetched from Secret Manager at boot.
const SecretRefPrefix = "sm://"

// SecretResolver turns an sm:// reference into its payload.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// HasSecretRefs reports whether any secret-capable field holds an sm:// reference.
func (c *Config) HasSecretRefs() bool {
	if c == nil {
		return false
	}
	for _, f := range c.secretFields() {
		if strings.HasPrefix(*f.val, SecretRefPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces sm:// references in place.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	for _, f := range c.secretFields() {
		if !strings.HasPrefix(*f.val, SecretRefPrefix) {
			continue
		}
		if r == nil {
			return fmt.Errorf("config: %s references a secret but no resolver is configured", f.name)
		}
		v, err := r.Resolve(ctx, *f.val)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", f.name, err)
		}
		*f.val = v
	}
	c.BackendBaseURL = normalizeBaseURL(c.BackendBaseURL)
	return nil
}

type secretField struct {
	name string
	val  *string
}

func (c *Config) secretFields() []secretField {
	return []secretField{
		{"BACKEND_BASE_URL", &c.BackendBaseURL},
		{"REDIS_URL", &c.RedisURL},
		{"REDIS_PASSWORD", &c.RedisPassword},
	}
}

// Validate fails fast on values that would leave the storefront unusable.
// Optional features stay disabled when their settings are empty.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}

	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config: PORT is empty")
	}

	u := strings.TrimSpace(c.BackendBaseURL)
	if u == "" {
		return fmt.Errorf("config: BACKEND_BASE_URL is empty")
	}
	if !isHTTPURL(u) {
		return fmt.Errorf("config: BACKEND_BASE_URL must start with http:// or https:// (got %q)", u)
	}
	if a := strings.TrimSpace(c.AssetBaseURL); a != "" && !isHTTPURL(a) {
		return fmt.Errorf("config: ASSET_BASE_URL must start with http:// or https:// (got %q)", a)
	}

	if c.ShippingFlatRate.IsNegative() {
		return fmt.Errorf("config: SHIPPING_FLAT_RATE must not be negative (got %s)", c.ShippingFlatRate)
	}

	switch c.TokenStore {
	case TokenStoreMemory:
	case TokenStoreFile:
		if strings.TrimSpace(c.TokenStoreDir) == "" {
			return fmt.Errorf("config: TOKEN_STORE_DIR is empty")
		}
	case TokenStoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" && strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("config: REDIS_URL or REDIS_ADDR is required for the redis token store")
		}
	case TokenStoreFirestore:
		if strings.TrimSpace(c.FirestoreProjectID) == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT_ID is required for the firestore token store")
		}
	default:
		return fmt.Errorf("config: unknown TOKEN_STORE %q", c.TokenStore)
	}

	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("config: AUTH_RATE_LIMIT must be positive (got %v)", c.AuthRateLimit)
	}
	if c.AuthRateBurst < 1 {
		return fmt.Errorf("config: AUTH_RATE_BURST must be at least 1 (got %d)", c.AuthRateBurst)
	}

	for name, v := range map[string]string{
		"SESSION_COOKIE_NAME": c.SessionCookieName,
		"CURRENCY":            c.Currency,
		"LOCALE":              c.Locale,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("config: %s is empty", name)
		}
		if strings.ContainsAny(v, " \t\r\n;,") {
			return fmt.Errorf("config: %s contains invalid characters (got %q)", name, v)
		}
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be json or console (got %q)", c.LogFormat)
	}

	return nil
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

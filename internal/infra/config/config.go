// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Token store backends.
const (
	TokenStoreMemory    = "memory"
	TokenStoreFile      = "file"
	TokenStoreRedis     = "redis"
	TokenStoreFirestore = "firestore"
)

// Config holds the storefront's runtime settings.
type Config struct {
	Port           string
	BackendBaseURL string
	AssetBaseURL   string
	BackendTimeout time.Duration

	CatalogRefresh time.Duration

	ShippingFlatRate decimal.Decimal
	Currency         string
	Locale           string

	TokenStore    string
	TokenStoreDir string
	TokenTTL      time.Duration

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	SessionCookieName string
	SessionIdleTTL    time.Duration
	AllowedOrigins    []string
	AuthRateLimit     float64
	AuthRateBurst     int

	LogFormat string
	LogLevel  string
}

// Load reads an optional .env, an optional YAML file named by
// STOREFRONT_CONFIG, then the environment. Environment wins over the file.
// Warnings describe settings that fell back to a default after a parse error.
func Load() (*Config, []string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("config: .env: %w", err)
	}

	file, err := loadFile(strings.TrimSpace(os.Getenv("STOREFRONT_CONFIG")))
	if err != nil {
		return nil, nil, err
	}
	l := &lookup{file: file}
	return fromLookup(l), l.bad, nil
}

// LoadFrom builds a Config from explicit values only. Useful for tests.
func LoadFrom(values map[string]string) (*Config, []string) {
	l := &lookup{file: values, skipEnv: true}
	cfg := fromLookup(l)
	return cfg, l.bad
}

func fromLookup(l *lookup) *Config {
	cfg := &Config{
		Port:           l.getDefault("PORT", "8080"),
		BackendBaseURL: normalizeBaseURL(l.get("BACKEND_BASE_URL")),
		AssetBaseURL:   normalizeBaseURL(l.get("ASSET_BASE_URL")),
		BackendTimeout: l.duration("BACKEND_TIMEOUT", 10*time.Second),
		CatalogRefresh: l.duration("CATALOG_REFRESH_INTERVAL", 5*time.Minute),

		ShippingFlatRate: l.decimal("SHIPPING_FLAT_RATE", decimal.NewFromInt(10)),
		Currency:         strings.ToUpper(l.getDefault("CURRENCY", "BRL")),
		Locale:           l.getDefault("LOCALE", "pt-BR"),

		TokenStore:    strings.ToLower(l.getDefault("TOKEN_STORE", TokenStoreMemory)),
		TokenStoreDir: l.getDefault("TOKEN_STORE_DIR", filepath.Join(os.TempDir(), "b7pizza-sessions")),
		TokenTTL:      l.duration("TOKEN_TTL", 720*time.Hour),

		RedisURL:      l.get("REDIS_URL"),
		RedisAddr:     l.getDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: l.get("REDIS_PASSWORD"),
		RedisDB:       l.int("REDIS_DB", 0),

		FirestoreProjectID:       l.getDefault("FIRESTORE_PROJECT_ID", l.get("GOOGLE_CLOUD_PROJECT")),
		FirestoreCredentialsFile: l.getDefault("FIRESTORE_CREDENTIALS_FILE", l.get("GOOGLE_APPLICATION_CREDENTIALS")),

		SessionCookieName: l.getDefault("SESSION_COOKIE_NAME", "b7_session"),
		SessionIdleTTL:    l.duration("SESSION_IDLE_TTL", 30*time.Minute),
		AllowedOrigins:    splitList(l.getDefault("ALLOWED_ORIGINS", "*")),
		AuthRateLimit:     l.float("AUTH_RATE_LIMIT", 2),
		AuthRateBurst:     l.int("AUTH_RATE_BURST", 5),

		LogFormat: strings.ToLower(l.getDefault("LOG_FORMAT", "json")),
		LogLevel:  strings.ToLower(l.getDefault("LOG_LEVEL", "info")),
	}
	return cfg
}

// ============================================================
// Sources
// ============================================================

func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, p := range list {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

type lookup struct {
	file    map[string]string
	skipEnv bool
	bad     []string
}

func (l *lookup) get(key string) string {
	if !l.skipEnv {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(l.file[key])
}

func (l *lookup) getDefault(key, def string) string {
	if v := l.get(key); v != "" {
		return v
	}
	return def
}

func (l *lookup) duration(key string, def time.Duration) time.Duration {
	v := l.get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.warn(key, v)
		return def
	}
	return d
}

func (l *lookup) int(key string, def int) int {
	v := l.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.warn(key, v)
		return def
	}
	return n
}

func (l *lookup) float(key string, def float64) float64 {
	v := l.get(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.warn(key, v)
		return def
	}
	return f
}

func (l *lookup) decimal(key string, def decimal.Decimal) decimal.Decimal {
	v := l.get(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		l.warn(key, v)
		return def
	}
	return d
}

func (l *lookup) warn(key, v string) {
	l.bad = append(l.bad, fmt.Sprintf("config: %s=%q is invalid; using default", key, v))
}

// ============================================================
// Helpers
// ============================================================

func normalizeBaseURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// internal/platform/di/infra.go
package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"b7pizza/internal/adapters/out/tokenstore"
	authdom "b7pizza/internal/domain/auth"
	appcfg "b7pizza/internal/infra/config"
	"b7pizza/internal/infra/secrets"
)

const pingTimeout = 5 * time.Second

// Infra owns external clients. Only the clients the configured token store
// needs are opened.
type Infra struct {
	Config *appcfg.Config

	Firestore     *firestore.Client
	Redis         *redis.Client
	SecretManager *secretmanager.Client

	TokenStore authdom.TokenStore

	log *zap.Logger
}

// NewInfra resolves sm:// references, validates cfg and opens the token store.
func NewInfra(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, fmt.Errorf("di.infra: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	inf := &Infra{Config: cfg, log: log.Named("infra")}

	clientOpts := inf.clientOptions()

	if cfg.HasSecretRefs() {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: secretmanager.NewClient failed: %w", err)
		}
		inf.SecretManager = sm
		if err := cfg.ResolveSecrets(ctx, secrets.NewResolver(sm, cfg.FirestoreProjectID)); err != nil {
			inf.Close()
			return nil, fmt.Errorf("di.infra: %w", err)
		}
		inf.log.Info("secret references resolved")
	}

	if err := cfg.Validate(); err != nil {
		inf.Close()
		return nil, fmt.Errorf("di.infra: %w", err)
	}

	store, err := inf.openTokenStore(ctx, clientOpts)
	if err != nil {
		inf.Close()
		return nil, err
	}
	inf.TokenStore = store
	return inf, nil
}

func (inf *Infra) clientOptions() []option.ClientOption {
	credFile := strings.TrimSpace(inf.Config.FirestoreCredentialsFile)
	if credFile == "" {
		inf.log.Debug("using application default credentials")
		return nil
	}
	inf.log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	return []option.ClientOption{option.WithCredentialsFile(credFile)}
}

func (inf *Infra) openTokenStore(ctx context.Context, clientOpts []option.ClientOption) (authdom.TokenStore, error) {
	cfg := inf.Config
	switch cfg.TokenStore {
	case appcfg.TokenStoreMemory:
		inf.log.Warn("memory token store: sessions do not survive restarts")
		return tokenstore.NewMemory(cfg.TokenTTL), nil

	case appcfg.TokenStoreFile:
		s, err := tokenstore.NewFile(cfg.TokenStoreDir, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("di.infra: file token store: %w", err)
		}
		inf.log.Info("file token store", zap.String("dir", cfg.TokenStoreDir))
		return s, nil

	case appcfg.TokenStoreRedis:
		opts, err := redisOptions(cfg)
		if err != nil {
			return nil, fmt.Errorf("di.infra: redis options: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("di.infra: redis ping (addr=%s): %w", opts.Addr, err)
		}
		inf.Redis = client
		inf.log.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
		return tokenstore.NewRedis(client, cfg.TokenTTL), nil

	case appcfg.TokenStoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: firestore.NewClient failed (project=%s): %w", cfg.FirestoreProjectID, err)
		}
		inf.Firestore = client
		inf.log.Info("firestore connected", zap.String("project", cfg.FirestoreProjectID))
		return tokenstore.NewFirestore(client, cfg.TokenTTL), nil
	}
	return nil, fmt.Errorf("di.infra: unknown token store %q", cfg.TokenStore)
}

func redisOptions(cfg *appcfg.Config) (*redis.Options, error) {
	if u := strings.TrimSpace(cfg.RedisURL); u != "" {
		opts, err := redis.ParseURL(u)
		if err != nil {
			return nil, err
		}
		if opts.Password == "" {
			opts.Password = cfg.RedisPassword
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// Close releases every client that was opened.
func (inf *Infra) Close() {
	if inf == nil {
		return
	}
	if inf.Redis != nil {
		if err := inf.Redis.Close(); err != nil {
			inf.log.Warn("redis close", zap.Error(err))
		}
	}
	if inf.Firestore != nil {
		if err := inf.Firestore.Close(); err != nil {
			inf.log.Warn("firestore close", zap.Error(err))
		}
	}
	if inf.SecretManager != nil {
		if err := inf.SecretManager.Close(); err != nil {
			inf.log.Warn("secretmanager close", zap.Error(err))
		}
	}
}

// redactPath keeps only the file name.
func redactPath(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 && i+1 < len(p) {
		return ".../" + p[i+1:]
	}
	return p
}

// internal/domain/auth/repository_port.go
package auth

import "context"

// TokenStore is the durable storage for the bearer token, one key per session.
//   - Load returns ok=false (and nil error) when nothing is stored.
//   - Save overwrites.
//   - Delete on a missing key is not an error.
type TokenStore interface {
	Load(ctx context.Context, key string) (token string, ok bool, err error)
	Save(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
}

// Gateway is the backend's authentication surface.
// Refusals come back as *BusinessError, network problems as *TransportError.
type Gateway interface {
	ValidateEmail(ctx context.Context, email string) (exists bool, err error)
	SignIn(ctx context.Context, email, password string) (token string, err error)
	SignUp(ctx context.Context, name, email, password string) (token string, err error)
}

// internal/adapters/out/http/backend_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	authdom "b7pizza/internal/domain/auth"
	productdom "b7pizza/internal/domain/product"
)

// DefaultTimeout applies when the caller passes a non-positive timeout.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// BackendClient talks to the storefront backend (auth + catalog).
//
// Outcome mapping for the auth calls:
//   - 2xx with the expected body       -> value
//   - 2xx auth response without token  -> *auth.BusinessError (server "error" text, if any)
//   - non-2xx with {"error": "..."}    -> *auth.BusinessError
//   - anything else                    -> *auth.TransportError
//
// The catalog call reports every failure as *CallError.
type BackendClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

var (
	_ authdom.Gateway   = (*BackendClient)(nil)
	_ productdom.Source = (*BackendClient)(nil)
)

// baseURL example:
// - local: http://localhost:4000
// - deployed: https://api.b7pizza.example
func NewBackendClient(baseURL string, timeout time.Duration, log *zap.Logger) *BackendClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BackendClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.Named("backend_client"),
	}
}

// NewBackendClientWithHTTP is useful for tests.
func NewBackendClientWithHTTP(baseURL string, hc *http.Client, log *zap.Logger) *BackendClient {
	c := NewBackendClient(baseURL, 0, log)
	if hc != nil {
		c.client = hc
	}
	return c
}

// ============================================================
// Wire types
// ============================================================

type validateEmailRequest struct {
	Email string `json:"email"`
}

type validateEmailResponse struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// entries are decoded one by one so a single bad row cannot sink the list
type productsResponse struct {
	Pizzas []json.RawMessage `json:"pizzas"`
	Error  string            `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// CallError is a failed backend call. Message is set when the backend
// answered non-2xx with an {"error"} envelope; otherwise Err holds the cause.
type CallError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e == nil {
		return "backend: call failed"
	}
	switch {
	case e.Message != "":
		return fmt.Sprintf("backend: %s: status=%d: %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return "backend: " + e.Op + ": " + e.Err.Error()
	default:
		return "backend: " + e.Op + ": call failed"
	}
}

func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// authError maps a CallError onto the auth gateway's error taxonomy.
func authError(err error) error {
	var ce *CallError
	if !errors.As(err, &ce) {
		return &authdom.TransportError{Err: err}
	}
	if ce.Message != "" {
		return &authdom.BusinessError{Message: ce.Message}
	}
	return &authdom.TransportError{Op: ce.Op, Err: ce.Err}
}

// ============================================================
// Gateway
// ============================================================

func (c *BackendClient) ValidateEmail(ctx context.Context, email string) (bool, error) {
	var out validateEmailResponse
	if err := c.do(ctx, "validate_email", http.MethodPost, "/auth/validate_email", validateEmailRequest{Email: email}, &out); err != nil {
		return false, authError(err)
	}
	return out.Exists, nil
}

func (c *BackendClient) SignIn(ctx context.Context, email, password string) (string, error) {
	var out authResponse
	if err := c.do(ctx, "signin", http.MethodPost, "/auth/signin", signInRequest{Email: email, Password: password}, &out); err != nil {
		return "", authError(err)
	}
	return tokenOrRefusal(out)
}

func (c *BackendClient) SignUp(ctx context.Context, name, email, password string) (string, error) {
	var out authResponse
	in := signUpRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", in, &out); err != nil {
		return "", authError(err)
	}
	return tokenOrRefusal(out)
}

func tokenOrRefusal(out authResponse) (string, error) {
	tok := strings.TrimSpace(out.Token)
	if tok == "" {
		return "", &authdom.BusinessError{Message: strings.TrimSpace(out.Error)}
	}
	return tok, nil
}

// ============================================================
// Catalog
// ============================================================

// ListProducts fetches GET /pizzas. A missing list decodes as empty and
// entries that fail to decode are logged and skipped.
func (c *BackendClient) ListProducts(ctx context.Context) ([]productdom.Product, error) {
	var out productsResponse
	if err := c.do(ctx, "list_products", http.MethodGet, "/pizzas", nil, &out); err != nil {
		return nil, err
	}

	list := make([]productdom.Product, 0, len(out.Pizzas))
	for i, raw := range out.Pizzas {
		var p productdom.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			c.log.Warn("skipping undecodable product",
				zap.Int("index", i),
				zap.String("raw", truncate(string(raw), 128)),
				zap.Error(err),
			)
			continue
		}
		list = append(list, p)
	}
	return list, nil
}

// ============================================================
// Transport
// ============================================================

func (c *BackendClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if c == nil {
		return &CallError{Op: op, Err: errors.New("backend client is nil")}
	}
	if c.baseURL == "" {
		return &CallError{Op: op, Err: errors.New("backend baseURL is empty")}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &CallError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return &CallError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return &CallError{Op: op, Err: err}
	}

	c.log.Debug("response",
		zap.String("op", op),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && strings.TrimSpace(env.Error) != "" {
			return &CallError{Op: op, Status: res.StatusCode, Message: strings.TrimSpace(env.Error)}
		}
		return &CallError{
			Op:     op,
			Status: res.StatusCode,
			Err:    fmt.Errorf("status=%d body=%s", res.StatusCode, truncate(strings.TrimSpace(string(raw)), 256)),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CallError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

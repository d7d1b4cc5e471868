// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"strings"
	"sync"

	authdom "b7pizza/internal/domain/auth"
)

// fakeGateway is a scripted backend.
// When gate is set, every call blocks until it is closed (or ctx ends).
type fakeGateway struct {
	mu sync.Mutex

	existing map[string]bool

	signInToken string
	signInErr   error
	signUpToken string
	signUpErr   error
	validateErr error

	calls   map[string]int
	gate    chan struct{}
	entered chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		existing: map[string]bool{},
		calls:    map[string]int{},
	}
}

func (f *fakeGateway) record(op string) chan struct{} {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gate
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- op
	}
	return gate
}

func (f *fakeGateway) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &authdom.TransportError{Op: "wait", Err: ctx.Err()}
	}
}

func (f *fakeGateway) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeGateway) ValidateEmail(ctx context.Context, email string) (bool, error) {
	if err := f.wait(ctx, f.record("validate_email")); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return f.existing[strings.ToLower(email)], nil
}

func (f *fakeGateway) SignIn(ctx context.Context, email, password string) (string, error) {
	if err := f.wait(ctx, f.record("signin")); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInToken, f.signInErr
}

func (f *fakeGateway) SignUp(ctx context.Context, name, email, password string) (string, error) {
	if err := f.wait(ctx, f.record("signup")); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signUpToken, f.signUpErr
}

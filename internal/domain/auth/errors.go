// internal/domain/auth/errors.go
package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidSessionKey = errors.New("auth: invalid session key")
	ErrNilStore          = errors.New("auth: token store is nil")
)

// BusinessError is a refusal reported by the backend in its {error} envelope,
// or a success response that carried no token.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	if e == nil {
		return "auth: business error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return "auth: business error"
	}
	return "auth: " + msg
}

// TransportError wraps a network failure, a non-2xx status without an error
// envelope, or an undecodable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "auth: transport error"
	}
	op := strings.TrimSpace(e.Op)
	if op == "" {
		op = "request"
	}
	if e.Err == nil {
		return "auth: " + op + ": transport error"
	}
	return "auth: " + op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BusinessMessage returns the backend's message when err is a BusinessError.
func BusinessMessage(err error) (string, bool) {
	var be *BusinessError
	if !errors.As(err, &be) || be == nil {
		return "", false
	}
	msg := strings.TrimSpace(be.Message)
	return msg, msg != ""
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

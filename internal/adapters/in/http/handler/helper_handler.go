// internal/adapters/in/http/handler/helper_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"b7pizza/internal/adapters/in/http/middleware"
	"b7pizza/internal/platform/session"
)

const maxBodyBytes = 1 << 20

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// readJSON decodes a single JSON object and rejects unknown fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single object")
	}
	return nil
}

// storefront returns the request's storefront or writes a 500.
func storefront(w http.ResponseWriter, r *http.Request) (*session.Storefront, bool) {
	sf, ok := middleware.StorefrontFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusInternalServerError, "session_missing")
		return nil, false
	}
	return sf, true
}

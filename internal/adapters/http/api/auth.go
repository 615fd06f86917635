package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalKeyHeader carries the shared secret of internal callers.
const InternalKeyHeader = "X-Internal-Key"

// KeyAuth admits requests whose InternalKeyHeader equals the configured
// secret.
type KeyAuth struct {
	key []byte
}

// NewKeyAuth returns ErrNoInternalKey for an empty secret.
func NewKeyAuth(key string) (*KeyAuth, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNoInternalKey
	}
	return &KeyAuth{key: []byte(key)}, nil
}

// Require wraps next with the key check; a missing or wrong key gets 403.
func (a *KeyAuth) Require(next http.HandlerFunc) http.HandlerFunc {
	const op = "api.auth"
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(InternalKeyHeader))
		if subtle.ConstantTimeCompare(got, a.key) != 1 {
			writeError(w, http.StatusForbidden, "forbidden", NewKind(op, ErrForbidden))
			return
		}
		next(w, r)
	}
}

// Package auth supplies the bearer credential consumed at result-sync time.
// Token issuance and verification belong to the backend; this package only
// answers "is a usable credential present right now" and lets transports swap
// the credential in when a login lands mid-session.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// StaticTokenSource serves one fixed token, typically from config or env.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Credential(context.Context) (string, bool) {
	if !Usable(s.token) {
		return "", false
	}
	return s.token, true
}

// TokenHolder is a settable credential source for sessions whose user logs in
// after the session was created.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// Set installs a credential; an empty token clears it.
func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *TokenHolder) Credential(context.Context) (string, bool) {
	h.mu.RLock()
	token := h.token
	h.mu.RUnlock()
	if !Usable(token) {
		return "", false
	}
	return token, true
}

// Usable reports whether a token is worth presenting to the backend. JWTs with
// an elapsed exp claim are rejected locally to skip a doomed sync attempt;
// opaque tokens pass through, since the backend is the authority either way.
// The signature is deliberately not verified here.
func Usable(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT; let the backend decide.
		return true
	}
	return claims.VerifyExpiresAt(time.Now().Unix(), false)
}

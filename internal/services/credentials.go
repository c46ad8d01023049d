package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/skyplay/internal/models"
)

// Credentials persists the signed-in session.
//
// Load returns (nil, nil) when nobody is signed in.
type Credentials interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Clear(ctx context.Context) error
}

// MemoryCredentials keeps the session in process memory.
type MemoryCredentials struct {
	mu      sync.RWMutex
	session *models.Session
}

// NewMemoryCredentials creates an empty in-memory credential store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (m *MemoryCredentials) Load(_ context.Context) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	if cp.Token != nil {
		tok := *cp.Token
		cp.Token = &tok
	}
	return &cp, nil
}

func (m *MemoryCredentials) Save(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session == nil {
		m.session = nil
		return nil
	}
	cp := *session
	m.session = &cp
	return nil
}

func (m *MemoryCredentials) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// NewToken builds an [oauth2.Token] from an access/refresh pair.
//
// The expiry is read from the access token's exp claim without verifying the signature;
// the API remains the authority on validity.
func NewToken(access, refresh string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	if claims, ok := parseClaims(access); ok {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			tok.Expiry = exp.Time
		}
	}
	return tok
}

// TokenUserID returns the user_id claim of an access token, or "".
func TokenUserID(access string) string {
	claims, ok := parseClaims(access)
	if !ok {
		return ""
	}
	switch v := claims["user_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// TokenExpired reports whether tok has a known expiry in the past.
func TokenExpired(tok *oauth2.Token, now time.Time) bool {
	return tok != nil && !tok.Expiry.IsZero() && !tok.Expiry.After(now)
}

func parseClaims(access string) (jwt.MapClaims, bool) {
	if access == "" {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func describeSession(s *models.Session) string {
	if s == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", s.Username, s.UserID)
}

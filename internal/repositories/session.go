package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/skyplay/internal/models"
)

// Keys of the sessions table.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenExpiry  = "token_expiry"
	keyUserID       = "user_id"
	keyUsername     = "username"
	keyEmail        = "email"
)

var sessionKeys = []string{keyAccessToken, keyRefreshToken, keyTokenExpiry, keyUserID, keyUsername, keyEmail}

// SessionRepository stores the signed-in session as key-value rows.
//
// It satisfies services.Credentials so the catalog client can persist refreshed tokens.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load reads the stored session. Returns (nil, nil) when no access token is stored.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(sessionKeys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if values[keyAccessToken] == "" {
		return nil, nil
	}

	tok := &oauth2.Token{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
		TokenType:    "Bearer",
	}
	if exp := values[keyTokenExpiry]; exp != "" {
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return nil, fmt.Errorf("invalid stored token expiry %q: %w", exp, err)
		}
		tok.Expiry = t
	}

	return &models.Session{
		Token:    tok,
		UserID:   values[keyUserID],
		Username: values[keyUsername],
		Email:    values[keyEmail],
	}, nil
}

// Save replaces the stored session. A nil session clears it.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return r.Clear(ctx)
	}

	values := map[string]string{
		keyUserID:   session.UserID,
		keyUsername: session.Username,
		keyEmail:    session.Email,
	}
	if tok := session.Token; tok != nil {
		values[keyAccessToken] = tok.AccessToken
		values[keyRefreshToken] = tok.RefreshToken
		if !tok.Expiry.IsZero() {
			values[keyTokenExpiry] = tok.Expiry.UTC().Format(time.RFC3339)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	now := time.Now()
	for _, k := range sessionKeys {
		v, ok := values[k]
		if !ok || v == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (key, value, updated_at) VALUES (?, ?, ?)`, k, v, now); err != nil {
			return fmt.Errorf("failed to store %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Clear removes every stored credential.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

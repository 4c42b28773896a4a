package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository implements [models.Repository] on the oauth_tokens table.
//
// The table holds at most one row: Put replaces whatever was there.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get returns the cached token or [shared.ErrTokenNotFound].
func (r *TokenRepository) Get(ctx context.Context) (*models.TokenRecord, error) {
	query := `
		SELECT client_id, access_token, token_type, refresh_token, expiry, updated_at
		FROM oauth_tokens
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var (
		clientID     string
		accessToken  string
		tokenType    string
		refreshToken string
		expiry       sql.NullTime
		updatedAt    time.Time
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&clientID, &accessToken, &tokenType, &refreshToken, &expiry, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	token := &oauth2.Token{AccessToken: accessToken, TokenType: tokenType, RefreshToken: refreshToken}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return &models.TokenRecord{ClientID: clientID, Token: token, UpdatedAt: updatedAt}, nil
}

// Put replaces the cached token inside a single transaction.
func (r *TokenRepository) Put(ctx context.Context, rec *models.TokenRecord) error {
	if rec == nil || rec.Token == nil || rec.ClientID == "" {
		return fmt.Errorf("%w: token record requires a client id and token", shared.ErrInvalidArgument)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM oauth_tokens"); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	var expiry sql.NullTime
	if !rec.Token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: rec.Token.Expiry, Valid: true}
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO oauth_tokens (client_id, access_token, token_type, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		rec.ClientID, rec.Token.AccessToken, rec.Token.Type(), rec.Token.RefreshToken, expiry, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit token transaction: %w", err)
	}
	return nil
}

// Delete removes the cached token. Deleting an empty table is not an error.
func (r *TokenRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM oauth_tokens"); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

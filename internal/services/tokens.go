package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/repositories"
	"github.com/desertthunder/spotctl/internal/shared"
)

// TokenStore is a [models.Repository] that owns resources.
type TokenStore interface {
	models.Repository
	Close() error
}

// OpenTokenStore picks a driver for path: SQLite for .db/.sqlite paths and ":memory:", a JSON file otherwise.
func OpenTokenStore(ctx context.Context, path string) (TokenStore, error) {
	if path == "" {
		path = shared.DefaultTokenCachePath
	}
	if !shared.IsDatabasePath(path) {
		return NewFileTokenStore(path), nil
	}

	db, err := shared.NewDatabase(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate token cache: %w", err)
	}
	return &SQLTokenStore{TokenRepository: repositories.NewTokenRepository(db), db: db}, nil
}

// ResetTokenStore discards the cached token at path. SQLite caches have their schema rolled back and migrated again.
func ResetTokenStore(ctx context.Context, path string) error {
	if path == "" {
		path = shared.DefaultTokenCachePath
	}
	if !shared.IsDatabasePath(path) {
		return NewFileTokenStore(path).Delete(ctx)
	}

	db, err := shared.NewDatabase(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.ResetMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to reset token cache: %w", err)
	}
	return nil
}

// SQLTokenStore keeps the token in the oauth_tokens table.
type SQLTokenStore struct {
	*repositories.TokenRepository
	db *sql.DB
}

func (s *SQLTokenStore) Close() error {
	return s.db.Close()
}

// FileTokenStore keeps the token as a JSON document with mode 0600.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store backed by the file at path. The file is created on first Put.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Get returns the cached record, or [shared.ErrTokenNotFound] when the file is missing or unreadable.
func (s *FileTokenStore) Get(ctx context.Context) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, shared.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var rec models.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Token == nil {
		return nil, fmt.Errorf("%w: token cache %s is corrupt", shared.ErrTokenNotFound, s.path)
	}
	return &rec, nil
}

// Put atomically replaces the file.
func (s *FileTokenStore) Put(ctx context.Context, rec *models.TokenRecord) error {
	if rec == nil || rec.Token == nil || rec.ClientID == "" {
		return fmt.Errorf("%w: token record requires a client id and token", shared.ErrInvalidArgument)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return shared.WriteFileAtomic(s.path, data, 0600)
}

// Delete removes the file. A missing file is not an error.
func (s *FileTokenStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token cache: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Close() error { return nil }

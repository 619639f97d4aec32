package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sproutapp/sprout/internal/model"
)

// CreateAPIKey inserts a new API key record. The KeyHash must already be
// set by the caller; ID and CreatedAt are populated here.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.ID = newID()
	key.CreatedAt = now()

	const q = `INSERT INTO api_keys (id, user_id, key_hash, key_prefix, is_active, created_at)
		VALUES (:id, :user_id, :key_hash, :key_prefix, :is_active, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeyByHash looks up an API key by its SHA-256 hash.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.GetContext(ctx, &key, s.rebind("SELECT * FROM api_keys WHERE key_hash = ?"), hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return &key, nil
}

// ListAPIKeysForUser returns all keys belonging to a user, newest first.
func (s *Store) ListAPIKeysForUser(ctx context.Context, userID string) ([]model.APIKey, error) {
	var keys []model.APIKey
	const q = `SELECT * FROM api_keys WHERE user_id = ? ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &keys, s.rebind(q), userID); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKeyByHash marks a key inactive. Revoking an already-revoked key
// is a no-op; only an unknown hash yields ErrNotFound.
func (s *Store) RevokeAPIKeyByHash(ctx context.Context, hash string) error {
	const q = `UPDATE api_keys SET is_active = ? WHERE key_hash = ?`
	result, err := s.db.ExecContext(ctx, s.rebind(q), false, hash)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAPIKeyByPrefix marks the active key with the given display prefix
// inactive.
func (s *Store) RevokeAPIKeyByPrefix(ctx context.Context, prefix string) error {
	const q = `UPDATE api_keys SET is_active = ? WHERE key_prefix = ? AND is_active = ?`
	result, err := s.db.ExecContext(ctx, s.rebind(q), false, prefix, true)
	if err != nil {
		return fmt.Errorf("revoke api key by prefix: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed sets the last_used timestamp for an API key.
func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	const q = `UPDATE api_keys SET last_used = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, s.rebind(q), now(), id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update api key last used rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

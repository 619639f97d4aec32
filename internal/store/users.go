package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sproutapp/sprout/internal/model"
)

// CreateUser inserts a new user. When email is non-nil and a user with that
// email already exists, the existing user is returned instead of an error:
// two racing key generations for the same address must converge on one
// account rather than fail.
func (s *Store) CreateUser(ctx context.Context, email *string) (*model.User, error) {
	u := &model.User{
		ID:        newID(),
		Email:     email,
		CreatedAt: now(),
	}

	const q = `INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.rebind(q), u.ID, u.Email, u.CreatedAt)
	if err != nil {
		if email != nil && isUniqueViolation(err) {
			return s.GetUserByEmail(ctx, *email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE email = ?"), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// SetUserEmail attaches an email to a user that does not have one yet. The
// attachment happens exactly once: ErrEmailAlreadySet is returned on any
// later attempt, and ErrEmailTaken when another user holds the address.
func (s *Store) SetUserEmail(ctx context.Context, id, email string) error {
	const q = `UPDATE users SET email = ? WHERE id = ? AND email IS NULL`
	result, err := s.db.ExecContext(ctx, s.rebind(q), email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("set user email: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user email rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish "no such user" from "email already attached".
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
		return ErrEmailAlreadySet
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sproutapp/sprout/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("") // in-memory
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected non-empty ID after create")
	}
	if u.Email != nil {
		t.Errorf("expected nil email, got %q", *u.Email)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got ID %q, want %q", got.ID, u.ID)
	}
}

func TestCreateUserReusesEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, strPtr("fern@example.com"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Same email again returns the existing account instead of failing.
	second, err := s.CreateUser(ctx, strPtr("fern@example.com"))
	if err != nil {
		t.Fatalf("CreateUser (repeat): %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("got ID %q, want existing %q", second.ID, first.ID)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSetUserEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	if err := s.SetUserEmail(ctx, u.ID, "moss@example.com"); err != nil {
		t.Fatalf("SetUserEmail: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email == nil || *got.Email != "moss@example.com" {
		t.Errorf("email not set: %v", got.Email)
	}

	// Email can only be set once.
	err = s.SetUserEmail(ctx, u.ID, "other@example.com")
	if !errors.Is(err, ErrEmailAlreadySet) {
		t.Errorf("got %v, want ErrEmailAlreadySet", err)
	}
}

func TestSetUserEmailTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, strPtr("taken@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u := newTestUser(t, s)

	err := s.SetUserEmail(ctx, u.ID, "taken@example.com")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("got %v, want ErrEmailTaken", err)
	}
}

func TestSetUserEmailNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.SetUserEmail(context.Background(), "no-such-id", "x@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	key := &model.APIKey{
		UserID:    u.ID,
		KeyHash:   "deadbeef",
		KeyPrefix: "sprout_dead",
		IsActive:  true,
	}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	if key.ID == "" {
		t.Fatal("expected non-empty ID after create")
	}

	got, err := s.GetAPIKeyByHash(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("GetAPIKeyByHash: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("got user %q, want %q", got.UserID, u.ID)
	}
	if !got.IsActive {
		t.Error("expected key to be active")
	}
	if got.LastUsed != nil {
		t.Error("expected nil LastUsed on a fresh key")
	}

	if err := s.UpdateAPIKeyLastUsed(ctx, key.ID); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed: %v", err)
	}
	got, err = s.GetAPIKeyByHash(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("GetAPIKeyByHash: %v", err)
	}
	if got.LastUsed == nil {
		t.Error("expected LastUsed to be recorded")
	}

	if err := s.RevokeAPIKeyByHash(ctx, "deadbeef"); err != nil {
		t.Fatalf("RevokeAPIKeyByHash: %v", err)
	}
	got, err = s.GetAPIKeyByHash(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("GetAPIKeyByHash after revoke: %v", err)
	}
	if got.IsActive {
		t.Error("expected key to be inactive after revoke")
	}
}

func TestListAPIKeysForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	other := newTestUser(t, s)

	for i, hash := range []string{"aaa", "bbb"} {
		key := &model.APIKey{
			UserID:    u.ID,
			KeyHash:   hash,
			KeyPrefix: "sprout_" + hash,
			IsActive:  i == 0,
		}
		if err := s.CreateAPIKey(ctx, key); err != nil {
			t.Fatalf("CreateAPIKey: %v", err)
		}
	}
	if err := s.CreateAPIKey(ctx, &model.APIKey{UserID: other.ID, KeyHash: "ccc", KeyPrefix: "sprout_ccc", IsActive: true}); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	keys, err := s.ListAPIKeysForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListAPIKeysForUser: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	for _, k := range keys {
		if k.UserID != u.ID {
			t.Errorf("key %q belongs to %q, want %q", k.KeyPrefix, k.UserID, u.ID)
		}
	}
}

func TestRevokeAPIKeyByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	key := &model.APIKey{UserID: u.ID, KeyHash: "eee", KeyPrefix: "sprout_eee", IsActive: true}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	if err := s.RevokeAPIKeyByPrefix(ctx, "sprout_eee"); err != nil {
		t.Fatalf("RevokeAPIKeyByPrefix: %v", err)
	}
	got, err := s.GetAPIKeyByHash(ctx, "eee")
	if err != nil {
		t.Fatalf("GetAPIKeyByHash: %v", err)
	}
	if got.IsActive {
		t.Error("expected key to be inactive after revoke")
	}

	// A second revoke finds no active key.
	err = s.RevokeAPIKeyByPrefix(ctx, "sprout_eee")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

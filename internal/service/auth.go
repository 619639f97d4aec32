package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/store"
)

const (
	// TokenPrefix is the fixed literal prefix of every issued token. A
	// presented token that doesn't carry it is rejected before any lookup.
	TokenPrefix = "sprout_"

	// tokenEntropyBytes is the size of the random token suffix.
	tokenEntropyBytes = 32

	// keyPrefixLen is how many leading characters of the raw token are
	// kept in plaintext so users can tell their keys apart.
	keyPrefixLen = 14
)

// ErrInvalidToken covers every credential failure: wrong format, unknown
// hash, and revoked key all produce the same error so that responses leak
// nothing about which keys exist.
var ErrInvalidToken = errors.New("invalid or unknown API key")

// AuthService issues and verifies API keys. Raw tokens exist only
// transiently in memory; the store sees SHA-256 hashes and a short display
// prefix.
type AuthService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(st *store.Store, logger *slog.Logger) *AuthService {
	return &AuthService{store: st, logger: logger}
}

// GenerateToken returns a fresh high-entropy token: the fixed prefix
// followed by 256 random bits in hex. Collisions are treated as negligible
// and not checked.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(buf), nil
}

// HashToken returns the hex-encoded SHA-256 hash of a raw token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Issue generates a token for userID, persists its hash and display
// prefix, and returns the plaintext. This is the only moment the plaintext
// is ever available.
func (s *AuthService) Issue(ctx context.Context, userID string) (string, *model.APIKey, error) {
	raw, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	key := &model.APIKey{
		UserID:    userID,
		KeyHash:   HashToken(raw),
		KeyPrefix: raw[:keyPrefixLen],
		IsActive:  true,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("store api key: %w", err)
	}
	return raw, key, nil
}

// Resolve maps a presented token to its user. It fails with
// ErrInvalidToken for malformed, unknown, or revoked tokens alike; storage
// failures propagate as-is so callers can answer 500 rather than 401. On
// success the key's last-used timestamp is recorded asynchronously —
// failing to record it never fails the authentication.
func (s *AuthService) Resolve(ctx context.Context, raw string) (*model.User, error) {
	if !strings.HasPrefix(raw, TokenPrefix) {
		return nil, ErrInvalidToken
	}

	key, err := s.store.GetAPIKeyByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up api key: %w", err)
	}
	if !key.IsActive {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up key owner: %w", err)
	}

	go func() {
		if err := s.store.UpdateAPIKeyLastUsed(context.Background(), key.ID); err != nil {
			s.logger.Warn("failed to record key last-used", "key_prefix", key.KeyPrefix, "error", err)
		}
	}()

	return user, nil
}

// Revoke marks a credential inactive. It accepts either a raw token or a
// stored hash; revoking an already-revoked credential is a no-op.
func (s *AuthService) Revoke(ctx context.Context, tokenOrHash string) error {
	hash := tokenOrHash
	if strings.HasPrefix(tokenOrHash, TokenPrefix) {
		hash = HashToken(tokenOrHash)
	}
	if err := s.store.RevokeAPIKeyByHash(ctx, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

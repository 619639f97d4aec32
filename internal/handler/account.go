package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
	"github.com/sproutapp/sprout/internal/store"
)

// AccountHandler serves the identity endpoints: key issuance, account
// introspection, and email attachment.
type AccountHandler struct {
	store *store.Store
	auth  *service.AuthService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(st *store.Store, auth *service.AuthService) *AccountHandler {
	return &AccountHandler{store: st, auth: auth}
}

// generateKeyRequest is the optional payload for the GenerateKey endpoint.
type generateKeyRequest struct {
	Email string `json:"email"`
}

// generateKeyResponse returns the new identity and its credential. The
// apiKey field is the only time the plaintext token is ever visible.
type generateKeyResponse struct {
	UserID    string  `json:"userId"`
	Email     *string `json:"email,omitempty"`
	APIKey    string  `json:"apiKey"`
	KeyPrefix string  `json:"keyPrefix"`
}

// GenerateKey creates (or, by email, finds) a user and issues a fresh API
// key for them. The raw key is returned once and cannot be retrieved again.
// POST /generate-key — the one unauthenticated mutation in the system.
func (h *AccountHandler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	var req generateKeyRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var email *string
	if e := strings.TrimSpace(req.Email); e != "" {
		email = &e
	}

	user, err := h.store.CreateUser(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	rawKey, key, err := h.auth.Issue(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue API key")
		return
	}

	writeJSON(w, http.StatusCreated, generateKeyResponse{
		UserID:    user.ID,
		Email:     user.Email,
		APIKey:    rawKey,
		KeyPrefix: key.KeyPrefix,
	})
}

// meKey is the non-secret view of a credential shown to its owner.
type meKey struct {
	KeyPrefix string     `json:"keyPrefix"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
}

// meResponse is the account introspection payload.
type meResponse struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Keys      []meKey   `json:"keys"`
}

// Me returns the authenticated user together with the display prefixes and
// timestamps of their keys. Hashes never leave the store.
// GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := service.IdentityFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	keys, err := h.store.ListAPIKeysForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	resp := meResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Keys:      make([]meKey, len(keys)),
	}
	for i, k := range keys {
		resp.Keys[i] = meKey{
			KeyPrefix: k.KeyPrefix,
			IsActive:  k.IsActive,
			CreatedAt: k.CreatedAt,
			LastUsed:  k.LastUsed,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// addEmailRequest is the payload for the AddEmail endpoint.
type addEmailRequest struct {
	Email string `json:"email"`
}

// AddEmail attaches an email address to the authenticated user. The
// attachment happens exactly once; repeat attempts and addresses held by
// another account both answer 409.
// POST /add-email
func (h *AccountHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	user := service.IdentityFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req addEmailRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	if err := h.store.SetUserEmail(r.Context(), user.ID, email); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailAlreadySet):
			writeError(w, http.StatusConflict, "An email is already attached to this account")
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, http.StatusConflict, "That email is already in use")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to attach email")
		}
		return
	}

	writeJSON(w, http.StatusOK, model.User{
		ID:        user.ID,
		Email:     &email,
		CreatedAt: user.CreatedAt,
	})
}

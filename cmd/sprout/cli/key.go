package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
	"github.com/sproutapp/sprout/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys that identify plant owners.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		email  string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long: "Generate a new API key. With --user the key is added to an existing " +
			"account; otherwise a new account is created (reusing the account " +
			"matching --email when one exists). The raw key is shown once and " +
			"cannot be retrieved again.",
		Example: `  sprout key create
  sprout key create --email fern@example.com
  sprout key create --user 0190cb2e-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(email, userID)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to associate with the account")
	cmd.Flags().StringVar(&userID, "user", "", "Existing user id to issue the key for")

	return cmd
}

func runKeyCreate(email, userID string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	logger := discardLogger()
	authSvc := service.NewAuthService(st, logger)

	var user *model.User
	if userID != "" {
		user, err = st.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user %q not found", userID)
			}
			return fmt.Errorf("look up user: %w", err)
		}
	} else {
		var emailPtr *string
		if email != "" {
			emailPtr = &email
		}
		user, err = st.CreateUser(ctx, emailPtr)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	}

	rawKey, key, err := authSvc.Issue(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue api key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Println()
	fmt.Printf("  Key:    %s\n", rawKey)
	fmt.Printf("  Prefix: %s\n", key.KeyPrefix)
	fmt.Printf("  User:   %s\n", user.ID)
	if user.Email != nil {
		fmt.Printf("  Email:  %s\n", *user.Email)
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		userID     string
		email      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List a user's API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(userID, email, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id to list keys for")
	cmd.Flags().StringVar(&email, "email", "", "Account email to list keys for")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(userID, email string, jsonOutput bool) error {
	if userID == "" && email == "" {
		return fmt.Errorf("pass --user or --email to identify the account")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if userID == "" {
		user, err := st.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no account with email %q", email)
			}
			return fmt.Errorf("look up account: %w", err)
		}
		userID = user.ID
	}

	keys, err := st.ListAPIKeysForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	type keyRow struct {
		Prefix   string `json:"prefix"`
		Active   bool   `json:"active"`
		Created  string `json:"created"`
		LastUsed string `json:"lastUsed,omitempty"`
	}

	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{
			Prefix:  k.KeyPrefix,
			Active:  k.IsActive,
			Created: k.CreatedAt.Format("2006-01-02 15:04"),
		}
		if k.LastUsed != nil {
			rows[i].LastUsed = k.LastUsed.Format("2006-01-02 15:04")
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No API keys for this account. Use 'sprout key create' to create one.")
		return nil
	}

	fmt.Printf("%-16s %-8s %-18s %-18s\n", "PREFIX", "ACTIVE", "CREATED", "LAST USED")
	fmt.Printf("%-16s %-8s %-18s %-18s\n", "------", "------", "-------", "---------")
	for _, k := range rows {
		active := "yes"
		if !k.Active {
			active = "no"
		}
		lastUsed := k.LastUsed
		if lastUsed == "" {
			lastUsed = "never"
		}
		fmt.Printf("%-16s %-8s %-18s %-18s\n", k.Prefix, active, k.Created, lastUsed)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its display prefix",
		Long:  "Deactivate an API key, preventing any further authenticated requests using that key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.RevokeAPIKeyByPrefix(context.Background(), prefix); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no active API key with prefix %q", prefix)
		}
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", prefix)
	return nil
}

package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/sproutapp/sprout/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// SPROUT_DATA_DIR env var, or ~/.sprout as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("SPROUT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.sprout"
}

// resolveDSN returns the configured database DSN, defaulting to a SQLite
// file inside the data directory.
func resolveDSN() (string, error) {
	if dsn := viper.GetString("db.dsn"); dsn != "" {
		return dsn, nil
	}
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "sprout.db"), nil
}

// openStore opens the plant store at the configured DSN.
func openStore() (*store.Store, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, err
	}
	return store.Open(dsn)
}

// discardLogger returns a logger for commands whose output should stay
// clean for scripting.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/store"
	"github.com/kozaktomas/tag-search/internal/store/postgres"
	"github.com/kozaktomas/tag-search/internal/store/sqlite"
)

// scopeFlag reads the repeatable --scope flag. No flag means the whole
// collection.
func scopeFlag(cmd *cobra.Command) store.Scope {
	dirs := mustGetStringSlice(cmd, "scope")
	if len(dirs) == 0 {
		return store.Everywhere
	}
	return store.Scope(dirs)
}

// openStore opens the configured backend. PostgreSQL is used when
// DATABASE_URL is set, otherwise the local SQLite file.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL != "" {
		s, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL store: %w", err)
		}
		return s, nil
	}

	s, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite store %q: %w", cfg.Database.SQLitePath, err)
	}
	return s, nil
}

package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mine/internal/config"
	"github.com/roach88/mine/internal/item"
	"github.com/roach88/mine/internal/repository"
	"github.com/roach88/mine/internal/store"
)

// session is the per-invocation wiring from config to the item store.
type session struct {
	provider *store.Provider
	items    *repository.Store[item.Item]
}

// loadConfig merges the config file, environment and global flags.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.FindPath(opts.ConfigPath))
	if err != nil {
		return nil, err
	}

	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging installs the process-wide slog handler.
func configureLogging(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// openSession loads config and opens the item store. Failures are written
// through formatter and returned as ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, formatter *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		msg := "failed to load config"
		if errors.Is(err, config.ErrInvalid) {
			msg = "invalid config"
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, msg, err)
	}

	configureLogging(formatter.GetErrWriter(), cfg.SlogLevel())
	formatter.VerboseLog("Using database %s", cfg.Database.Path)

	provider := store.NewProvider(cfg.StoreOptions())
	db, err := provider.DB(ctx)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}

	items, err := repository.New(ctx, db, store.NewInitializer(db), item.Mapping)
	if err != nil {
		_ = provider.Close()
		return nil, formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to prepare item table", err)
	}

	return &session{provider: provider, items: items}, nil
}

func (s *session) Close() {
	if err := s.provider.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

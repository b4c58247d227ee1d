// Command shelfctl administers a Shelfdesk database: schema migrations,
// users, API keys and the book catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shelfdesk/shelfdesk/internal/config"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// app carries the state shared by subcommands once the root command has
// loaded configuration.
type app struct {
	envFiles []string
	cfg      *config.CLIConfig
	logger   *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "shelfctl",
		Short:         "Administer a Shelfdesk library database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	root.AddCommand(
		newMigrateCmd(a),
		newUserCmd(a),
		newKeyCmd(a),
		newBookCmd(a),
	)
	return root
}

func (a *app) load(logOut io.Writer) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = config.Log{Level: cfg.LogLevel, Format: "text"}.NewLogger(logOut)
	return nil
}

// withRepo opens the database for the duration of fn.
func (a *app) withRepo(ctx context.Context, fn func(repo *repository.Repository) error) error {
	repo, err := repository.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()
	return fn(repo)
}

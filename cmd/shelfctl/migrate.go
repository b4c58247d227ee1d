package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfdesk/shelfdesk/internal/repository"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.AddCommand(
		migrateDirectionCmd(a, repository.MigrateUp, "Apply every migration in order"),
		migrateDirectionCmd(a, repository.MigrateDown, "Roll back every migration in reverse order"),
	)
	return cmd
}

func migrateDirectionCmd(a *app, direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd.Context(), func(repo *repository.Repository) error {
				applied, err := repo.Migrate(cmd.Context(), direction)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range applied {
					fmt.Fprintln(out, name)
				}
				fmt.Fprintf(out, "%d migration(s) applied (%s)\n", len(applied), direction)
				return nil
			})
		},
	}
}

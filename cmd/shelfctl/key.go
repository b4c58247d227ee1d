package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newKeyIssueCmd(a))
	return cmd
}

func newKeyIssueCmd(a *app) *cobra.Command {
	var (
		input  service.IssueKeyInput
		format string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an API key for a user and print it once",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return checkFormat(format)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd.Context(), func(repo *repository.Repository) error {
				created, err := service.NewKeyService(repo, a.logger).Issue(cmd.Context(), input)
				if err != nil {
					return err
				}
				return printKey(cmd, format, created)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.UserID, "user-id", "", "owner of the key")
	f.StringVar(&input.Name, "name", "", "label for the key")
	f.StringSliceVar(&input.Scopes, "scopes", []string{model.ScopeRead, model.ScopeWrite},
		"comma-separated scopes ("+strings.Join(model.ValidScopes, ",")+")")
	f.StringVar(&input.Tier, "tier", model.TierFree, "rate limit tier (free, pro, unlimited)")
	f.StringVar(&format, "format", "plain", "output format: plain or json")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "plain", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q; use plain or json", format)
	}
}

func printKey(cmd *cobra.Command, format string, created *model.APIKeyCreateResponse) error {
	out := cmd.OutOrStdout()
	if strings.ToLower(format) == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(created)
	}
	fmt.Fprintln(out, created.Key)
	fmt.Fprintf(cmd.ErrOrStderr(), "key %s (%s) scopes=%s; store it now, it will not be shown again\n",
		created.ID, created.KeyPrefix, strings.Join(created.Scopes, ","))
	return nil
}

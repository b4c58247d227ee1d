package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage library users",
	}
	cmd.AddCommand(newUserCreateCmd(a))
	return cmd
}

func newUserCreateCmd(a *app) *cobra.Command {
	var (
		input          service.CreateUserInput
		promptPassword bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if promptPassword && input.Password == "" {
				pw, err := readPassword(cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
				input.Password = pw
			}

			return a.withRepo(cmd.Context(), func(repo *repository.Repository) error {
				user, err := service.NewAccountService(repo, a.logger).CreateUser(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Email, "email", "", "user email (login for basic auth)")
	f.StringVar(&input.Name, "name", "", "display name")
	f.StringVar(&input.Password, "password", "", "password; omit for a key-only user")
	f.BoolVar(&promptPassword, "prompt-password", false, "read the password from the terminal without echo")
	f.StringVar(&input.Role, "role", model.RoleReader, "reader or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readPassword reads a masked password when stdin is a terminal.
func readPassword(prompt io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--prompt-password requires an interactive terminal")
	}
	fmt.Fprint(prompt, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

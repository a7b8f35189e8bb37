package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/and161185/casebuddy/internal/errs"
)

func newSignupCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := a.accounts.Signup(cmd.Context(), args[0], pw); err != nil {
				if errors.Is(err, errs.ErrAlreadyExists) {
					return fmt.Errorf("username %q is taken", strings.TrimSpace(args[0]))
				}
				return err
			}
			a.account = strings.TrimSpace(args[0])
			cmd.Printf("Signed up and logged in as %s.\n", a.account)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.readPassword(cmd, password)
			if err != nil {
				return err
			}
			switch err := a.accounts.Login(cmd.Context(), args[0], pw); {
			case errors.Is(err, errs.ErrRateLimited):
				return errors.New("too many failed attempts, try again later")
			case errors.Is(err, errs.ErrUnauthorized):
				return errors.New("invalid username or password")
			case err != nil:
				return err
			}
			a.account = strings.TrimSpace(args[0])
			cases, _ := a.cases.Snapshot()
			cmd.Printf("Logged in as %s (%d cases).\n", a.account, len(cases))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			a.account = ""
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.account == "" {
				cmd.Println("Not logged in.")
				return nil
			}
			cmd.Println(a.account)
			return nil
		},
	}
}

// readPassword returns the flag value, or prompts: through liner inside the shell,
// without echo on a terminal, or as a plain line from piped input.
func (a *app) readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.line != nil {
		return a.line.PasswordPrompt("Password: ")
	}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print("Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		return string(b), err
	}
	s, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && s == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(s, "\r\n"), nil
}

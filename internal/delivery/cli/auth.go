package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/store"
)

type credentialOptions struct {
	*RootOptions
	Username string
	Email    string
	Password string
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, e *env) error {
				if opts.Username == "" || opts.Password == "" {
					return fmt.Errorf("%w: username and password are required", resource.ErrValidation)
				}

				res, err := e.app.Session.Login(ctx, resource.CredentialsLogin{
					Username: opts.Username,
					Password: opts.Password,
				})
				if err != nil {
					return err
				}

				return e.out.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "Signed in as %s (%s)\n", res.User.Username, res.User.Role)
					fmt.Fprintf(w, "Next: %s\n", res.Route)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "password")

	return cmd
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				if err := e.app.Session.Logout(ctx); err != nil {
					return err
				}
				return e.out.Success(map[string]bool{"signedIn": false}, func(w io.Writer) {
					fmt.Fprintln(w, "Signed out")
				})
			})
		},
	}
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, e *env) error {
				if opts.Username == "" || opts.Password == "" || opts.Email == "" {
					return fmt.Errorf("%w: username, email and password are required", resource.ErrValidation)
				}

				resp, err := e.app.Session.Register(ctx, resource.Credentials{
					Username: opts.Username,
					Email:    opts.Email,
					Password: opts.Password,
				})
				if err != nil {
					return err
				}

				return e.out.Success(resp, func(w io.Writer) {
					fmt.Fprintln(w, resp.Message)
					fmt.Fprintln(w, "Next: vinabook login")
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "password")

	return cmd
}

type whoami struct {
	SignedIn  bool           `json:"signedIn"`
	User      *resource.User `json:"user,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	Expired   bool           `json:"expired,omitempty"`
}

func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				var view whoami
				if u, ok := e.app.Session.User(); ok {
					view.SignedIn = true
					view.User = &u
				}

				claims, err := e.app.Session.Claims(ctx)
				switch {
				case errors.Is(err, store.ErrNotFound):
				case err != nil:
					e.out.VerboseLog("token is not a readable JWT: %v", err)
				case !claims.ExpiresAt.IsZero():
					view.ExpiresAt = &claims.ExpiresAt
					view.Expired = claims.Expired(time.Now())
				}

				return e.out.Success(view, func(w io.Writer) {
					if !view.SignedIn {
						fmt.Fprintln(w, "Not signed in")
						return
					}
					fmt.Fprintf(w, "Username:\t%s\n", view.User.Username)
					fmt.Fprintf(w, "Email:\t%s\n", view.User.Email)
					fmt.Fprintf(w, "Role:\t%s\n", view.User.Role)
					if view.ExpiresAt != nil {
						fmt.Fprintf(w, "Token expires:\t%s\n", view.ExpiresAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}

// Package cli implements authctl, a terminal client for the TaskFlow auth
// API. The refresh token is kept in a file between runs so "me" keeps
// working after the access token expires.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

const usage = `usage: authctl [flags] <command>

commands:
  signup            create an account and sign in
  login             sign in
  me                show the signed-in user
  logout            sign out and revoke the stored session
  forgot-password   request a password reset link
  reset-password    set a new password from a reset token
  health            check the API

flags:
`

// App wires the SDK to a terminal.
type App struct {
	In     *bufio.Reader
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
}

// New returns an App on the process's standard streams.
func New() *App {
	return &App{
		In:     bufio.NewReader(os.Stdin),
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: slogx.Discard(),
	}
}

// DefaultSessionFile is where the refresh token is kept between runs.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "taskflow", "session.json")
}

// Run parses args (without the program name) and executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	baseURL := fs.String("url", envOr("TASKFLOW_URL", "http://localhost:3001"), "API base URL")
	sessionFile := fs.String("session", DefaultSessionFile(), "file holding the refresh token")
	fs.Usage = func() {
		fmt.Fprint(a.Err, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one command")
	}

	client := authsdk.NewSDKClient(*baseURL)
	session := authsdk.NewSession(client, authsdk.NewFileTokenStore(*sessionFile),
		authsdk.WithLogger(a.Logger),
		authsdk.WithSessionEndedHook(func(err error) {
			if err != nil {
				fmt.Fprintln(a.Err, "session ended, run `authctl login` again")
			}
		}),
	)
	defer session.Close()

	switch cmd := fs.Arg(0); cmd {
	case "signup":
		return a.signup(ctx, session)
	case "login":
		return a.login(ctx, session)
	case "me":
		return a.me(ctx, session)
	case "logout":
		if err := session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "Logged out")
		return nil
	case "forgot-password":
		return a.forgotPassword(ctx, client)
	case "reset-password":
		return a.resetPassword(ctx, client)
	case "health":
		health, err := client.Health(ctx)
		if err != nil {
			return err
		}
		return a.print(health)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) signup(ctx context.Context, s *authsdk.Session) error {
	name, err := prompt(a.In, a.Out, "Name")
	if err != nil {
		return err
	}
	email, err := prompt(a.In, a.Out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.In, a.Out, "Password")
	if err != nil {
		return err
	}

	user, err := s.Signup(ctx, authsdk.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Signed up as %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *App) login(ctx context.Context, s *authsdk.Session) error {
	email, err := prompt(a.In, a.Out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.In, a.Out, "Password")
	if err != nil {
		return err
	}

	user, err := s.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *App) me(ctx context.Context, s *authsdk.Session) error {
	// A fresh process has no access token; the stored refresh token gets one.
	if _, err := s.Resume(ctx); err != nil {
		return err
	}
	user, err := s.Me(ctx)
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *App) forgotPassword(ctx context.Context, c *authsdk.SDKClient) error {
	email, err := prompt(a.In, a.Out, "Email")
	if err != nil {
		return err
	}
	resp, err := c.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, resp.Message)
	return nil
}

func (a *App) resetPassword(ctx context.Context, c *authsdk.SDKClient) error {
	token, err := prompt(a.In, a.Out, "Reset token")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.In, a.Out, "New password")
	if err != nil {
		return err
	}
	resp, err := c.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, resp.Message)
	return nil
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

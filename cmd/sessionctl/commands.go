package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-session-gateway/authclient"
	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/internal/logging"
	"github.com/jrsteele09/go-session-gateway/login"
	"github.com/jrsteele09/go-session-gateway/sessions"
	"github.com/jrsteele09/go-session-gateway/sessions/filestore"
)

const passwordEnvVar = "SESSIONCTL_PASSWORD"

// app holds what every command needs once flags and configuration are read.
type app struct {
	cfg      config.Config
	dir      string
	upstream string
	store    *filestore.Store
	session  *sessions.Manager
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Sign in to the payroll API and call it with the stored session",
		Long: `sessionctl keeps a payroll API session on disk and attaches its bearer
token to every request. When the API rejects the token the stored session is
removed and you are asked to sign in again.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.dir, "dir", "", "session directory (default $FOLDER/sessions)")
	root.PersistentFlags().StringVar(&a.upstream, "upstream", "", "payroll API base URL (default $UPSTREAM_URL)")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.getCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())
	a.cfg = cfg

	if a.dir == "" {
		a.dir = filepath.Join(cfg.GetDataFolder(), "sessions")
	}
	if a.upstream == "" {
		a.upstream = cfg.GetUpstreamURL()
	}
	a.upstream = strings.TrimSuffix(a.upstream, "/")

	if a.store, err = filestore.New(a.dir); err != nil {
		return err
	}
	a.session = sessions.NewManager(a.store, cfg.GetStorageKey())
	return nil
}

// upstreamOverride points the token endpoint at the --upstream URL.
type upstreamOverride struct {
	config.UpstreamConfig
	url string
}

func (u upstreamOverride) GetUpstreamURL() string { return u.url }
func (u upstreamOverride) GetTokenURL() string    { return u.url + "/oauth2/token" }

// loginPrompt navigates by telling the user how to sign in again.
func loginPrompt(w io.Writer) authclient.Navigator {
	return authclient.NavigatorFunc(func(_ context.Context, path string) {
		fmt.Fprintf(w, "Session ended (%s). Sign in again with: sessionctl login --email <email>\n", path)
	})
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password. The password is taken from --password,
then $SESSIONCTL_PASSWORD, then the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			var upstream config.UpstreamConfig = a.cfg
			if a.upstream != a.cfg.GetUpstreamURL() {
				upstream = upstreamOverride{UpstreamConfig: a.cfg, url: a.upstream}
			}
			identity, err := login.NewAuthenticator(upstream).Login(cmd.Context(), a.session, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", displayName(identity.Name, identity.Email), identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	if password := os.Getenv(passwordEnvVar); password != "" {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.describeSession(cmd.Context()))
			return nil
		},
	}
}

func (a *app) describeSession(ctx context.Context) string {
	if _, ok := a.session.Token(ctx); !ok {
		return "Not signed in"
	}
	identity, ok := a.session.Identity(ctx)
	if !ok {
		return "Signed in"
	}
	return fmt.Sprintf("Signed in as %s (%s)", displayName(identity.Name, identity.Email), identity.Role)
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path with the stored session, e.g. /api/employees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			client := authclient.New(a.upstream, a.session, loginPrompt(cmd.ErrOrStderr()), a.cfg.GetLoginPath(), a.cfg.GetHTTPTimeout())
			raw, err := client.Raw(cmd.Context(), path)
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, raw, "", "  "); err != nil {
				out.Reset()
				out.Write(raw)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report every sign-in and sign-out of the stored session until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.describeSession(ctx))
			return a.store.Watch(ctx, a.session.Key(), func() {
				fmt.Fprintln(out, a.describeSession(ctx))
			})
		},
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

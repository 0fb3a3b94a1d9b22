package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	authclient "github.com/goliatone/go-auth-client"
	clientrepo "github.com/goliatone/go-auth-client/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyOrigin      = "origin"
	keyStore       = "store"
	keyTimeout     = "timeout"
	keyTokenPolicy = "token-policy"
	keyJWKSURL     = "jwks-url"
	keyDebug       = "debug"
	keyEmail       = "email"
	keyPassword    = "password"

	loginLocation = "/login"
)

// errReported is returned once the failure has already been printed.
var errReported = goerrors.New("authctl: command failed", goerrors.CategoryCommand)

func main() {
	cmd := newRootCommand(viper.New(), os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !goerrors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCommand(v *viper.Viper, in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{v: v, in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Sign in to the authentication API from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.String(keyOrigin, "http://localhost:5000", "origin serving the login page, the API lives under /api")
	flags.String(keyStore, "", "SQLite DSN for the session store (default under the user config dir)")
	flags.Duration(keyTimeout, 10*time.Second, "API request timeout")
	flags.String(keyTokenPolicy, string(authclient.TokenPolicyPresence), "stored token check (presence|expiry|verify)")
	flags.String(keyJWKSURL, "", "JWKS endpoint for the verify token policy")
	flags.Bool(keyDebug, false, "verbose logging on stderr")
	mustBind(v, flags, keyOrigin, keyStore, keyTimeout, keyTokenPolicy, keyJWKSURL, keyDebug)

	v.SetEnvPrefix("AUTHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(
		c.loginCommand(),
		c.googleCommand(),
		c.callbackCommand(),
		c.statusCommand(),
		c.logoutCommand(),
	)
	return cmd
}

func (c *cli) loginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := strings.TrimSpace(c.v.GetString(keyEmail))
			password := c.v.GetString(keyPassword)

			if password == "" {
				p, err := c.prompt("Password: ")
				if err != nil {
					return err
				}
				password = p
			}

			return c.run(cmd.Context(), loginLocation, func(ctx context.Context, client *authclient.AuthClient, _ *terminalPage) error {
				client.SubmitCredentials(ctx, email, password)
				return nil
			})
		},
	}
	cmd.Flags().String(keyEmail, "", "account email")
	cmd.Flags().String(keyPassword, "", "account password, prompted when empty")
	mustBind(c.v, cmd.Flags(), keyEmail, keyPassword)
	return cmd
}

func (c *cli) googleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Print the Google sign in URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), loginLocation, func(ctx context.Context, client *authclient.AuthClient, _ *terminalPage) error {
				client.InitiateExternalSignIn(ctx)
				return nil
			})
		},
	}
}

func (c *cli) callbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <url>",
		Short: "Finish a Google sign in from the URL the browser landed on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), args[0], func(ctx context.Context, client *authclient.AuthClient, page *terminalPage) error {
				if page.QueryParams().Get("token") == "" && page.QueryParams().Get("needs_registration") == "" {
					if code := page.QueryParams().Get("error"); code != "" {
						return goerrors.New("sign in failed: "+code, goerrors.CategoryAuth).
							WithCode(goerrors.CodeUnauthorized).
							WithMetadata(map[string]any{"provider_error": code})
					}
					return goerrors.New("callback url carries no token", goerrors.CategoryBadInput).
						WithTextCode(authclient.TextCodeMissingToken).
						WithCode(goerrors.CodeBadRequest)
				}
				client.CompleteOAuthCallback(ctx)
				return nil
			})
		},
	}
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), loginLocation, func(ctx context.Context, client *authclient.AuthClient, _ *terminalPage) error {
				if !client.CheckExistingSession(ctx) {
					fmt.Fprintln(c.out, "not signed in")
					return errReported
				}

				session, err := client.Sessions().Load()
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, print.MaybePrettyJSON(session.User))
				return nil
			})
		},
	}
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), loginLocation, func(_ context.Context, client *authclient.AuthClient, _ *terminalPage) error {
				client.Logout()
				return nil
			})
		},
	}
}

type action func(ctx context.Context, client *authclient.AuthClient, page *terminalPage) error

// run builds a client for a page at location, backed by the session store,
// and reports an error when the action ends on an error alert.
func (c *cli) run(ctx context.Context, location string, fn action) error {
	page, err := newTerminalPage(c.out, location)
	if err != nil {
		return err
	}

	logger := c.logger()

	dsn, err := c.storeDSN()
	if err != nil {
		return err
	}

	db, err := clientrepo.OpenSQLite(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	storage := clientrepo.NewLocalStorage(db, clientrepo.WithLogger(logger))
	if err := storage.Migrate(ctx); err != nil {
		return err
	}

	client, err := authclient.New(c.config(), page, storage,
		authclient.WithLogger(logger),
		authclient.WithScheduler(immediateScheduler{}),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := fn(ctx, client, page); err != nil {
		return err
	}

	if page.failed() {
		return errReported
	}
	return nil
}

func (c *cli) config() authclient.Config {
	cfg := authclient.DefaultConfig(c.v.GetString(keyOrigin))
	cfg.RequestTimeout = c.v.GetDuration(keyTimeout)
	cfg.TokenPolicy = authclient.TokenPolicy(strings.ToLower(c.v.GetString(keyTokenPolicy)))
	cfg.JWKSURL = c.v.GetString(keyJWKSURL)
	cfg.Debug = c.v.GetBool(keyDebug)
	return cfg
}

func (c *cli) logger() authclient.Logger {
	if !c.v.GetBool(keyDebug) {
		return authclient.NopLogger{}
	}
	return &cliLogger{w: c.errOut}
}

func (c *cli) storeDSN() (string, error) {
	if dsn := strings.TrimSpace(c.v.GetString(keyStore)); dsn != "" {
		return dsn, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve config dir")
	}
	dir = filepath.Join(dir, "authctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session store dir").
			WithMetadata(map[string]any{"dir": dir})
	}
	return "file:" + filepath.Join(dir, "session.db"), nil
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.errOut, label)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !goerrors.Is(err, io.EOF) {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func mustBind(v *viper.Viper, flags *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		flag := flags.Lookup(key)
		if flag == nil {
			panic(fmt.Sprintf("flag for key %s not found", key))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

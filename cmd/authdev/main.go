package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-auth-client/devserver"
	clientrepo "github.com/goliatone/go-auth-client/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyConfig         = "config"
	keyAddr           = "addr"
	keyDatabase       = "db"
	keyFrontendURL    = "frontend-url"
	keySigningKey     = "signing-key"
	keyTokenTTL       = "token-ttl"
	keyPasswordCost   = "password-cost"
	keyGoogleClientID = "google-client-id"
	keyGoogleAuthURL  = "google-auth-url"
	keyWasmPath       = "wasm-path"
	keySeed           = "seed"
	keyDebug          = "debug"

	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx := withSignalCancel(context.Background())
	if err := newRootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		if !goerrors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "authdev",
		Short:         "Run a local authentication API for the login page",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfigFile(v); err != nil {
				return err
			}
			return serve(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.StringP(keyConfig, "c", "", "path to a config file")
	flags.String(keyAddr, ":5000", "listen address")
	flags.String(keyDatabase, "file:authdev.db", "SQLite DSN for the user directory")
	flags.String(keyFrontendURL, "http://localhost:5000", "origin the OAuth callback redirects to")
	flags.String(keySigningKey, "authdev-insecure-signing-key", "HS256 key for session tokens")
	flags.Duration(keyTokenTTL, 24*time.Hour, "session token lifetime")
	flags.Int(keyPasswordCost, devserver.DefaultPasswordCost, "bcrypt cost for seeded passwords")
	flags.String(keyGoogleClientID, "", "Google OAuth client id, empty disables Google sign in")
	flags.String(keyGoogleAuthURL, "", "Google consent page URL")
	flags.String(keyWasmPath, devserver.DefaultWasmPath, "browser client asset loaded by the login page")
	flags.Bool(keySeed, true, "create the default accounts")
	flags.Bool(keyDebug, false, "verbose logging")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("AUTHDEV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func loadConfigFile(v *viper.Viper) error {
	path := strings.TrimSpace(v.GetString(keyConfig))
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file").
			WithMetadata(map[string]any{"path": path})
	}
	return nil
}

func serverConfig(v *viper.Viper) devserver.Config {
	return devserver.Config{
		FrontendURL:  v.GetString(keyFrontendURL),
		SigningKey:   v.GetString(keySigningKey),
		TokenTTL:     v.GetDuration(keyTokenTTL),
		PasswordCost: v.GetInt(keyPasswordCost),
		WasmPath:     v.GetString(keyWasmPath),
		Debug:        v.GetBool(keyDebug),
		Google: devserver.GoogleConfig{
			ClientID: v.GetString(keyGoogleClientID),
			AuthURL:  v.GetString(keyGoogleAuthURL),
		},
	}
}

func serve(ctx context.Context, v *viper.Viper) error {
	db, err := clientrepo.OpenSQLite(v.GetString(keyDatabase))
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := devserver.New(serverConfig(v), db)
	if err != nil {
		return err
	}

	if err := srv.Migrate(ctx); err != nil {
		return err
	}

	if v.GetBool(keySeed) {
		if err := srv.Seed(ctx, devserver.DefaultSeeds()...); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(v.GetString(keyAddr))
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}

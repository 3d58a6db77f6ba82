// Package commands implements the scribe command tree using Cobra.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/cli/config"
	"github.com/petal-labs/scribe/cli/keystore"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers"
	"github.com/petal-labs/scribe/settings"
	"github.com/petal-labs/scribe/telemetry"
	"github.com/petal-labs/scribe/usage"
	"github.com/petal-labs/scribe/usage/pgusage"

	// Provider registrations.
	_ "github.com/petal-labs/scribe/providers/openai"
	_ "github.com/petal-labs/scribe/providers/pexels"
	_ "github.com/petal-labs/scribe/providers/pixabay"
	_ "github.com/petal-labs/scribe/providers/youtube"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// DBConnector opens the usage database named by a connection string. The
// returned function releases it.
type DBConnector func(ctx context.Context, dsn string) (pgusage.Querier, func(), error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	connectDB   DBConnector
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	dotEnv      []string

	cfgFile    string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config
	logger     *slog.Logger
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithDBConnector injects the usage database connector.
func WithDBConnector(connect DBConnector) AppOption {
	return func(a *App) {
		if connect != nil {
			a.connectDB = connect
		}
	}
}

// WithDotEnv sets the .env files consulted for settings. Missing files
// are skipped. The default is ".env" in the working directory.
func WithDotEnv(paths ...string) AppOption {
	return func(a *App) {
		a.dotEnv = paths
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newKeystore: keystore.NewKeystore,
		connectDB:   connectPostgres,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		dotEnv:      []string{".env"},
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a.root = a.newRootCommand()
	a.root.SetIn(a.stdin)
	a.root.SetOut(a.stdout)
	a.root.SetErr(a.stderr)
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scribe",
		Short: "Scribe - assemble illustrated articles with AI providers",
		Long: `Scribe writes blog articles with a chat model, illustrates them with
generated or stock images, and renders them as block-editor markup or Markdown.

Use Scribe to manage provider API keys, generate articles, re-render saved
content blocks, and report provider usage.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.scribe/config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newGenerateCommand())
	root.AddCommand(a.newBlocksCommand())
	root.AddCommand(a.newUsageCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command. Errors that did not come with an exit
// code are reported here and exit as validation failures.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	err := a.root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return exitWithCode(ExitValidation, err)
}

// SetArgs sets the command-line arguments, for tests and embedding.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	if a.verbose {
		a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return a.invalid(fmt.Errorf("load config: %w", err))
	}
	a.cfg = cfg
	return nil
}

// settings returns the lookup providers read from, highest precedence
// first: the process environment, .env files, the keystore, then the
// config file.
func (a *App) settings() core.Settings {
	chain := settings.Chain{settings.NewEnv(settings.DefaultEnvPrefix)}

	var present []string
	for _, p := range a.dotEnv {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) > 0 {
		env, err := settings.FromDotEnv(settings.DefaultEnvPrefix, present...)
		if err != nil {
			a.logger.Warn("ignoring .env files", "error", err)
		} else {
			chain = append(chain, env)
		}
	}

	ks, err := a.newKeystore()
	if err != nil {
		a.logger.Warn("keystore unavailable", "error", err)
	} else {
		chain = append(chain, keystore.Settings(ks))
	}

	if a.cfg != nil {
		chain = append(chain, a.cfg.Settings())
	}
	return chain
}

// providerDeps builds the shared provider collaborators. The returned
// function flushes and releases the usage sinks.
func (a *App) providerDeps(ctx context.Context) (providers.Deps, func(), error) {
	recorder, closeRecorder, err := a.usageRecorder(ctx)
	if err != nil {
		return providers.Deps{}, nil, err
	}
	return providers.Deps{
		Settings:  a.settings(),
		Telemetry: core.MultiTelemetryHook{telemetry.Logging(a.logger), telemetry.Tracing()},
		Logger:    a.logger,
		Recorder:  recorder,
	}, closeRecorder, nil
}

func (a *App) usageRecorder(ctx context.Context) (core.UsageRecorder, func(), error) {
	sinks := usage.Multi{
		usage.NewFile(a.cfg.Usage.Path),
		usage.NewLogger(a.logger, slog.LevelDebug),
	}
	if a.cfg.Usage.Postgres == "" {
		return sinks, func() {}, nil
	}

	db, release, err := a.connectDB(ctx, a.cfg.Usage.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("usage database: %w", err)
	}
	rec := pgusage.New(db)
	if err := rec.EnsureSchema(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("usage database: %w", err)
	}
	return append(sinks, rec), release, nil
}

func connectPostgres(ctx context.Context, dsn string) (pgusage.Querier, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}

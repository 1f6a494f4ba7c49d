// Package commands implements the swipe CLI using Cobra.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/swipe/cli/config"
	"github.com/petal-labs/swipe/cli/keystore"
	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/telemetry"
	"github.com/petal-labs/swipe/tinder"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// ClientFactory creates an API client.
type ClientFactory func(creds core.CredentialProvider, opts ...tinder.Option) (*tinder.Client, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	newClient   ClientFactory
	creds       core.CredentialProvider
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile     string
	jsonOutput  bool
	verbose     bool
	concurrency int

	cfg     *config.Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	cleanup []func()
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

// WithClientFactory injects the API client constructor.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithCredentials replaces the env, keystore and redis lookup chain.
func WithCredentials(creds core.CredentialProvider) AppOption {
	return func(a *App) {
		a.creds = creds
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
		newClient:   tinder.New,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "swipe",
		Short: "swipe - resilient command-line client for Tinder",
		Long: `swipe talks to the Tinder API with retries, backoff and bounded
concurrency.

Store a token with 'swipe keys set' or export TINDER_AUTH_TOKEN, then browse
recommendations, swipe in batches or run the auto-like loop.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return exitWithCode(ExitValidation, err)
			}
			a.initLogger()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.swipe/config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().IntVar(&a.concurrency, "concurrency", 0, "max requests in flight for batch commands")

	root.AddCommand(a.newRecsCommand())
	root.AddCommand(a.newLikeCommand())
	root.AddCommand(a.newPassCommand())
	root.AddCommand(a.newSuperLikeCommand())
	root.AddCommand(a.newMatchesCommand())
	root.AddCommand(a.newMessageCommand())
	root.AddCommand(a.newUnmatchCommand())
	root.AddCommand(a.newLocationCommand())
	root.AddCommand(a.newProfileCommand())
	root.AddCommand(a.newUserCommand())
	root.AddCommand(a.newAutoCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx; cancelling ctx stops
// in-flight work at the next safe point.
func (a *App) ExecuteContext(ctx context.Context) error {
	defer a.close()

	err := a.root.ExecuteContext(ctx)
	if err != nil && !isReported(err) {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return err
}

// SetArgs overrides the command line, mainly for tests.
func (a *App) SetArgs(args ...string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.concurrency < 0 {
		return fmt.Errorf("--concurrency must not be negative")
	}
	if a.concurrency == 0 {
		a.concurrency = cfg.Concurrency
	}
	return nil
}

func (a *App) initLogger() {
	level, _ := config.ParseLevel(a.cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(tint.NewHandler(a.stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(a.stderr),
	}))
}

// onClose registers fn to run when the command finishes.
func (a *App) onClose(fn func()) {
	a.cleanup = append(a.cleanup, fn)
}

func (a *App) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

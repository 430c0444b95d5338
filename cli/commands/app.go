// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackkit/trackkit-go/cli/config"
	"github.com/trackkit/trackkit-go/cli/keystore"
	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ProviderBuilder creates an adapter from resolved provider configuration.
type ProviderBuilder func(name string, pc core.ProviderConfig) (core.Provider, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// ConsentStoreFactory creates the consent store used by send and consent
// commands.
type ConsentStoreFactory func() core.ConsentStore

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig      ConfigLoader
	buildProvider   ProviderBuilder
	newKeystore     KeystoreFactory
	newConsentStore ConsentStoreFactory
	stdin           io.Reader
	stdout          io.Writer
	stderr          io.Writer

	cfgFile    string
	provider   string
	siteID     string
	host       string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config

	sendProps    []string
	sendURL      string
	sendTitle    string
	sendReferrer string
	sendDryRun   bool
	sendTimeout  time.Duration
	initProvider string
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithProviderBuilder injects an adapter constructor dependency.
func WithProviderBuilder(builder ProviderBuilder) AppOption {
	return func(a *App) {
		if builder != nil {
			a.buildProvider = builder
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

// WithConsentStoreFactory injects a consent store dependency.
func WithConsentStoreFactory(factory ConsentStoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newConsentStore = factory
		}
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
		loadConfig:      config.LoadConfig,
		buildProvider:   providers.Create,
		newKeystore:     keystore.NewKeystore,
		newConsentStore: func() core.ConsentStore { return core.NewFileConsentStore("") },
		stdin:           os.Stdin,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		initProvider:    "umami",
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "trackkit",
		Short: "TrackKit - privacy-first analytics CLI",
		Long: `TrackKit is a command-line interface for the TrackKit analytics SDK.

Use TrackKit to send events, manage consent, store provider secrets, and
scaffold projects.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.trackkit/config.yaml)")
	root.PersistentFlags().StringVar(&a.provider, "provider", "", "provider name (umami, plausible, ga4)")
	root.PersistentFlags().StringVar(&a.siteID, "site-id", "", "site/property identifier (overrides config)")
	root.PersistentFlags().StringVar(&a.host, "host", "", "provider endpoint for self-hosted instances")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newSendCommand())
	root.AddCommand(a.newConsentCommand())
	root.AddCommand(a.newProvidersCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

// SetArgs overrides command-line arguments, for testing.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
	a.root.SetOut(a.stdout)
	a.root.SetErr(a.stderr)
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

	// Apply config defaults if flags not set.
	if a.provider == "" && cfg.DefaultProvider != "" {
		a.provider = cfg.DefaultProvider
	}

	return nil
}

// resolveProviderConfig merges flags, config-file provider settings, and
// keystore secrets into the adapter configuration.
func (a *App) resolveProviderConfig(name string) (core.ProviderConfig, error) {
	pc := core.ProviderConfig{SiteID: a.siteID, Host: a.host}

	if a.cfg != nil {
		if fileCfg := a.cfg.GetProvider(name); fileCfg != nil {
			if pc.SiteID == "" {
				pc.SiteID = fileCfg.SiteID
			}
			if pc.Host == "" {
				pc.Host = fileCfg.Host
			}
			if fileCfg.APISecretRef != "" {
				ks, err := a.newKeystore()
				if err != nil {
					return pc, err
				}
				secret, err := ks.Get(fileCfg.APISecretRef)
				if err != nil {
					return pc, err
				}
				pc.APISecret = core.NewSecret(secret)
			}
		}
	}

	return pc, nil
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}

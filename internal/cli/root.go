package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockwatch/internal/config"
	"stockwatch/internal/logging"
	"stockwatch/internal/market"
	"stockwatch/internal/notify"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/quote"
	"stockwatch/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.Store
	Quotes   quote.Source
	Notifier notify.Notifier
	Calendar *market.Calendar
	Sectors  *portfolio.SectorLookup
	Analyzer *portfolio.Analyzer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Quotes:   quote.NewYahooSource(cfg.Monitor.QuoteTimeout),
		Calendar: market.NewCalendar(cfg.Market),
		Sectors:  portfolio.NewSectorLookup(cfg.Sectors),
	}

	app.Analyzer = portfolio.NewAnalyzer(app.Quotes, cfg.Monitor.QuoteTimeout, logger)

	mn := notify.NewMultiNotifier(&cfg.Notifications)
	app.Notifier = mn

	dataStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Storage.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "stockwatch",
		Short: "Stock monitoring and alerting engine",
		Long: `Stockwatch monitors watched symbols in the background and sends alerts
for price threshold breaches, volume spikes, and market open/close events.
It also tracks a simple portfolio with P&L and diversification analysis.

Use 'stockwatch help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockwatch)")
	rootCmd.PersistentFlags().String("user", "default", "user identity for watches and portfolio")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addRunCommand(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("stockwatch v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

// userID returns the user identity for the invocation.
func userID(cmd *cobra.Command) string {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = "default"
	}
	return user
}

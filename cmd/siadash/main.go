package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/siadash/internal/config"
	"github.com/npratt/siadash/internal/settings"
)

var version = "dev"

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := newRootCmd(viper.New(), logger, logLevel).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around v. Flags, environment and
// config files all resolve through v.
func newRootCmd(v *viper.Viper, logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	v.SetEnvPrefix("SIADASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "siadash",
		Short: "Terminal dashboard for a renterd node",
		Long: `siadash shows how a renterd node funds and spends its storage contracts.

The dashboard charts funding and spending across all contracts or for a single
contract, converts siacoin to fiat through an explorer when allowed, and locks
itself after a period of inactivity.

Without a terminal it prints the same data line by line.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, logger, logLevel)
			if err != nil {
				return err
			}
			return runDashboard(cmd.Context(), cfg, logger, logLevel)
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .siadash/config.yaml)")
	rootCmd.PersistentFlags().String(FlagAddress, "", "renterd API address (default: "+config.Default().Renterd.Address+")")
	rootCmd.PersistentFlags().String(FlagPassword, "", "renterd API password")
	rootCmd.PersistentFlags().String(FlagSettingsFile, "", "Settings file path")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path used while the dashboard runs")

	// Bind all flags to viper
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "siadash %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newSettingsCmd(v, logger, logLevel))

	return rootCmd
}

// loadConfig resolves the layered config and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, v *viper.Viper, logger *slog.Logger, logLevel *slog.LevelVar) (*config.Config, error) {
	if v.GetBool(FlagVerbose) {
		logLevel.Set(slog.LevelDebug)
		logger.Debug("verbose logging enabled")
	}

	cfg, err := config.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Apply CLI flag overrides (only if explicitly set)
	flags := cmd.Flags()
	if flags.Changed(FlagAddress) {
		cfg.Renterd.Address = v.GetString(FlagAddress)
	}
	if flags.Changed(FlagPassword) {
		cfg.Renterd.Password = v.GetString(FlagPassword)
	}
	if flags.Changed(FlagSettingsFile) {
		cfg.Paths.Settings = v.GetString(FlagSettingsFile)
	}
	if flags.Changed(FlagLogFile) {
		cfg.Paths.Log = v.GetString(FlagLogFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// overridesFrom converts the config's preference defaults for the store.
func overridesFrom(d config.DefaultsConfig) settings.Overrides {
	return settings.Overrides{
		AutoLock:        d.AutoLock,
		AutoLockTimeout: d.AutoLockTimeout,
		CurrencyDisplay: d.CurrencyDisplay,
		FiatCurrency:    d.FiatCurrency,
		Theme:           d.Theme,
		Siascan:         d.Siascan,
	}
}

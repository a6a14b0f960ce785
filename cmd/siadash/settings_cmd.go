package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/npratt/siadash/internal/config"
	"github.com/npratt/siadash/internal/settings"
)

// settingSetters maps each `settings set` key to the store call it makes.
var settingSetters = map[string]func(s *settings.Store, value string) error{
	"auto-lock": func(s *settings.Store, value string) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		return s.SetRequestSettings(settings.RequestUpdate{AutoLock: &b})
	},
	"auto-lock-timeout": func(s *settings.Store, value string) error {
		d, err := parseTimeout(value)
		if err != nil {
			return err
		}
		return s.SetRequestSettings(settings.RequestUpdate{AutoLockTimeout: &d})
	},
	"theme": func(s *settings.Store, value string) error {
		t := settings.Theme(value)
		return s.SetRequestSettings(settings.RequestUpdate{Theme: &t})
	},
	"currency-display": func(s *settings.Store, value string) error {
		m := settings.CurrencyDisplayMode(value)
		return s.SetDisplaySettings(settings.DisplayUpdate{CurrencyDisplay: &m})
	},
	"fiat": func(s *settings.Store, value string) error {
		return s.SetDisplaySettings(settings.DisplayUpdate{FiatCurrency: &value})
	},
	"siascan": func(s *settings.Store, value string) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		return s.SetExternalDataSettings(settings.ExternalDataUpdate{Siascan: &b})
	},
	"gpu": func(s *settings.Store, value string) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		return s.SetGPUEnabled(b)
	},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseBool(value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", settings.ErrInvalidConfigValue, value)
	}
	return b, nil
}

// parseTimeout accepts a duration ("10m") or a bare number of minutes.
func parseTimeout(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a duration", settings.ErrInvalidConfigValue, value)
	}
	return d, nil
}

// applyAssignment applies one key=value pair to s.
func applyAssignment(s *settings.Store, assignment string) error {
	key, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("invalid assignment %q: want key=value", assignment)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	set, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settingKeys(), ", "))
	}
	if err := set(s, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// renderSettings writes s as YAML, or as indented JSON.
func renderSettings(w io.Writer, s settings.Settings, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// openStore builds a store over the settings file without running the
// lock timer. Only the keys the user sets are ever written back, so the
// configured defaults never end up in the file.
func openStore(cfg *config.Config, logger *slog.Logger) (*settings.Store, *settings.FileStore) {
	file := settings.NewFileStore(cfg.Paths.Settings)
	store := settings.New(settings.Options{
		Loader:     file,
		Overrides:  overridesFrom(cfg.Defaults),
		External:   settings.ExternalDataConfig{GPUCapable: cfg.GPU.Capable},
		SiascanURL: cfg.Explorer.SiascanURL,
		Logger:     logger,
	})
	return store, file
}

func newSettingsCmd(v *viper.Viper, logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the dashboard preferences",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective preferences",
		Long: `Print the preferences the dashboard would start with: the settings file
layered over the configured defaults and the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, logger, logLevel)
			if err != nil {
				return err
			}
			store, file := openStore(cfg, logger)
			defer store.Close()

			for _, w := range store.Warnings() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
			}
			asJSON, _ := cmd.Flags().GetBool(FlagJSON)
			if !asJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", file.Path())
			}
			return renderSettings(cmd.OutOrStdout(), store.Get(), asJSON)
		},
	}
	showCmd.Flags().Bool(FlagJSON, false, "Output as JSON")

	setCmd := &cobra.Command{
		Use:   "set key=value...",
		Short: "Change preferences in the settings file",
		Long: `Change one or more preferences. All assignments are validated before
anything is written; one invalid value leaves the file untouched.

Keys: ` + strings.Join(settingKeys(), ", ") + `

Keys not named keep following the configured defaults.

auto-lock-timeout takes a duration (10m) or minutes (10) and must be one of
5, 10, 20, 30 or 60 minutes.

siascan is stored without asking renterd whether it manages the explorer.
While it does, the dashboard ignores the stored value and uses the daemon's
explorer.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, logger, logLevel)
			if err != nil {
				return err
			}
			store, file := openStore(cfg, logger)
			defer store.Close()

			for _, a := range args {
				if err := applyAssignment(store, a); err != nil {
					return err
				}
			}
			if err := file.Save(store.Persisted()); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			return renderSettings(cmd.OutOrStdout(), store.Get(), false)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every preference set by the user",
		Long: `Clear the settings file so every preference follows the configured
defaults, or the built-in ones where nothing is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, logger, logLevel)
			if err != nil {
				return err
			}
			store, file := openStore(cfg, logger)
			defer store.Close()

			store.Reset()
			if err := file.Save(store.Persisted()); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings reset (%s)\n", file.Path())
			return nil
		},
	}

	settingsCmd.AddCommand(showCmd, setCmd, resetCmd)
	return settingsCmd
}

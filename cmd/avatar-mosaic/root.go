package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ironsheep/avatar-mosaic/internal/config"
	"github.com/ironsheep/avatar-mosaic/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "avatar-mosaic",
	Short: "Build a mosaic of Stack Exchange user avatars",
	Long: `avatar-mosaic downloads the avatars of a list of Stack Exchange users,
drops the generated identicon placeholders, and tiles the rest into a single
PNG with rounded corners.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env "+logging.EnvLevel+")")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads --config and builds the logger. The log level comes from
// --log-level, then the environment, then the config file.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	} else if v := os.Getenv(logging.EnvLevel); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return cfg, logging.NewWriter(cmd.ErrOrStderr(), level, cfg.Log.Format), nil
}

// addGridFlags registers the layout overrides shared by compose and grid.
func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().Int("columns", 0, "Number of columns")
	cmd.Flags().Int("rows", 0, "Number of rows")
	cmd.Flags().Int("cell-width", 0, "Cell width in pixels")
	cmd.Flags().Int("cell-height", 0, "Cell height in pixels")
	cmd.Flags().Int("gap", 0, "Gap between cells in pixels")
	cmd.Flags().Int("corner-radius-x", 0, "Horizontal corner radius")
	cmd.Flags().Int("corner-radius-y", 0, "Vertical corner radius")
	cmd.Flags().String("background", "", `Background: hex color, "auto", or "none" for transparent`)
	cmd.Flags().Uint64("seed", 0, "Shuffle seed (0 picks one from the clock)")
}

// applyGridFlags copies the layout flags the user set onto cfg.
func applyGridFlags(cmd *cobra.Command, cfg *config.Config) {
	ints := []struct {
		name  string
		field *int
	}{
		{"columns", &cfg.Grid.Columns},
		{"rows", &cfg.Grid.Rows},
		{"cell-width", &cfg.Grid.CellWidth},
		{"cell-height", &cfg.Grid.CellHeight},
		{"gap", &cfg.Grid.Gap},
		{"corner-radius-x", &cfg.Grid.CornerRadiusX},
		{"corner-radius-y", &cfg.Grid.CornerRadiusY},
	}
	for _, f := range ints {
		if cmd.Flags().Changed(f.name) {
			*f.field, _ = cmd.Flags().GetInt(f.name)
		}
	}
	if cmd.Flags().Changed("background") {
		bg, _ := cmd.Flags().GetString("background")
		if bg == "none" {
			bg = ""
		}
		cfg.Grid.Background = bg
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetUint64("seed")
	}
}

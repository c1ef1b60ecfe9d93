// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the calibprep CLI, which prepares
// calibration image datasets for INT8 quantization tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iwatake2222/InferenceHelper/internal/catalog"
	"github.com/iwatake2222/InferenceHelper/internal/prepare"
	"github.com/iwatake2222/InferenceHelper/internal/resample"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts a directory of JPEG images into a calibration dataset.
var rootCmd = &cobra.Command{
	Use:   "calibprep --inDir <dir> --outDir <dir>",
	Short: "Prepare a calibration image dataset",
	Long: `calibprep reads every *.jpg file directly inside --inDir, resizes it to a
fixed resolution (224x224 by default, aspect ratio not preserved), writes it
as <name>.ppm into --outDir and lists every processed name in
--outDir/list.txt, one per line.

The output directory is the input dataset of an INT8 calibrator. The first
unreadable image aborts the run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags parsed fine; later errors are not usage errors.
		cmd.SilenceUsage = true
		return setupLogging(viper.GetString("log-level"))
	},
	RunE: runPrepare,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./calibprep.yaml or ~/.config/calibprep/calibprep.yaml)")
	rootCmd.PersistentFlags().Int("width", types.DefaultWidth, "output image width in pixels")
	rootCmd.PersistentFlags().Int("height", types.DefaultHeight, "output image height in pixels")
	rootCmd.PersistentFlags().String("catalog", "", "SQLite database recording runs (disabled when empty)")
	rootCmd.PersistentFlags().String("log-level", "info", "diagnostic log level: debug, info, warn, error")

	rootCmd.Flags().String("inDir", "", "directory containing .jpg source images")
	rootCmd.Flags().String("outDir", "", "directory for .ppm outputs and list.txt")
	rootCmd.Flags().String("filter", types.DefaultFilter, "resample filter: "+strings.Join(resample.Names(), ", "))
	_ = rootCmd.MarkFlagRequired("inDir")
	_ = rootCmd.MarkFlagRequired("outDir")

	for _, key := range []string{"width", "height", "catalog", "log-level"} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
	_ = viper.BindPFlag("filter", rootCmd.Flags().Lookup("filter"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("calibprep")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "calibprep"))
		}
	}

	viper.SetEnvPrefix("CALIBPREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging routes diagnostics to a console logger on stderr. Progress
// output stays on stdout.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return nil
}

func prepareConfig(cmd *cobra.Command) types.PrepareConfig {
	inDir, _ := cmd.Flags().GetString("inDir")
	outDir, _ := cmd.Flags().GetString("outDir")
	return types.PrepareConfig{
		InputDir:  inDir,
		OutputDir: outDir,
		Width:     viper.GetInt("width"),
		Height:    viper.GetInt("height"),
		Filter:    viper.GetString("filter"),
		Catalog:   viper.GetString("catalog"),
	}.WithDefaults()
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg := prepareConfig(cmd)
	started := time.Now()

	result, err := prepare.Run(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	log.Debug().
		Int("images", result.Total()).
		Dur("elapsed", time.Since(started)).
		Msg("dataset prepared")

	if cfg.Catalog == "" {
		return nil
	}
	return recordRun(cmd.Context(), cfg, started, result)
}

func recordRun(ctx context.Context, cfg types.PrepareConfig, started time.Time, result prepare.Result) error {
	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, types.Run{
		StartedAt: started,
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Filter:    cfg.Filter,
		Samples:   result.Samples,
	})
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	log.Info().Int64("run", id).Str("catalog", cfg.Catalog).Msg("run recorded")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

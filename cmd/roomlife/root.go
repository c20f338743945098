package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathoo/roomlife/cli"
	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/loader"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "roomlife",
	Short: "A deterministic life simulation in a shared building",
	Long: `RoomLife simulates one tenant's days in a small shared building.
Actions, items and spaces are content: YAML files and Lua packs loaded
from the content directory.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.roomlife.yaml)")
	pf.String("content", "content", "content directory")
	pf.Int64("seed", 42, "world seed")
	pf.String("save-dir", cli.DefaultSaveDir(), "directory for save files")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.Int("event-log-cap", events.DefaultCap, "events kept in the state's log")

	for key, flag := range map[string]string{
		"content_dir":   "content",
		"seed":          "seed",
		"save_dir":      "save-dir",
		"log_level":     "log-level",
		"event_log_cap": "event-log-cap",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

// initConfig reads the config file and ROOMLIFE_ environment variables.
// Flags set on the command line win over both.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".roomlife")
	}

	viper.SetEnvPrefix("roomlife")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the text logger on stderr at the configured level.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(viper.GetString("log_level")))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadContent loads and validates the configured content directory.
func loadContent(logger *slog.Logger) (*state.Registry, error) {
	dir := viper.GetString("content_dir")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	reg, err := loader.Load(abs, logger)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", dir, err)
	}
	return reg, nil
}

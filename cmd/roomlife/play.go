package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathoo/roomlife/cli"
	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/save"
	"github.com/nathoo/roomlife/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a game",
	Long: `Starts a new game, or resumes one with --load. The full-screen UI
is used on a terminal; --plain, a script, or piped output use the line REPL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		trace, _ := cmd.Flags().GetBool("trace")
		script, _ := cmd.Flags().GetString("script")
		load, _ := cmd.Flags().GetString("load")

		logger := newLogger()
		reg, err := loadContent(logger)
		if err != nil {
			return err
		}

		var eng *engine.Engine
		if load != "" {
			s, err := save.ReadFile(load)
			if err != nil {
				return fmt.Errorf("loading save: %w", err)
			}
			eng = engine.Resume(reg, s)
		} else {
			eng, err = engine.New(reg, viper.GetInt64("seed"))
			if err != nil {
				return err
			}
			if n := viper.GetInt("event_log_cap"); n > 0 {
				eng.State.EventLogCap = n
			}
		}
		eng.Logger = logger
		saveDir := viper.GetString("save_dir")

		if script != "" {
			f, err := os.Open(script)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()
			c := cli.New(eng, reg)
			c.In = f
			c.Out = cmd.OutOrStdout()
			c.SaveDir = saveDir
			c.EchoInput = true
			c.Trace = trace
			c.Run()
			return nil
		}

		if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
			c := cli.New(eng, reg)
			c.SaveDir = saveDir
			c.Trace = trace
			c.Run()
			return nil
		}
		return tui.Run(eng, reg, saveDir)
	},
}

func init() {
	f := playCmd.Flags()
	f.Bool("plain", false, "use the line REPL instead of the full-screen UI")
	f.Bool("trace", false, "print the action and events after every command")
	f.String("script", "", "play commands from a file, echoing each one")
	f.String("load", "", "resume from a save file")
	rootCmd.AddCommand(playCmd)
}

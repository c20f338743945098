package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nathoo/roomlife/audit"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check content integrity and tier distributions",
	Long: `Loads the content directory, reporting any load errors or warnings,
then checks that archetypal players can reach each action and that tier
distributions are not degenerate. Exits non-zero when a check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		reg, err := loadContent(newLogger())
		if err != nil {
			return err
		}
		rep, err := audit.Run(reg)
		if err != nil {
			return err
		}
		rep.Write(cmd.OutOrStdout(), verbose)
		if !rep.Passed() {
			return errors.New("content validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolP("verbose", "v", false, "print every archetype's tier distributions")
	rootCmd.AddCommand(validateCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iwatake2222/InferenceHelper/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <outDir>",
	Short: "Check a prepared dataset for consistency",
	Long: `Verify reads <outDir>/list.txt and checks that every listed name has a
decodable <name>.ppm of the expected size (--width x --height), that every
.ppm file is listed exactly once, and that list.txt uses \n line endings.

The report is printed as YAML or JSON. Exits non-zero when problems are found.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("format", "yaml", "report format: yaml or json")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	report, err := verify.Dir(args[0], viper.GetInt("width"), viper.GetInt("height"))
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), format); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d problem(s) found in %s", len(report.Problems), args[0])
	}
	return nil
}

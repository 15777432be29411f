package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "threat2pcya",
	Short: "Deterministic threat-to-requirement coverage mapper",
	Long: `threat2pcya maps threat-modeling exports to IEC 62443 control
identifiers and traces them to PCyA requirement records, producing a
requirement-coverage verdict per threat for a chosen security level.

All matching is deterministic: exact normalized keys and exact identifier
tokens, no fuzzy or learned matching.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: ~/.threat2pcya/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to run log (default: ~/.threat2pcya/runs.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - a self-healing observability subsystem",
	Long: `Vigil continuously aggregates liveness and performance signals from
independent orchestrator subsystems, computes synchronization and
health scores, classifies deviations into typed issues, and executes
recovery for issues that are safe to auto-fix.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/events"
	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/monitor"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one health and synchronization cycle and print the report",
	Long: `Runs a single aggregation and validation pass against the built-in
simulated collaborators and prints the resulting report. Useful for a
quick smoke check of scoring and issue detection.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	manager := config.NewManager(configPath, logger)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim := newSimWorld()

	system, err := monitor.New(monitor.Options{
		Config: manager.Get(),
		Sources: health.Sources{
			AgentPool: sim,
			Proactive: sim,
			Rules:     sim,
			SelfTest:  sim,
			Version:   sim,
		},
		Orchestrators: sim.orchestrators(),
		Memory:        sim,
		Remediator:    sim,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	// Seed one signal per collaborator so liveness inference has
	// something to work from in a single-shot run.
	for _, orch := range sim.orchestrators() {
		system.Registry.Observe(events.NewEvent(orch.Kinds[0], orch.Name))
	}

	ctx := cmd.Context()
	system.Aggregator.RunCycle(ctx)
	system.Validator.RunCycle(ctx)

	fmt.Println(system.Report())
	return nil
}

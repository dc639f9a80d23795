package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adalundhe/vigil/core/config"
	"github.com/adalundhe/vigil/core/health"
	"github.com/adalundhe/vigil/core/monitor"
	"github.com/spf13/cobra"
)

var reportEvery time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the observability subsystem against a simulated workload",
	Long: `Starts the full subsystem wired to built-in simulated collaborators.
Useful for smoke-running cycles, reports and recovery locally; real
deployments embed the monitor.System with their own collaborators.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVar(&reportEvery, "report-every", 30*time.Second, "interval between printed reports")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	manager := config.NewManager(configPath, logger)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := manager.Watch(); err != nil {
		logger.Warn("config watch unavailable", "error", err)
	}
	defer manager.StopWatch()

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

	manager.OnChange(func(cfg *config.Config) {
		system.Aggregator.UpdateConfig(cfg.Health)
		system.Validator.UpdateConfig(cfg.Sync)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	system.Start(ctx)
	defer system.Stop()

	go sim.pump(ctx, system.Bus)

	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println(system.Report())
			return nil
		case <-ticker.C:
			fmt.Println(system.Report())
		}
	}
}

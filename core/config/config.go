package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Health   HealthConfig   `yaml:"health"`
	Sync     SyncConfig     `yaml:"sync"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Bus      BusConfig      `yaml:"bus"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

type HealthConfig struct {
	Interval         time.Duration    `yaml:"interval"`
	LatencyCeilingMS float64          `yaml:"latency_ceiling_ms"`
	Weights          HealthWeights    `yaml:"weights"`
	AgentWeights     AgentWeights     `yaml:"agent_weights"`
	Thresholds       HealthThresholds `yaml:"thresholds"`
}

// HealthWeights distributes the overall health score across the four
// weighted dimensions. Version compatibility gates an issue instead of
// carrying weight.
type HealthWeights struct {
	Agents    float64 `yaml:"agents"`
	Proactive float64 `yaml:"proactive"`
	Rules     float64 `yaml:"rules"`
	SelfTest  float64 `yaml:"self_test"`
}

// AgentWeights distributes a single agent's efficiency score.
type AgentWeights struct {
	Success     float64 `yaml:"success"`
	Latency     float64 `yaml:"latency"`
	Utilization float64 `yaml:"utilization"`
}

type HealthThresholds struct {
	AgentEfficiencyMin   float64 `yaml:"agent_efficiency_min"`
	ProactiveAccuracyMin float64 `yaml:"proactive_accuracy_min"`
	RuleEfficiencyMin    float64 `yaml:"rule_efficiency_min"`
	SelfTestHighFailures int     `yaml:"selftest_high_failures"`
	OverallScoreMin      float64 `yaml:"overall_score_min"`
}

type SyncConfig struct {
	Interval             time.Duration `yaml:"interval"`
	ActivityWindow       time.Duration `yaml:"activity_window"`
	EventOverloadCeiling int           `yaml:"event_overload_ceiling"`
	Weights              SyncWeights   `yaml:"weights"`
	SyncedScoreMin       float64       `yaml:"synced_score_min"`
	CriticalPenalty      float64       `yaml:"critical_penalty"`
	HighPenalty          float64       `yaml:"high_penalty"`
	OverallScoreMin      float64       `yaml:"overall_score_min"`
}

// SyncWeights distributes the sync score across its four dimensions.
type SyncWeights struct {
	Orchestrators float64 `yaml:"orchestrators"`
	Events        float64 `yaml:"events"`
	Memory        float64 `yaml:"memory"`
	Health        float64 `yaml:"health"`
}

type RecoveryConfig struct {
	ActionTimeout   time.Duration `yaml:"action_timeout"`
	HistoryCapacity int           `yaml:"history_capacity"`
}

type BusConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Health: HealthConfig{
			Interval:         30 * time.Second,
			LatencyCeilingMS: 5000,
			Weights: HealthWeights{
				Agents:    0.30,
				Proactive: 0.30,
				Rules:     0.20,
				SelfTest:  0.20,
			},
			AgentWeights: AgentWeights{
				Success:     0.40,
				Latency:     0.30,
				Utilization: 0.30,
			},
			Thresholds: HealthThresholds{
				AgentEfficiencyMin:   70,
				ProactiveAccuracyMin: 70,
				RuleEfficiencyMin:    60,
				SelfTestHighFailures: 3,
				OverallScoreMin:      70,
			},
		},
		Sync: SyncConfig{
			Interval:             30 * time.Second,
			ActivityWindow:       60 * time.Second,
			EventOverloadCeiling: 1000,
			Weights: SyncWeights{
				Orchestrators: 0.40,
				Events:        0.20,
				Memory:        0.20,
				Health:        0.20,
			},
			SyncedScoreMin:  90,
			CriticalPenalty: 20,
			HighPenalty:     10,
			OverallScoreMin: 70,
		},
		Recovery: RecoveryConfig{
			ActionTimeout:   30 * time.Second,
			HistoryCapacity: 50,
		},
		Bus: BusConfig{
			BufferSize: 1000,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "vigil.db",
		},
	}
}

func (w HealthWeights) Validate() bool {
	sum := w.Agents + w.Proactive + w.Rules + w.SelfTest
	return sum > 0.99 && sum < 1.01
}

func (w AgentWeights) Validate() bool {
	sum := w.Success + w.Latency + w.Utilization
	return sum > 0.99 && sum < 1.01
}

func (w SyncWeights) Validate() bool {
	sum := w.Orchestrators + w.Events + w.Memory + w.Health
	return sum > 0.99 && sum < 1.01
}

func (c *Config) Validate() error {
	if !c.Health.Weights.Validate() {
		return fmt.Errorf("health weights must sum to 1.0")
	}
	if !c.Health.AgentWeights.Validate() {
		return fmt.Errorf("agent weights must sum to 1.0")
	}
	if !c.Sync.Weights.Validate() {
		return fmt.Errorf("sync weights must sum to 1.0")
	}
	if c.Health.Interval <= 0 || c.Sync.Interval <= 0 {
		return fmt.Errorf("cycle intervals must be positive")
	}
	if c.Sync.ActivityWindow <= 0 {
		return fmt.Errorf("activity window must be positive")
	}
	if c.Sync.EventOverloadCeiling <= 0 {
		return fmt.Errorf("event overload ceiling must be positive")
	}
	if c.Recovery.ActionTimeout <= 0 {
		return fmt.Errorf("recovery action timeout must be positive")
	}
	if c.Recovery.HistoryCapacity <= 0 {
		return fmt.Errorf("recovery history capacity must be positive")
	}
	return nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("VIGIL_HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Health.Interval = d
		}
	}
	if v := os.Getenv("VIGIL_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if v := os.Getenv("VIGIL_EVENT_OVERLOAD_CEILING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.EventOverloadCeiling = n
		}
	}
	if v := os.Getenv("VIGIL_ACTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recovery.ActionTimeout = d
		}
	}
	if v := os.Getenv("VIGIL_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
		cfg.Archive.Enabled = true
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "500ms" or "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full configuration surface of the arena binary.
type Config struct {
	GamesPerTournament  int      `yaml:"games_per_tournament"`
	AcceptanceThreshold float64  `yaml:"acceptance_threshold"`
	IntakePollTimeout   Duration `yaml:"intake_poll_timeout"`
	BarrierPollInterval Duration `yaml:"barrier_poll_interval"`
	BarrierWarnAfter    Duration `yaml:"barrier_warn_after"`
	ArchiveDir          string   `yaml:"archive_dir"`
	SelfPlayWorkers     int      `yaml:"self_play_workers"`
	TrainingWorkers     int      `yaml:"training_workers"`
	TrainInterval       Duration `yaml:"train_interval"`
}

func Default() Config {
	return Config{
		GamesPerTournament:  20,
		AcceptanceThreshold: 0.55,
		IntakePollTimeout:   Duration(time.Second),
		BarrierPollInterval: Duration(500 * time.Millisecond),
		BarrierWarnAfter:    Duration(30 * time.Second),
		ArchiveDir:          "models/accepted",
		SelfPlayWorkers:     2,
		TrainingWorkers:     1,
		TrainInterval:       Duration(2 * time.Second),
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.GamesPerTournament <= 0 {
		return fmt.Errorf("games_per_tournament must be positive, got %d", c.GamesPerTournament)
	}
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance_threshold must be within [0,1], got %g", c.AcceptanceThreshold)
	}
	if c.IntakePollTimeout <= 0 {
		return fmt.Errorf("intake_poll_timeout must be positive")
	}
	if c.BarrierPollInterval <= 0 {
		return fmt.Errorf("barrier_poll_interval must be positive")
	}
	if c.BarrierWarnAfter <= 0 {
		return fmt.Errorf("barrier_warn_after must be positive")
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive_dir must not be empty")
	}
	if c.SelfPlayWorkers < 0 {
		return fmt.Errorf("self_play_workers must not be negative, got %d", c.SelfPlayWorkers)
	}
	if c.TrainingWorkers < 0 {
		return fmt.Errorf("training_workers must not be negative, got %d", c.TrainingWorkers)
	}
	if c.TrainInterval <= 0 {
		return fmt.Errorf("train_interval must be positive")
	}
	return nil
}

// Package config loads parley's settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/parley/pkg/adapters/process"
)

// Config is the structure of parley.yaml.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Dialogue  DialogueConfig  `yaml:"dialogue"`
	HTTP      HTTPConfig      `yaml:"http"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Redis     RedisConfig     `yaml:"redis"`

	// Invokers run local commands for invocation sources. An entry named
	// like a built-in source replaces it.
	Invokers []process.Config `yaml:"invokers"`
}

// DialogueConfig tunes the interpreter and the runner.
type DialogueConfig struct {
	// SilenceTimeout is how long LISTEN waits before TIMEOUT.
	SilenceTimeout time.Duration `yaml:"silence_timeout"`
	// MaxMicrosteps bounds eventless transitions per event.
	MaxMicrosteps int `yaml:"max_microsteps"`
	// SpeechDelay simulates console playback time per word.
	SpeechDelay time.Duration `yaml:"speech_delay"`
	// Grammar is a YAML grammar file. Empty uses the built-in one.
	Grammar string `yaml:"grammar"`
}

// HTTPConfig configures the session API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// KnowledgeConfig configures the instant answer client.
type KnowledgeConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// RedisConfig enables the knowledge cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "info",
		Dialogue: DialogueConfig{
			SilenceTimeout: 8 * time.Second,
			MaxMicrosteps:  100,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Knowledge: KnowledgeConfig{
			Endpoint:         "https://api.duckduckgo.com/",
			Timeout:          5 * time.Second,
			FailureThreshold: 3,
			OpenTimeout:      30 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "parley:knowledge:",
			TTL:    24 * time.Hour,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Dialogue.SilenceTimeout < 0 {
		errs = append(errs, errors.New("dialogue.silence_timeout must not be negative"))
	}
	if c.Dialogue.MaxMicrosteps <= 0 {
		errs = append(errs, errors.New("dialogue.max_microsteps must be positive"))
	}
	if c.Knowledge.FailureThreshold <= 0 {
		errs = append(errs, errors.New("knowledge.failure_threshold must be positive"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, errors.New("redis.db must not be negative"))
	}
	seen := make(map[string]bool)
	for i, inv := range c.Invokers {
		switch {
		case inv.Name == "":
			errs = append(errs, fmt.Errorf("invokers[%d]: name is required", i))
		case seen[inv.Name]:
			errs = append(errs, fmt.Errorf("invokers[%d]: duplicate name %q", i, inv.Name))
		}
		if inv.Command == "" {
			errs = append(errs, fmt.Errorf("invokers[%d]: command is required", i))
		}
		seen[inv.Name] = true
	}
	return errors.Join(errs...)
}

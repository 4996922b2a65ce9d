// Package config loads mqbridge configuration from two places: the
// process environment (socket URL and relay tuning) and the optional
// config.toml (launch-mode worker definition).
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/maquettehq/mqbridge/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file and returns the parsed Config.
// A missing file yields an empty Config, not an error.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path, expanding
// ${ENV_VAR} placeholders from the current environment.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	expandConfigEnvVars(&cfg)
	return &cfg, nil
}

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	w := cfg.Worker
	hasCommand := strings.TrimSpace(w.Command) != ""
	if !hasCommand && (len(w.Args) > 0 || len(w.Env) > 0 || w.ReadyToken != "" || w.QueueMax != 0) {
		errs = append(errs, errors.New("worker: args, env, ready_token and queue_max require worker.command"))
	}
	if w.QueueMax < 0 {
		errs = append(errs, fmt.Errorf("worker.queue_max: must be >= 0, got %d", w.QueueMax))
	}
	return errors.Join(errs...)
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Worker.Command = expandEnvVars(cfg.Worker.Command)
	cfg.Worker.ReadyToken = expandEnvVars(cfg.Worker.ReadyToken)
	for i := range cfg.Worker.Args {
		cfg.Worker.Args[i] = expandEnvVars(cfg.Worker.Args[i])
	}
	for k, v := range cfg.Worker.Env {
		cfg.Worker.Env[k] = expandEnvVars(v)
	}
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}

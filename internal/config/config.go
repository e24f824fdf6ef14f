// Package config loads the fsgate TOML configuration.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"fsgate/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const (
	defaultServerName    = "filesystem-server"
	defaultServerVersion = "0.1.0"
	defaultAgentModel    = "gpt-4o-mini"
	defaultAgentMaxTurns = 8
)

// Load reads the config file at the default location. A missing file is not
// an error: defaults apply.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path, expanding
// ${ENV_VAR} placeholders from the process environment.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	expandConfigEnvVars(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.Root = cwd
		}
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = defaultServerName
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = defaultServerVersion
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = defaultAgentModel
	}
	if cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Agent.MaxTurns <= 0 {
		cfg.Agent.MaxTurns = defaultAgentMaxTurns
	}
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Root = expandEnvVars(cfg.Root)
	cfg.Client.Command = expandEnvVars(cfg.Client.Command)
	for i := range cfg.Client.Args {
		cfg.Client.Args[i] = expandEnvVars(cfg.Client.Args[i])
	}
	for k, v := range cfg.Client.Env {
		cfg.Client.Env[k] = expandEnvVars(v)
	}
	cfg.Agent.APIKey = expandEnvVars(cfg.Agent.APIKey)
	cfg.Agent.BaseURL = expandEnvVars(cfg.Agent.BaseURL)
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

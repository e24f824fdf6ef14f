package config

// Config is the top-level fsgate configuration.
type Config struct {
	// Root is the sandbox directory all file operations are confined to.
	// Defaults to the current working directory when unset.
	Root string `toml:"root"`

	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
	Agent  AgentConfig  `toml:"agent"`
}

// ServerConfig identifies the server in the MCP handshake.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ClientConfig describes how the connector launches the server subprocess.
// When Command is empty the connector re-executes the current binary with
// "serve".
type ClientConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`
}

// AgentConfig holds the OpenAI settings for the agent subcommand.
type AgentConfig struct {
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	MaxTurns int    `toml:"max_turns"`
}

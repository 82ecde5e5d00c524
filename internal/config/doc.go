// Package config provides configuration loading and path management for
// the AgentX runtime (spec.md §6.4).
//
// # Configuration Loading
//
// Load merges configuration from three sources in priority order:
//
//  1. Global config (~/.config/agentx/agentx.json[c])
//  2. Project config (<directory>/.agentx/agentx.json[c])
//  3. Environment variables (highest precedence, except provider API keys,
//     which only fill a provider whose apiKey is not already configured)
//
// # Supported Formats
//
// Both JSON and JSONC (JSON with // and /* */ comments) are accepted; JSONC
// files are stripped of comments before unmarshaling.
//
// # Configuration Merging
//
// Later sources overwrite scalar fields (Model, Port, DataDir, JWTSecret,
// LogLevel) and merge the Provider map key-by-key, so a project config can
// add a provider without dropping one set globally.
//
// # Path Management
//
// Paths follows the XDG Base Directory Specification:
//   - Data: ~/.local/share/agentx (XDG_DATA_HOME)
//   - Config: ~/.config/agentx (XDG_CONFIG_HOME)
//   - Cache: ~/.cache/agentx (XDG_CACHE_HOME)
//   - State: ~/.local/state/agentx (XDG_STATE_HOME)
//
// On Windows these fall back to APPDATA.
//
// # Environment Variable Overrides
//
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY / ARK_API_KEY - provider credentials
//   - AGENTX_MODEL - default model override, "provider/model" form
//   - AGENTX_JWT_SECRET - §6.1 bearer-token signing secret
//   - AGENTX_DATA_DIR - repository.File base directory
//
// # Usage Example
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	paths := config.GetPaths()
//	if err := paths.EnsurePaths(); err != nil {
//	    log.Fatal(err)
//	}
package config

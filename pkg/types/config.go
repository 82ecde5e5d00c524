package types

// ProviderOptions carries a provider's connection credentials, read from
// environment variables or the JSONC config file (spec.md §6.4).
type ProviderOptions struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ProviderConfig is one entry of Config.Provider, naming which npm-style
// adapter a configured provider uses and whether it is disabled.
type ProviderConfig struct {
	Npm     string           `json:"npm,omitempty"`
	Model   string            `json:"model,omitempty"`
	Disable bool              `json:"disable,omitempty"`
	Options *ProviderOptions  `json:"options,omitempty"`
}

// Config is the root of the JSONC configuration file plus environment
// overlay described in spec.md §6.4.
type Config struct {
	Model           string                    `json:"model,omitempty"`
	Provider        map[string]ProviderConfig `json:"provider,omitempty"`
	Port            int                       `json:"port,omitempty"`
	DataDir         string                    `json:"dataDir,omitempty"`
	JWTSecret       string                    `json:"jwtSecret,omitempty"`
	InviteCodeRequired bool                   `json:"inviteCodeRequired,omitempty"`
	LogLevel        string                    `json:"logLevel,omitempty"`
}

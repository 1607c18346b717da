package extension

// Config holds the SquadLedger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.squadledger" or "squadledger" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for ledger routes (default: "/ledger").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Currency is the ISO currency code every receipt and payment must
	// carry (default: "uah").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/ledger",
	}
}

// Package redaction removes credentials and session tokens from text the
// harness persists, such as browser console output and step journal errors.
package redaction

// Mode defines the redaction behavior.
type Mode string

const (
	// ModeOff disables all scanning and redaction.
	ModeOff Mode = "off"
	// ModeWarn scans and reports findings but doesn't modify content.
	ModeWarn Mode = "warn"
	// ModeRedact replaces sensitive content with placeholders.
	ModeRedact Mode = "redact"
)

// Category identifies the type of sensitive content detected.
type Category string

const (
	CategoryCredential  Category = "CREDENTIAL"
	CategoryJWT         Category = "JWT"
	CategoryBearerToken Category = "BEARER_TOKEN"
	CategoryPassword    Category = "PASSWORD"
)

// Finding represents a single detected secret.
type Finding struct {
	Category Category `json:"category"`
	// Redacted is the placeholder that replaces the match.
	Redacted string `json:"redacted"`
	// Start and End are byte offsets into the scanned input.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Config configures a Redactor.
type Config struct {
	Mode Mode `json:"mode"`
	// Secrets are literal values, such as the test account password, that
	// must never appear in output.
	Secrets []string `json:"-"`
	// DisabledCategories lists pattern categories to skip.
	DisabledCategories []Category `json:"disabled_categories,omitempty"`
}

// DefaultConfig redacts by default.
func DefaultConfig() Config {
	return Config{Mode: ModeRedact}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeOff, ModeWarn, ModeRedact:
		// valid
	default:
		return &ConfigError{Field: "mode", Message: "invalid mode: " + string(c.Mode)}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "redaction config error: " + e.Field + ": " + e.Message
}

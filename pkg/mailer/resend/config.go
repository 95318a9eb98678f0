package resend

import "time"

// Config represents the configuration for the Resend client
type Config struct {
	// APIKey authenticates against the Resend API
	APIKey string

	// BaseURL is the Resend API base URL
	BaseURL string

	// From is the default sender, e.g. "TableMenu <noreply@tablemenu.app>"
	From string

	// Timeout bounds a single send
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	if c.From == "" {
		return ErrInvalidRequest
	}
	return nil
}

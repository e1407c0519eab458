package local

import "fmt"

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the root directory every storage path is resolved against.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	return nil
}

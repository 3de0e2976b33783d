package config

import (
	"fmt"
)

/* Validate validates the configuration */
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[c.Logging.Level] {
			return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
		}
	}

	if c.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[c.Logging.Format] {
			return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
		}
	}

	if c.NER.BaseURL == "" {
		return fmt.Errorf("ner base url is required")
	}

	if c.Detection.QuasiIdentifier.MinGroupSize < 2 {
		return fmt.Errorf("qi min group size must be >= 2")
	}
	if c.Detection.QuasiIdentifier.MaxGroupSize < c.Detection.QuasiIdentifier.MinGroupSize {
		return fmt.Errorf("qi max group size must be >= min group size")
	}

	return nil
}

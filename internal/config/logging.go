package config

import (
	"fmt"
	"slices"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" env:"YIJING_LOG_LEVEL"`   // debug, info, warn, error
	Format     string          `yaml:"format" env:"YIJING_LOG_FORMAT"` // json, console
	Dir        string          `yaml:"dir"`
	DebugMode  bool            `yaml:"debug_mode" env:"YIJING_DEBUG"` // false = no file logs
	Categories map[string]bool `yaml:"categories"`                    // per-category toggles
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "console"}
)

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false.
// Returns true if debug_mode is true and category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

func (c *LoggingConfig) validate() error {
	if c.Level != "" && !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Level, validLevels)
	}
	if c.Format != "" && !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("invalid logging.format: %s (valid: %v)", c.Format, validFormats)
	}
	return nil
}

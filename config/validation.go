package config

import (
	"errors"
	"fmt"
	"strings"

	"levelkit/engine"
)

// Validate checks the whole configuration, collecting every problem into
// one error message.
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}
	if err := c.Leveling.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("leveling config: %v", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}
	if s.IdleTimeout <= 0 {
		errs = append(errs, "idle_timeout must be positive")
	}
	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, "read_header_timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}
	for i, key := range s.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("api_keys[%d] is empty", i))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (s *StorageConfig) Validate() error {
	var errs []string

	switch s.Adapter {
	case "memory", "redis":
	case "sqlite":
		if s.SQLite.Path == "" {
			errs = append(errs, "sqlite.path cannot be empty")
		}
	default:
		errs = append(errs, "adapter must be one of: memory, sqlite, redis")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate applies the same bounds the engine enforces at award time, so a
// bad amount range fails at startup rather than on the first message.
func (l *LevelingConfig) Validate() error {
	var errs []string

	if l.Rate <= 0 {
		errs = append(errs, "rate must be positive")
	}
	if l.Per <= 0 {
		errs = append(errs, "per must be positive")
	}
	if l.AmountMin == l.AmountMax {
		if _, err := engine.FixedAmount(l.AmountMin); err != nil {
			errs = append(errs, fmt.Sprintf("amount: %v", err))
		}
	} else {
		if _, err := engine.RangeAmount(l.AmountMin, l.AmountMax); err != nil {
			errs = append(errs, fmt.Sprintf("amount: %v", err))
		}
	}
	for i, id := range l.NoXPRoles {
		if id <= 0 {
			errs = append(errs, fmt.Sprintf("no_xp_roles[%d] must be positive", i))
		}
	}
	for i, id := range l.NoXPChannels {
		if id <= 0 {
			errs = append(errs, fmt.Sprintf("no_xp_channels[%d] must be positive", i))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	var errs []string

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "level must be one of: debug, info, warn, error")
	}
	switch l.Format {
	case "json", "text":
	default:
		errs = append(errs, "format must be one of: json, text")
	}
	switch l.Output {
	case "stdout", "stderr":
	default:
		errs = append(errs, "output must be one of: stdout, stderr")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Amount builds the engine amount from the configured range.
func (l *LevelingConfig) Amount() (engine.Amount, error) {
	if l.AmountMin == l.AmountMax {
		return engine.FixedAmount(l.AmountMin)
	}
	return engine.RangeAmount(l.AmountMin, l.AmountMax)
}

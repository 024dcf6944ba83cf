package core

import (
	"fmt"
	"strings"
)

const (
	defaultGenerationDigits      = 6
	defaultGenerationMaxAttempts = 10
	maxGenerationDigits          = 18
)

// IdentifierConfig bounds asset id length in bytes. The zero value leaves
// ids unbounded.
type IdentifierConfig struct {
	MaxLength int `koanf:"max_length" mapstructure:"max_length"`
}

type GenerationConfig struct {
	Digits      int `koanf:"digits" mapstructure:"digits"`
	MaxAttempts int `koanf:"max_attempts" mapstructure:"max_attempts"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Identifiers IdentifierConfig `koanf:"identifiers" mapstructure:"identifiers"`
	Generation  GenerationConfig `koanf:"generation" mapstructure:"generation"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "ownership",
		Generation: GenerationConfig{
			Digits:      defaultGenerationDigits,
			MaxAttempts: defaultGenerationMaxAttempts,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Identifiers.MaxLength < 0 {
		return fmt.Errorf("core: identifiers.max_length must be >= 0")
	}
	if c.Generation.Digits <= 0 || c.Generation.Digits > maxGenerationDigits {
		return fmt.Errorf("core: generation.digits must be between 1 and %d", maxGenerationDigits)
	}
	if c.Generation.MaxAttempts <= 0 {
		return fmt.Errorf("core: generation.max_attempts must be > 0")
	}
	return nil
}

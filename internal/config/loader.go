package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/probeops/latrace/pkg/schema"
)

// configSchema is checked before the typed decode so a typo'd key or
// wrong-typed value produces a pointed message instead of a silently
// ignored setting.
const configSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"block": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"devices": {"type": "array", "items": {"type": "string"}, "maxItems": 64},
				"storeCapacity": {"type": "integer", "minimum": 1},
				"ringBytes": {"type": "integer", "minimum": 16}
			}
		},
		"syscalls": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"names": {"type": "array", "items": {"type": "string"}, "maxItems": 64},
				"comm": {"type": "string", "maxLength": 15},
				"storeCapacity": {"type": "integer", "minimum": 1},
				"ringBytes": {"type": "integer", "minimum": 48}
			}
		},
		"display": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"interval": {"type": "string"},
				"refresh": {"type": "string"},
				"batch": {"type": "boolean"}
			}
		},
		"histogram": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"min": {"type": "integer", "minimum": 1},
				"max": {"type": "integer", "minimum": 1},
				"sigFigs": {"type": "integer", "minimum": 1, "maximum": 5}
			}
		}
	}
}`

// Load reads, schema-checks, decodes, defaults, and validates a
// configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes.
func Parse(data []byte) (Config, error) {
	s, err := schema.Compile(configSchema)
	if err != nil {
		return Config{}, fmt.Errorf("internal schema: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if doc != nil {
		if err := s.Validate(doc); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

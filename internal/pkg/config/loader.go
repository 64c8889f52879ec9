package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult is returned by the LoadEnv* helpers. Value holds the
// loaded (or fallback) value, Warnings one message per fallback applied,
// and FallbackApplied reports whether the default was substituted because
// the environment value failed to parse or validate.
//
// The helpers never return an error: a missing variable silently yields the
// default, and a bad value yields the default plus a warning. Callers log
// the warnings and feed FallbackApplied into the config metrics.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString reads a string from the environment with no validation.
// Use LoadEnvWithFallback when the value needs to be checked.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string from the environment and runs it
// through validator (which may be nil). Invalid values fall back to
// defaultValue with a warning; unset variables fall back silently.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration reads a time.ParseDuration value (e.g. "30s", "15m")
// from the environment, validating it with validator when provided.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an integer from the environment, validating it with
// validator when provided.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	var parsed int
	if _, err := fmt.Sscanf(valueStr, "%d", &parsed); err != nil {
		return fallbackResult(envKey, valueStr, fmt.Errorf("invalid integer format"), defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

func fallbackResult(envKey, raw string, err error, defaultValue interface{}) ConfigLoadResult {
	warning := fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, defaultValue)
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}

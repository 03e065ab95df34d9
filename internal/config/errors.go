package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrMissingSecret marks a required credential with no value. It is always
	// wrapped together with ErrInvalidConfig.
	ErrMissingSecret = errors.New("required secret not set")
)

package config

import "errors"

var (
	// ErrInvalidConfig marks a configuration that loaded but cannot be used,
	// such as a weight table that does not sum to 1.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or environment that could not be read or decoded.
	ErrLoadConfig = errors.New("load config failed")
)

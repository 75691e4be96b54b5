package config

import "errors"

var (
	// ErrConfigUnmarshal is returned when config unmarshalling fails
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
	// ErrConfigFileLoad is returned when the config file exists but cannot be parsed
	ErrConfigFileLoad = errors.New("failed to load configuration file")
	// ErrConfigEnvLoad is returned when environment overrides cannot be loaded
	ErrConfigEnvLoad = errors.New("failed to load environment configuration")
)

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names for overrides.
const (
	EnvConfig             = "DRIVEFACADE_CONFIG"
	EnvCredentials        = "DRIVEFACADE_CREDENTIALS"
	EnvInsecureSkipVerify = "DRIVEFACADE_INSECURE_SKIP_VERIFY"
	EnvLogLevel           = "DRIVEFACADE_LOG_LEVEL"
	EnvLogFormat          = "DRIVEFACADE_LOG_FORMAT"
)

// EnvOverrides holds values read from DRIVEFACADE_* variables. Empty
// fields leave the config untouched.
type EnvOverrides struct {
	ConfigPath         string
	CredentialsFile    string
	InsecureSkipVerify string
	LogLevel           string
	LogFormat          string
}

// ReadEnvOverrides reads the override variables from the environment.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:         os.Getenv(EnvConfig),
		CredentialsFile:    os.Getenv(EnvCredentials),
		InsecureSkipVerify: os.Getenv(EnvInsecureSkipVerify),
		LogLevel:           os.Getenv(EnvLogLevel),
		LogFormat:          os.Getenv(EnvLogFormat),
	}
}

// Apply copies the set overrides into cfg.
func (e EnvOverrides) Apply(cfg *Config) error {
	if e.CredentialsFile != "" {
		cfg.CredentialsFile = e.CredentialsFile
	}
	if e.InsecureSkipVerify != "" {
		v, err := strconv.ParseBool(e.InsecureSkipVerify)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvInsecureSkipVerify, e.InsecureSkipVerify)
		}
		cfg.InsecureSkipVerify = v
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.LogFormat = e.LogFormat
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"everp/pkg/logging"
)

const (
	configDirName  = "everp"
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/everp.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, configDirName)
}

// LoadConfig loads configuration from configPath. An empty configPath
// selects DefaultConfigPath. A missing config.yaml is not an error.
func LoadConfig(configPath string) (EverpConfig, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return EverpConfig{}, NewConfigurationError(configFilePath, "", "io", err.Error())
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return EverpConfig{}, NewConfigurationErrorWithDetails(configFilePath, "", "parse",
				"config.yaml is not valid YAML", err.Error(),
				[]string{"Check indentation and quoting", "Compare with the example in the package documentation"})
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if err := loadEnvFiles(filepath.Join(configPath, envFileName), envFileName); err != nil {
		return EverpConfig{}, err
	}
	applyEnvOverrides(&config)

	return config, nil
}

// loadEnvFiles loads the .env files that exist. Variables already present
// in the environment are kept.
func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return NewConfigurationError(path, "", "parse", fmt.Sprintf("invalid .env file: %v", err))
		}
		logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	}
	return nil
}

func applyEnvOverrides(config *EverpConfig) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"EVERP_AUTH_ISSUER", &config.Auth.Issuer},
		{"EVERP_AUTHORIZATION_ENDPOINT", &config.Auth.AuthorizationEndpoint},
		{"EVERP_TOKEN_ENDPOINT", &config.Auth.TokenEndpoint},
		{"EVERP_LOGOUT_ENDPOINT", &config.Auth.LogoutEndpoint},
		{"EVERP_CLIENT_ID", &config.Auth.ClientID},
		{"EVERP_REDIRECT_URI", &config.Auth.RedirectURI},
		{"EVERP_GATEWAY_URL", &config.Gateway.BaseURL},
		{"EVERP_TOKEN_STORE", &config.TokenStore.Backend},
		{"EVERP_TOKEN_DIR", &config.TokenStore.Dir},
		{"EVERP_LOG_LEVEL", &config.Logging.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.target = v
		}
	}

	if v, ok := os.LookupEnv("EVERP_SCOPES"); ok && strings.TrimSpace(v) != "" {
		config.Auth.Scopes = strings.Fields(v)
	}
}

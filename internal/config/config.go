// Package config loads the debate engine's environment-variable
// configuration surface (spec.md §6). Grounded in the teacher's cmd/root.go
// viper.AutomaticEnv() usage and in original_source's config.py Settings
// class for the exact variable names and defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the server's environment-derived configuration.
type Config struct {
	CerebrasAPIKey string
	Host           string
	Port           int
	FrontendURL    string
	Debug          bool

	FastModel     string
	ProModel      string
	FallbackModel string

	RegistryPath string
}

// Load reads configuration from the environment, applying the defaults
// spec.md §6 specifies. CEREBRAS_API_KEY has no default: a per-request
// apiKey override can still substitute for it at start_debate time.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8000)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("DEBUG", false)
	v.SetDefault("FAST_MODEL", "llama3.1-8b")
	v.SetDefault("PRO_MODEL", "llama3.3-70b")
	v.SetDefault("FALLBACK_MODEL", "llama3.1-8b")
	v.SetDefault("REGISTRY_PATH", "configs/agents.yaml")

	cfg := Config{
		CerebrasAPIKey: v.GetString("CEREBRAS_API_KEY"),
		Host:           v.GetString("HOST"),
		Port:           v.GetInt("PORT"),
		FrontendURL:    v.GetString("FRONTEND_URL"),
		Debug:          v.GetBool("DEBUG"),
		FastModel:      v.GetString("FAST_MODEL"),
		ProModel:       v.GetString("PRO_MODEL"),
		FallbackModel:  v.GetString("FALLBACK_MODEL"),
		RegistryPath:   v.GetString("REGISTRY_PATH"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	}

	return cfg, nil
}

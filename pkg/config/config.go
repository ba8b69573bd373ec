// Package config provides configuration for the ors-proxy gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. Optional YAML config file (--config flag)
//  3. Environment variable overrides
//  4. Validation
package config

// Config holds all configuration for the proxy.
type Config struct {
	Addr           string `yaml:"addr"`             // default: "0.0.0.0:3000"
	UpstreamURL    string `yaml:"upstream_url"`     // default: "http://localhost:11434/v1/chat/completions"
	UpstreamAPIKey string `yaml:"upstream_api_key"` // optional bearer credential
	DatabaseURL    string `yaml:"database_url"`     // default: "./data/ors-proxy.db"
	LogLevel       string `yaml:"log_level"`        // error|warn|info|debug, default: "info"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Addr:        "0.0.0.0:3000",
		UpstreamURL: "http://localhost:11434/v1/chat/completions",
		DatabaseURL: "./data/ors-proxy.db",
		LogLevel:    "info",
	}
}

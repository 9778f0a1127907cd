package provision

import (
	"time"

	"go.uber.org/zap"
)

// Config holds provisioning settings.
type Config struct {
	// KeysURL is the key API; empty or Offline skips it.
	KeysURL string `mapstructure:"keys_url" default:"https://fortnite-api.com/v2/aes"`
	// KeysFile is read after the API and refreshed from it.
	KeysFile string `mapstructure:"keys_file" default:"keys.yaml"`
	// KeysTimeoutSeconds bounds one API request.
	KeysTimeoutSeconds int `mapstructure:"keys_timeout_seconds" default:"10"`
	// MappingsFile holds type mappings; empty disables the mappings check.
	MappingsFile string `mapstructure:"mappings_file" default:""`
	// RetryDelaySeconds is the pause before the single retry.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" default:"5"`
	// Offline skips the key API.
	Offline bool `mapstructure:"offline" default:"false"`
}

// NewServiceFromConfig wires the providers named by cfg.
func NewServiceFromConfig(logger *zap.Logger, cfg Config) *Service {
	opts := Options{RetryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second}

	if cfg.KeysURL != "" && !cfg.Offline {
		opts.KeyProviders = append(opts.KeyProviders,
			NewHTTPKeyProvider(cfg.KeysURL, time.Duration(cfg.KeysTimeoutSeconds)*time.Second))
		if cfg.KeysFile != "" {
			opts.Cache = NewFileKeyCache(cfg.KeysFile)
		}
	}
	if cfg.KeysFile != "" {
		opts.KeyProviders = append(opts.KeyProviders, NewFileKeyProvider(cfg.KeysFile))
	}
	if cfg.MappingsFile != "" {
		opts.Mappings = NewFileMappingsProvider(cfg.MappingsFile)
	}
	return NewService(logger, opts)
}

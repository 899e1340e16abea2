package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps CLI flag names to config keys for BindFlags.
var flagKeys = map[string]string{
	"max-products":  "ecommerce.max_products",
	"currency-code": "ecommerce.currency_code",
	"storage-url":   "storage.url",
	"transport":     "upload.transport",
	"upload-url":    "upload.url",
	"data-dir":      "forward.data_dir",
	"identity":      "identity",
	"host":          "collector.host",
	"port":          "collector.port",
	"output-dir":    "collector.data_dir",
}

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence. flags may be
// nil; only flags that were explicitly set override lower layers.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("ecommerce.max_products", 20)
	v.SetDefault("ecommerce.currency_code", "")
	v.SetDefault("storage.url", "memory://")
	v.SetDefault("upload.transport", TransportNone)
	v.SetDefault("upload.url", "")
	v.SetDefault("upload.timeout", "10s")
	v.SetDefault("upload.api_key", "")
	v.SetDefault("forward.data_dir", "")
	v.SetDefault("identity", "")
	v.SetDefault("collector.host", "127.0.0.1")
	v.SetDefault("collector.port", 50051)
	v.SetDefault("collector.data_dir", "./data")
	v.SetDefault("collector.max_skew", "5m")

	// Bind environment variables with MP_ prefix
	v.SetEnvPrefix("MP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Ecommerce: EcommerceConfig{
			MaxProducts:  v.GetInt("ecommerce.max_products"),
			CurrencyCode: v.GetString("ecommerce.currency_code"),
		},
		Storage: StorageConfig{URL: v.GetString("storage.url")},
		Upload: UploadConfig{
			Transport: strings.ToLower(v.GetString("upload.transport")),
			URL:       v.GetString("upload.url"),
			Timeout:   v.GetDuration("upload.timeout"),
			APIKey:    v.GetString("upload.api_key"),
		},
		Forward: ForwardConfig{DataDir: v.GetString("forward.data_dir")},
		Collector: CollectorConfig{
			Host:    v.GetString("collector.host"),
			Port:    v.GetInt("collector.port"),
			DataDir: v.GetString("collector.data_dir"),
			MaxSkew: v.GetDuration("collector.max_skew"),
		},
		Identity: v.GetString("identity"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// validateConfig checks capacity, timeout and transport settings.
func validateConfig(cfg *Config) error {
	if cfg.Ecommerce.MaxProducts <= 0 {
		return fmt.Errorf("max_products must be positive, got %d", cfg.Ecommerce.MaxProducts)
	}
	if cfg.Upload.Timeout <= 0 {
		return fmt.Errorf("upload timeout must be positive, got %v", cfg.Upload.Timeout)
	}
	switch cfg.Upload.Transport {
	case TransportNone:
	case TransportHTTP, TransportGRPC:
		if cfg.Upload.URL == "" {
			return fmt.Errorf("upload.url is required for %s transport", cfg.Upload.Transport)
		}
	default:
		return fmt.Errorf("upload.transport must be one of none, http, grpc, got %q", cfg.Upload.Transport)
	}
	if cfg.Storage.URL == "" {
		return fmt.Errorf("storage.url must not be empty")
	}
	if cfg.Collector.Port < 1 || cfg.Collector.Port > 65535 {
		return fmt.Errorf("collector port must be between 1 and 65535, got %d", cfg.Collector.Port)
	}
	if cfg.Collector.MaxSkew <= 0 {
		return fmt.Errorf("collector max_skew must be positive, got %v", cfg.Collector.MaxSkew)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("api_secret") || v.InConfig("upload.api_secret") {
		return fmt.Errorf("API secrets not allowed in config files (use MP_API_SECRET environment variable)")
	}
	return nil
}

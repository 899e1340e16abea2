// Package config provides configuration management for the commerce pipeline.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Upload transports.
const (
	TransportNone = "none"
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds configuration for the commerce pipeline and its collaborators.
type Config struct {
	Ecommerce EcommerceConfig
	Storage   StorageConfig
	Upload    UploadConfig
	Forward   ForwardConfig
	Collector CollectorConfig
	Identity  string
}

// EcommerceConfig holds the Assembler and Cart settings.
type EcommerceConfig struct {
	MaxProducts  int
	CurrencyCode string
}

// StorageConfig selects the cart persistence backend by URL scheme:
// memory://, sqlite://, postgres:// or redis://.
type StorageConfig struct {
	URL string
}

// UploadConfig configures the transport collaborator.
type UploadConfig struct {
	Transport string
	URL       string
	Timeout   time.Duration
	APIKey    string
}

// ForwardConfig configures local forwarders. An empty DataDir disables the
// JSONL forwarder.
type ForwardConfig struct {
	DataDir string
}

// CollectorConfig configures the development collector that receives gRPC
// uploads and appends them to JSONL files under DataDir.
type CollectorConfig struct {
	Host    string
	Port    int
	DataDir string
	MaxSkew time.Duration
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Ecommerce: EcommerceConfig{MaxProducts: 20},
		Storage:   StorageConfig{URL: "memory://"},
		Upload: UploadConfig{
			Transport: TransportNone,
			Timeout:   10 * time.Second,
		},
		Collector: CollectorConfig{
			Host:    "127.0.0.1",
			Port:    50051,
			DataDir: "./data",
			MaxSkew: 5 * time.Minute,
		},
	}
}

// APISecret extracts the upload signing secret from MP_API_SECRET.
// Format: <key_id>:<base64_secret>. Returns empty values when unset.
func APISecret() (keyID string, secret []byte, err error) {
	val := os.Getenv("MP_API_SECRET")
	if val == "" {
		return "", nil, nil
	}
	keyID, secret, err = ParseSecretWithID(val)
	if err != nil {
		return "", nil, fmt.Errorf("MP_API_SECRET: %w", err)
	}
	return keyID, secret, nil
}

// ParseSecret decodes a base64-encoded signing secret.
func ParseSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseSecretWithID parses key_id:base64_secret format.
// Key ID must be 32 hex chars (UUIDv7 without hyphens), matching the API key.
func ParseSecretWithID(envValue string) (keyID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <key_id>:<base64_secret>")
	}

	keyID = parts[0]
	if len(keyID) != 32 {
		return "", nil, fmt.Errorf("key_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range keyID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("key_id must be hex chars only")
		}
	}

	secret, err = ParseSecret(parts[1])
	if err != nil {
		return "", nil, err
	}
	return keyID, secret, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// BillingConfig represents the billing service configuration
type BillingConfig struct {
	Stripe    StripeConfig    `toml:"stripe"`
	Send      SendConfig      `toml:"send"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// StripeConfig contains payment-ledger credentials
type StripeConfig struct {
	APIKey        string `toml:"api_key"`
	WebhookSecret string `toml:"webhook_secret"`
}

// SendConfig bounds the local-commit retry loop of the send operation
type SendConfig struct {
	CommitAttempts      int `toml:"commit_attempts"`
	CommitBackoffMillis int `toml:"commit_backoff_ms"`
}

// RateLimitConfig bounds send attempts per actor
type RateLimitConfig struct {
	SendLimit         int `toml:"send_limit"`
	SendWindowSeconds int `toml:"send_window_seconds"`
}

// DefaultBillingConfig returns the production defaults
func DefaultBillingConfig() *BillingConfig {
	return &BillingConfig{
		Send: SendConfig{
			CommitAttempts:      3,
			CommitBackoffMillis: 200,
		},
		RateLimit: RateLimitConfig{
			SendLimit:         10,
			SendWindowSeconds: 60,
		},
	}
}

// LoadBillingConfig loads configuration from a TOML file over the defaults
func LoadBillingConfig(filename string) (*BillingConfig, error) {
	config := DefaultBillingConfig()
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return config, nil
}

func (c *SendConfig) CommitBackoff() time.Duration {
	return time.Duration(c.CommitBackoffMillis) * time.Millisecond
}

func (c *RateLimitConfig) SendWindow() time.Duration {
	return time.Duration(c.SendWindowSeconds) * time.Second
}

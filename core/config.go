package core

import (
	"fmt"
	"strings"
	"time"
)

type WalletConfig struct {
	BaseURL               string `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

type PollConfig struct {
	IntervalSeconds int `koanf:"interval_seconds" mapstructure:"interval_seconds"`
	MaxAttempts     int `koanf:"max_attempts" mapstructure:"max_attempts"`
}

type Config struct {
	ServiceName string       `koanf:"service_name" mapstructure:"service_name"`
	Wallet      WalletConfig `koanf:"wallet" mapstructure:"wallet"`
	Poll        PollConfig   `koanf:"poll" mapstructure:"poll"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "provision",
		Wallet: WalletConfig{
			RequestTimeoutSeconds: 30,
		},
		Poll: PollConfig{
			IntervalSeconds: 5,
			MaxAttempts:     60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Wallet.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("core: wallet.request_timeout_seconds must be positive")
	}
	if c.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("core: poll.interval_seconds must be positive")
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("core: poll.max_attempts must be positive")
	}
	return nil
}

func (c WalletConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

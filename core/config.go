package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultServiceURL   = "https://bsky.social"
	defaultFeedPageSize = 50
	defaultRunLeaseTTL  = 60 * time.Second
)

type FeedConfig struct {
	ServiceURL string `koanf:"service_url" mapstructure:"service_url"`
	PageSize   int    `koanf:"page_size" mapstructure:"page_size"`
}

type AccountConfig struct {
	Identifier  string `koanf:"identifier" mapstructure:"identifier"`
	AppPassword string `koanf:"app_password" mapstructure:"app_password"`
}

type WebhookConfig struct {
	URL string `koanf:"url" mapstructure:"url"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Account     AccountConfig `koanf:"account" mapstructure:"account"`
	Feed        FeedConfig    `koanf:"feed" mapstructure:"feed"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
	RunLeaseTTL time.Duration `koanf:"run_lease_ttl" mapstructure:"run_lease_ttl"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "feed-relay",
		Feed: FeedConfig{
			ServiceURL: defaultServiceURL,
			PageSize:   defaultFeedPageSize,
		},
		RunLeaseTTL: defaultRunLeaseTTL,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Feed.ServiceURL) != "" {
		if _, err := url.Parse(c.Feed.ServiceURL); err != nil {
			return fmt.Errorf("core: feed service_url is invalid: %w", err)
		}
	}
	if c.Feed.PageSize < 0 {
		return fmt.Errorf("core: feed page_size must not be negative")
	}
	if strings.TrimSpace(c.Webhook.URL) != "" {
		if _, err := url.Parse(c.Webhook.URL); err != nil {
			return fmt.Errorf("core: webhook url is invalid: %w", err)
		}
	}
	if c.RunLeaseTTL < 0 {
		return fmt.Errorf("core: run_lease_ttl must not be negative")
	}
	return nil
}

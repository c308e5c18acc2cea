package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/energy_monitor/pkg/pathing"
	"github.com/NotCoffee418/energy_monitor/pkg/periods"
	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ActiveMonitorAPIConfig   *MonitorAPIConfig
	ActiveMonitorWatchConfig *MonitorWatchConfig
)

// DefaultCardConfig holds the defaults the card applies when a field is not configured.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Title:             "Energy Monitor",
		AutoDetect:        true,
		Entities:          []EntityConfig{},
		ShowComparison:    true,
		ShowCosts:         true,
		PricePerKwh:       0.25,
		DefaultPeriod:     string(periods.Day),
		DefaultComparison: string(periods.PreviousDay),
	}
}

func DefaultMonitorAPIConfig() *MonitorAPIConfig {
	return &MonitorAPIConfig{
		Timezone: "Local",
		HomeAssistant: HomeAssistantConfig{
			URL:            "http://homeassistant.local:8123",
			Token:          "",
			TimeoutSeconds: 0,
		},
		Card: DefaultCardConfig(),
		API: APIConfig{
			ListenAddress:  "0.0.0.0",
			ListenPort:     9040,
			ReloadSchedule: "@every 15m",
			CORSOrigins:    []string{"*"},
		},
		Cache: CacheConfig{
			Enabled:       true,
			RetentionDays: 400,
		},
		Logging: LoggingConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

func DefaultMonitorWatchConfig() *MonitorWatchConfig {
	return &MonitorWatchConfig{
		MonitorAPIHost: "localhost:9040",
		TLSEnabled:     false,
		Logging: LoggingConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

func LoadMonitorAPIConfig() error {
	cfg, err := LoadMonitorAPIConfigFile(filepath.Join(pathing.GetConfigDir(), "monitor_api.toml"))
	if err != nil {
		return err
	}
	ActiveMonitorAPIConfig = cfg
	return nil
}

func LoadMonitorWatchConfig() error {
	cfg, err := LoadMonitorWatchConfigFile(filepath.Join(pathing.GetConfigDir(), "monitor_watch.toml"))
	if err != nil {
		return err
	}
	ActiveMonitorWatchConfig = cfg
	return nil
}

// LoadMonitorAPIConfigFile reads the file over the defaults and applies environment overrides.
// A default file is created if none exists.
func LoadMonitorAPIConfigFile(configPath string) (*MonitorAPIConfig, error) {
	if err := writeDefaultIfMissing(configPath, DefaultMonitorAPIConfig()); err != nil {
		return nil, err
	}

	cfg := DefaultMonitorAPIConfig()
	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func LoadMonitorWatchConfigFile(configPath string) (*MonitorWatchConfig, error) {
	if err := writeDefaultIfMissing(configPath, DefaultMonitorWatchConfig()); err != nil {
		return nil, err
	}

	cfg := DefaultMonitorWatchConfig()
	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
	}
	if strings.TrimSpace(cfg.MonitorAPIHost) == "" {
		return nil, fmt.Errorf("config validation failed: monitor_api_host cannot be empty")
	}
	if err := ValidateLogging(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func writeDefaultIfMissing(configPath string, cfg any) error {
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		return nil
	}
	cfgFile, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create default config %s: %w", configPath, err)
	}
	defer cfgFile.Close()
	return toml.NewEncoder(cfgFile).Encode(cfg)
}

// Validate checks the whole configuration once, reporting every problem found.
func (c *MonitorAPIConfig) Validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if _, err := url.ParseRequestURI(c.HomeAssistant.URL); err != nil {
		errs = append(errs, fmt.Errorf("invalid home_assistant.url: %w", err))
	}
	if c.HomeAssistant.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("home_assistant.timeout_seconds must not be negative, got %d", c.HomeAssistant.TimeoutSeconds))
	}

	if err := c.Card.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Cache.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("cache.retention_days must not be negative, got %d", c.Cache.RetentionDays))
	}

	if c.API.ListenPort <= 0 || c.API.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("api.listen_port must be between 1 and 65535, got %d", c.API.ListenPort))
	}

	if err := ValidateLogging(&c.Logging); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *CardConfig) Validate() error {
	var errs []error
	if c.PricePerKwh < 0 {
		errs = append(errs, fmt.Errorf("card.price_per_kwh must not be negative, got %g", c.PricePerKwh))
	}
	for i, e := range c.Entities {
		id := strings.TrimSpace(e.EntityID)
		if id == "" {
			errs = append(errs, fmt.Errorf("card.entities[%d]: entity_id cannot be empty", i))
			continue
		}
		if !strings.Contains(id, ".") {
			errs = append(errs, fmt.Errorf("card.entities[%d]: entity_id %q is not domain qualified", i, id))
		}
	}
	if !periods.IsNamed(periods.Selector(c.DefaultPeriod)) {
		errs = append(errs, fmt.Errorf("card.default_period: %w: %q", periods.ErrUnknownPeriod, c.DefaultPeriod))
	}
	if !periods.IsComparison(periods.Selector(c.DefaultComparison)) {
		errs = append(errs, fmt.Errorf("card.default_comparison: %w: %q", periods.ErrUnknownPeriod, c.DefaultComparison))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *MonitorAPIConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *MonitorAPIConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddress, c.API.ListenPort)
}

func (c *MonitorAPIConfig) HistoryCachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return pathing.GetHistoryDbPath()
}

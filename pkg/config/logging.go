package config

import (
	"fmt"
	"os"
	"strings"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ValidateLogging normalises and validates the logging configuration
func ValidateLogging(cfg *LoggingConfig) error {
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format != "json" && cfg.Format != "console" && cfg.Format != "logfmt" {
		return fmt.Errorf("log_format must be 'json', 'console', or 'logfmt', got '%s'", cfg.Format)
	}

	cfg.Level = strings.ToLower(cfg.Level)
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error, got '%s'", cfg.Level)
	}

	return nil
}

// NewLogger creates a zap logger based on the logging configuration
func NewLogger(cfg *LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	if cfg.Format == "logfmt" {
		encoderConfig := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}

		core := zapcore.NewCore(
			zaplogfmt.NewEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		)
		return zap.New(core), nil
	}

	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

// PrintConfig logs the configuration without the access token.
func (c *MonitorAPIConfig) PrintConfig(logger *zap.Logger) {
	entityIDs := make([]string, 0, len(c.Card.Entities))
	for _, e := range c.Card.Entities {
		entityIDs = append(entityIDs, e.EntityID)
	}
	logger.Info("configuration loaded",
		zap.String("timezone", c.Timezone),
		zap.String("hass_url", c.HomeAssistant.URL),
		zap.Bool("hass_token_set", c.HomeAssistant.Token != ""),
		zap.Int("hass_timeout_seconds", c.HomeAssistant.TimeoutSeconds),
		zap.Bool("auto_detect", c.Card.AutoDetect),
		zap.Strings("entities", entityIDs),
		zap.Bool("show_comparison", c.Card.ShowComparison),
		zap.Bool("show_costs", c.Card.ShowCosts),
		zap.Float64("price_per_kwh", c.Card.PricePerKwh),
		zap.String("default_period", c.Card.DefaultPeriod),
		zap.String("default_comparison", c.Card.DefaultComparison),
		zap.String("listen", c.ListenAddr()),
		zap.String("reload_schedule", c.API.ReloadSchedule),
		zap.Bool("history_cache", c.Cache.Enabled),
		zap.String("log_format", c.Logging.Format),
		zap.String("log_level", c.Logging.Level),
	)
}

package config

// EntityConfig is a manually declared sensor.
type EntityConfig struct {
	EntityID string `toml:"entity_id" json:"entity_id"`
	Name     string `toml:"name,omitempty" json:"name,omitempty"`
	Icon     string `toml:"icon,omitempty" json:"icon,omitempty"`
}

// CardConfig is the engine configuration shared with the presentation layer.
type CardConfig struct {
	Title          string         `toml:"title" json:"title" env:"CARD_TITLE"`
	AutoDetect     bool           `toml:"auto_detect" json:"auto_detect" env:"AUTO_DETECT"`
	Entities       []EntityConfig `toml:"entities" json:"entities"`
	ShowComparison bool           `toml:"show_comparison" json:"show_comparison" env:"SHOW_COMPARISON"`
	ShowCosts      bool           `toml:"show_costs" json:"show_costs" env:"SHOW_COSTS"`
	PricePerKwh    float64        `toml:"price_per_kwh" json:"price_per_kwh" env:"PRICE_PER_KWH"`
	// Selectors applied at startup, see pkg/periods.
	DefaultPeriod     string `toml:"default_period" json:"default_period" env:"DEFAULT_PERIOD"`
	DefaultComparison string `toml:"default_comparison" json:"default_comparison" env:"DEFAULT_COMPARISON"`
}

type HomeAssistantConfig struct {
	URL   string `toml:"url" env:"HASS_URL" env-description:"Home Assistant base URL"`
	Token string `toml:"token" env:"HASS_TOKEN" env-description:"Long-lived access token"`
	// 0 means no timeout; a hung history query hangs the load cycle.
	TimeoutSeconds int `toml:"timeout_seconds" env:"HASS_TIMEOUT_SECONDS"`
}

type APIConfig struct {
	ListenAddress string `toml:"listen_address" env:"LISTEN_ADDRESS"`
	ListenPort    int    `toml:"listen_port" env:"LISTEN_PORT"`
	// Cron spec for periodic reloads, empty disables.
	ReloadSchedule string   `toml:"reload_schedule" env:"RELOAD_SCHEDULE"`
	CORSOrigins    []string `toml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled" env:"HISTORY_CACHE_ENABLED"`
	// Empty uses pathing.GetHistoryDbPath()
	Path string `toml:"path" env:"HISTORY_CACHE_PATH"`
	// Cached series older than this are pruned at startup, 0 keeps everything.
	RetentionDays int `toml:"retention_days" env:"HISTORY_CACHE_RETENTION_DAYS"`
}

type LoggingConfig struct {
	Format string `toml:"log_format" env:"LOG_FORMAT"`
	Level  string `toml:"log_level" env:"LOG_LEVEL"`
}

type MonitorAPIConfig struct {
	// IANA zone used to derive "today", "Local" for the system zone.
	Timezone      string              `toml:"timezone" env:"MONITOR_TIMEZONE"`
	HomeAssistant HomeAssistantConfig `toml:"home_assistant"`
	Card          CardConfig          `toml:"card"`
	API           APIConfig           `toml:"api"`
	Cache         CacheConfig         `toml:"cache"`
	Logging       LoggingConfig       `toml:"logging"`
}

type MonitorWatchConfig struct {
	MonitorAPIHost string        `toml:"monitor_api_host" env:"MONITOR_API_HOST"`
	TLSEnabled     bool          `toml:"tls_enabled" env:"MONITOR_API_TLS"`
	Logging        LoggingConfig `toml:"logging"`
}

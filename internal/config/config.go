package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultTimeZone        = "Europe/Paris"
	DefaultListenAddr      = ":8080"
	DefaultMetricsAddr     = ":9090"
	DefaultFetchTimeout    = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Config is read once at startup and handed to the constructors.
type Config struct {
	APIKey      string
	CalendarIDs []string
	TimeZone    string

	// Endpoint overrides the Calendar API base URL. Empty keeps the library default.
	Endpoint string

	ListenAddr  string
	MetricsAddr string

	FetchTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. If CONFIG_FILE is set
// the file is read first and environment variables take precedence over it.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("time_zone", DefaultTimeZone)
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("metrics_addr", DefaultMetricsAddr)
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("err reading config file %s: %w", path, err)
		}
	}

	cfg := Config{
		APIKey:          v.GetString("gcal_api_key"),
		CalendarIDs:     calendarIDs(v),
		TimeZone:        v.GetString("time_zone"),
		Endpoint:        v.GetString("gcal_endpoint"),
		ListenAddr:      v.GetString("listen_addr"),
		MetricsAddr:     v.GetString("metrics_addr"),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize replaces empty or invalid values with defaults.
func (c *Config) Normalize() {
	if c.TimeZone == "" {
		c.TimeZone = DefaultTimeZone
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.CalendarIDs == nil {
		c.CalendarIDs = []string{}
	}
}

// calendarIDs accepts both the separated string form used in the
// environment and a list in a config file.
func calendarIDs(v *viper.Viper) []string {
	if s := v.GetString("calendar_ids"); s != "" {
		return ParseCalendarIDs(s)
	}
	return ParseCalendarIDs(strings.Join(v.GetStringSlice("calendar_ids"), ","))
}

var separators = regexp.MustCompile(`[\s,]+`)

// ParseCalendarIDs splits value on runs of whitespace and commas,
// dropping empty tokens and keeping order.
func ParseCalendarIDs(value string) []string {
	ids := make([]string, 0)
	for _, item := range separators.Split(value, -1) {
		if item = strings.TrimSpace(item); item != "" {
			ids = append(ids, item)
		}
	}
	return ids
}

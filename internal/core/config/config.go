package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type SessionCfg struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
	RedisAddr  string
}

type EventsCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	Queue   int
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr               string
	LogLevel           string
	LogConsole         bool
	LogSampleN         int
	CountriesAPIURL    string
	UpstreamTimeout    time.Duration
	CatalogLoadTimeout time.Duration
	ViewCacheSize      int
	Session            SessionCfg
	Events             EventsCfg
	Metrics            MetricsCfg
}

func FromEnv() Config {
	return Config{
		Addr:               getenv("ADDR", ":8090"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogConsole:         getbool("LOG_CONSOLE", false),
		LogSampleN:         getint("LOG_SAMPLE_N", 0),
		CountriesAPIURL:    strings.TrimRight(getenv("COUNTRIES_API_URL", "https://restcountries.com/v2"), "/"),
		UpstreamTimeout:    getduration("UPSTREAM_TIMEOUT", 15*time.Second),
		CatalogLoadTimeout: getduration("CATALOG_LOAD_TIMEOUT", 30*time.Second),
		ViewCacheSize:      getint("VIEW_CACHE_SIZE", 256),
		Session: SessionCfg{
			Backend:    strings.ToLower(getenv("SESSION_BACKEND", "memory")),
			TTL:        getduration("SESSION_TTL", 30*time.Minute),
			MaxEntries: getint("SESSION_MAX_ENTRIES", 1024),
			RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getlist("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "country-browse-events"),
			Queue:   getint("EVENTS_QUEUE", 1024),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "a:9092, b:9092" into a list, dropping empty entries
func getlist(k, def string) []string {
	var out []string
	for p := range strings.SplitSeq(getenv(k, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Search provider selection: "yelp" or "osm".
	SearchProvider string
	YelpBase       string
	YelpKey        string
	OverpassURL    string
	NominatimURL   string

	OpenAIBase  string
	OpenAIKey   string
	OpenAIModel string

	Workers  int
	CacheTTL time.Duration

	// TrendingDemoFallback enables the curated demo list when the store is
	// empty. Off by default; an empty store then returns an empty list.
	TrendingDemoFallback bool
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/dinefinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		SearchProvider: env("SEARCH_PROVIDER", "osm"),
		YelpBase:       env("YELP_BASE_URL", "https://api.yelp.com/v3"),
		YelpKey:        env("YELP_API_KEY", ""),
		OverpassURL:    env("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		NominatimURL:   env("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),

		OpenAIBase:  env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIKey:   env("OPENAI_API_KEY", ""),
		OpenAIModel: env("OPENAI_MODEL", "gpt-3.5-turbo"),

		Workers:              atoi("SEED_WORKERS", 8),
		CacheTTL:             time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		TrendingDemoFallback: env("TRENDING_DEMO_FALLBACK", "") == "true",
	}
	if c.SearchProvider == "yelp" && c.YelpKey == "" {
		log.Warn().Msg("YELP_API_KEY is empty; Yelp provider calls will fail fast")
	}
	if c.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty; AI features fall back to heuristics")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

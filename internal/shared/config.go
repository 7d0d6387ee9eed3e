package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
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

	// review feed
	FeedBase string
	FeedRPS  int

	// model providers
	Provider      string
	GCPProject    string
	GCPToken      string
	GCPRegions    []string
	OpenAIKey     string
	OpenAIBaseURL string

	DataDir     string
	PromptsDir  string
	AppIDs      []string
	Workers     int
	ReviewCount int
	Lang        string
	Country     string
	CacheTTL    time.Duration
	InlineLimit int
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env load failed")
	}

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
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/playreviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		FeedBase: env("FEED_BASE_URL", "https://play.googleapis.com/store"),
		FeedRPS:  atoi("FEED_RPS", 5),

		Provider:      env("MODEL_PROVIDER", "gemini"),
		GCPProject:    env("GCP_PROJECT", ""),
		GCPToken:      env("GCP_TOKEN", ""),
		GCPRegions:    list("GCP_REGIONS"),
		OpenAIKey:     env("OPENAI_API_KEY", ""),
		OpenAIBaseURL: env("OPENAI_BASE_URL", ""),

		DataDir:     env("DATA_DIR", "data"),
		PromptsDir:  env("PROMPTS_DIR", "prompts"),
		AppIDs:      list("APP_IDS"),
		Workers:     atoi("FETCH_WORKERS", 4),
		ReviewCount: atoi("FETCH_REVIEW_COUNT", 100),
		Lang:        env("FETCH_LANG", "en"),
		Country:     env("FETCH_COUNTRY", "us"),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 3600)) * time.Second,
		InlineLimit: atoi("INLINE_LIMIT_BYTES", 0),
	}
	if c.Provider == "gemini" && c.GCPProject == "" {
		log.Warn().Msg("GCP_PROJECT is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(k string) []string {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

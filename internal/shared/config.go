package shared

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	AIProvider string // perplexity|gemini
	AIBaseURL  string
	AIKey      string
	AIModel    string // empty picks the provider default
	AIRPS      int

	MaxAttempts int
	RetryDelay  time.Duration
	EntityDelay time.Duration
	Workers     int
	FAQ         bool

	CacheTTL time.Duration
	LockTTL  time.Duration
}

func Load() Config {
	// .env.local wins over .env; real env vars win over both
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}

	secs := func(k string) time.Duration { return time.Duration(v.GetInt(k)) * time.Second }

	c := Config{
		AppEnv:      v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		MySQLDSN:    v.GetString("MYSQL_DSN"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisPass:   v.GetString("REDIS_PASSWORD"),
		RedisDB:     v.GetInt("REDIS_DB"),
		AIProvider:  v.GetString("AI_PROVIDER"),
		AIBaseURL:   v.GetString("AI_BASE_URL"),
		AIKey:       v.GetString("AI_API_KEY"),
		AIModel:     v.GetString("AI_MODEL"),
		AIRPS:       v.GetInt("AI_RPS"),
		MaxAttempts: v.GetInt("ENRICH_MAX_ATTEMPTS"),
		RetryDelay:  secs("ENRICH_RETRY_DELAY_SECONDS"),
		EntityDelay: secs("ENRICH_ENTITY_DELAY_SECONDS"),
		Workers:     v.GetInt("ENRICH_WORKERS"),
		FAQ:         v.GetBool("ENRICH_FAQ"),
		CacheTTL:    secs("CACHE_TTL_SECONDS"),
		LockTTL:     secs("RUN_LOCK_TTL_SECONDS"),
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.AIKey == "" {
		log.Warn().Msg("AI_API_KEY is empty")
	}
	return c
}

var defaults = map[string]any{
	"APP_ENV":                     "prod",
	"LOG_LEVEL":                   "info",
	"HTTP_ADDR":                   ":8080",
	"METRICS_ADDR":                "",
	"MYSQL_DSN":                   "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4&loc=UTC",
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"AI_PROVIDER":                 "perplexity",
	"AI_BASE_URL":                 "https://api.perplexity.ai",
	"AI_API_KEY":                  "",
	"AI_MODEL":                    "",
	"AI_RPS":                      1,
	"ENRICH_MAX_ATTEMPTS":         2,
	"ENRICH_RETRY_DELAY_SECONDS":  5,
	"ENRICH_ENTITY_DELAY_SECONDS": 2,
	"ENRICH_WORKERS":              1,
	"ENRICH_FAQ":                  true,
	"CACHE_TTL_SECONDS":           900,
	"RUN_LOCK_TTL_SECONDS":        3600,
}

package shared

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	DBDriver      string
	DatabaseDSN   string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	PlacesBase    string
	PlacesKey     string
	SearchLoc     string
	SearchRadius  int
	SyncSchedule  string
	SyncTimeout   time.Duration
	CacheTTL      time.Duration
	CatalogFile   string
	RefreshPerMin int
	CORSOrigins   []string
}

var defaults = map[string]any{
	"APP_ENV":                 "prod",
	"LOG_LEVEL":               "info",
	"HTTP_ADDR":               ":4000",
	"METRICS_ADDR":            "",
	"DB_DRIVER":               "mysql",
	"DATABASE_DSN":            "root:root@tcp(localhost:3306)/localbiz?parseTime=true&charset=utf8mb4",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"GOOGLE_PLACES_API_KEY":   "",
	"PLACES_BASE_URL":         "https://maps.googleapis.com/maps/api/place",
	"SEARCH_LOCATION":         "18.6490,73.8773",
	"SEARCH_RADIUS":           5000,
	"SYNC_SCHEDULE":           "0 3 * * *",
	"SYNC_TIMEOUT":            "5m",
	"CACHE_TTL_SECONDS":       900,
	"CATALOG_FILE":            "",
	"REFRESH_RATE_PER_MINUTE": 0,
	"CORS_ORIGINS":            "*",
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	c := Config{
		AppEnv:        v.GetString("APP_ENV"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		MetricsAddr:   v.GetString("METRICS_ADDR"),
		DBDriver:      v.GetString("DB_DRIVER"),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPass:     v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		PlacesBase:    strings.TrimRight(v.GetString("PLACES_BASE_URL"), "/"),
		PlacesKey:     v.GetString("GOOGLE_PLACES_API_KEY"),
		SearchLoc:     v.GetString("SEARCH_LOCATION"),
		SearchRadius:  v.GetInt("SEARCH_RADIUS"),
		SyncSchedule:  v.GetString("SYNC_SCHEDULE"),
		SyncTimeout:   v.GetDuration("SYNC_TIMEOUT"),
		CacheTTL:      time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		CatalogFile:   v.GetString("CATALOG_FILE"),
		RefreshPerMin: v.GetInt("REFRESH_RATE_PER_MINUTE"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
	}
	// PORT wins over HTTP_ADDR (set by most hosting platforms)
	if p := v.GetString("PORT"); p != "" {
		c.HTTPAddr = ":" + p
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY is empty; sync runs will fail until it is set")
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

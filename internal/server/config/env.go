package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names read by parseEnv.
const (
	envFile           = "QUESTLINE_ENV_FILE"
	envAddr           = "QUESTLINE_ADDR"
	envDatabaseDSN    = "QUESTLINE_DATABASE_DSN"
	envSecretKey      = "QUESTLINE_SECRET_KEY"
	envTokenValidity  = "QUESTLINE_TOKEN_VALIDITY"
	envCookieSecure   = "QUESTLINE_COOKIE_SECURE"
	envRedisAddr      = "QUESTLINE_REDIS_ADDR"
	envLogBackend     = "QUESTLINE_LOG_BACKEND"
	envLogLevel       = "QUESTLINE_LOG_LEVEL"
	envAllowedOrigins = "QUESTLINE_ALLOWED_ORIGINS"
	envTrustedProxies = "QUESTLINE_TRUSTED_PROXIES"
)

// parseEnv loads an optional dotenv file (QUESTLINE_ENV_FILE, default ".env")
// into the process environment and then copies any QUESTLINE_* variables
// that are set into config. Variables already present in the environment win
// over the file. Malformed durations and booleans are ignored.
func parseEnv(config *Config) {
	path := os.Getenv(envFile)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv(envAddr); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv(envDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(envSecretKey); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(envTokenValidity); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := os.LookupEnv(envCookieSecure); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.CookieSecure = b
		}
	}
	if v, ok := os.LookupEnv(envRedisAddr); ok {
		config.RedisAddr = v
	}
	if v, ok := os.LookupEnv(envLogBackend); ok {
		config.LogBackend = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := os.LookupEnv(envAllowedOrigins); ok {
		config.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(envTrustedProxies); ok {
		config.TrustedProxies = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/questline/internal/flagx"
	"github.com/dmitrijs2005/questline/internal/timex"
)

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration so both "168h" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrHTTP      string          `json:"endpoint_addr_http"`
	DatabaseDSN           string          `json:"database_dsn"`
	SecretKey             string          `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	CookieName            string          `json:"cookie_name"`
	CookieSecure          *bool           `json:"cookie_secure"`
	RedisAddr             string          `json:"redis_addr"`
	LeaderboardCacheTTL   *timex.Duration `json:"leaderboard_cache_ttl"`
	LogBackend            string          `json:"log_backend"`
	LogLevel              string          `json:"log_level"`
	AllowedOrigins        []string        `json:"allowed_origins"`
	AuthRateLimit         *float64        `json:"auth_rate_limit"`
	AuthRateBurst         *int            `json:"auth_rate_burst"`
	TrustedProxies        []string        `json:"trusted_proxies"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Absent keys leave the current value untouched. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.CookieName, c.CookieName)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LeaderboardCacheTTL != nil {
		config.LeaderboardCacheTTL = c.LeaderboardCacheTTL.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	if c.AuthRateBurst != nil {
		config.AuthRateBurst = *c.AuthRateBurst
	}
	if len(c.TrustedProxies) > 0 {
		config.TrustedProxies = c.TrustedProxies
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package app

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvUserAgent   = "PAGEFACTS_UA"
	EnvCacheDir    = "PAGEFACTS_CACHE_DIR"
	EnvCacheMaxAge = "PAGEFACTS_CACHE_MAX_AGE"
	EnvFormat      = "PAGEFACTS_FORMAT"
	EnvBaseURL     = "PAGEFACTS_BASE_URL"
	EnvVerbose     = "PAGEFACTS_VERBOSE"
	EnvRobots      = "PAGEFACTS_ROBOTS"
)

// ApplyEnvOverrides replaces fields of cfg with any PAGEFACTS_* variable that
// is set. Unparseable values are logged and ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString(&cfg.UserAgent, strings.TrimSpace(os.Getenv(EnvUserAgent)))
	setString(&cfg.CacheDir, strings.TrimSpace(os.Getenv(EnvCacheDir)))
	setString(&cfg.Format, strings.ToLower(strings.TrimSpace(os.Getenv(EnvFormat))))
	setString(&cfg.BaseURL, strings.TrimSpace(os.Getenv(EnvBaseURL)))

	if s := strings.TrimSpace(os.Getenv(EnvCacheMaxAge)); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		} else {
			log.Warn().Err(err).Str("env", EnvCacheMaxAge).Msg("ignoring invalid duration")
		}
	}
	if v, ok := envBool(EnvVerbose); ok {
		cfg.Verbose = v
	}
	if v, ok := envBool(EnvRobots); ok {
		cfg.RespectRobots = v
	}
}

// envBool reads key as a boolean. ok is false when the variable is unset or
// not recognised.
func envBool(key string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

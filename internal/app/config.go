package app

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hyperifyio/pagefacts/internal/extract"
	"github.com/hyperifyio/pagefacts/internal/report"
	"github.com/hyperifyio/pagefacts/internal/rewrite"
)

// Defaults shared by flags, file config and env handling.
const (
	DefaultUserAgent = "pagefacts/1.0 (+https://github.com/hyperifyio/pagefacts)"
	DefaultCacheDir  = ".pagefacts-cache"
	DefaultTimeout   = 15 * time.Second
	DefaultAttempts  = 2
)

// Config holds runtime configuration for the application.
type Config struct {
	// Source is a file path, "-" for stdin, or an http(s) URL.
	Source     string
	OutputPath string
	Format     string
	// BaseURL overrides the URL relative links resolve against.
	BaseURL string

	Options extract.Options

	// Rewrite
	Rewrite           bool
	RewriteRules      []rewrite.Rule
	RewriteOutputPath string

	// Fetch
	UserAgent     string
	Timeout       time.Duration
	MaxAttempts   int
	RespectRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Format:        report.FormatJSON,
		Options:       extract.DefaultOptions(),
		UserAgent:     DefaultUserAgent,
		Timeout:       DefaultTimeout,
		MaxAttempts:   DefaultAttempts,
		RespectRobots: true,
		CacheDir:      DefaultCacheDir,
	}
}

// rules returns the rewrite rules to apply, falling back to the LeetCode rule.
func (c Config) rules() []rewrite.Rule {
	if len(c.RewriteRules) > 0 {
		return c.RewriteRules
	}
	return []rewrite.Rule{rewrite.LeetCodeRule()}
}

// ValidateConfig reports every problem with cfg at once.
func ValidateConfig(cfg Config) error {
	var errs []error
	if strings.TrimSpace(cfg.Source) == "" {
		errs = append(errs, errors.New("missing source: give a file path, - for stdin, or a URL"))
	}
	if !report.ValidFormat(cfg.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q (want one of %s)", cfg.Format, strings.Join(report.Formats, ", ")))
	}
	if cfg.Format == report.FormatPDF && strings.TrimSpace(cfg.OutputPath) == "" {
		errs = append(errs, errors.New("pdf output needs an output path"))
	}
	if cfg.Options.TreeDepth < 0 {
		errs = append(errs, fmt.Errorf("tree depth must not be negative: %d", cfg.Options.TreeDepth))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %s", cfg.Timeout))
	}
	if cfg.CacheMaxAge < 0 {
		errs = append(errs, fmt.Errorf("cache max age must not be negative: %s", cfg.CacheMaxAge))
	}
	selectors := cfg.Options.Selectors()
	for _, name := range slices.Sorted(maps.Keys(selectors)) {
		if err := extract.ValidateSelector(selectors[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if cfg.Rewrite {
		for i, r := range cfg.rules() {
			if err := r.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("rewrite rule %d: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

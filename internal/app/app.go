package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagefacts/internal/cache"
	"github.com/hyperifyio/pagefacts/internal/extract"
	"github.com/hyperifyio/pagefacts/internal/fetch"
	"github.com/hyperifyio/pagefacts/internal/report"
	"github.com/hyperifyio/pagefacts/internal/rewrite"
	"github.com/hyperifyio/pagefacts/internal/robots"
)

// ErrSourceUnavailable is returned when the source document cannot be read,
// fetched, or is excluded by robots.txt. The CLI maps it to its own exit code.
var ErrSourceUnavailable = errors.New("source unavailable")

// memoryTTL bounds the in-process tier of the page cache.
const memoryTTL = 5 * time.Minute

// App runs one extraction: load, extract, optionally rewrite, write.
type App struct {
	cfg Config

	// In is read when Source is "-"; Out receives text formats when no
	// output path is set. Both default to the process streams.
	In  io.Reader
	Out io.Writer

	cache   *cache.PageCache
	fetcher *fetch.Client
	robots  *robots.Checker
}

// New prepares the cache and HTTP clients described by cfg. The cache
// directory is cleared or purged here so a run starts from a known state.
func New(cfg Config) (*App, error) {
	a := &App{cfg: cfg, In: os.Stdin, Out: os.Stdout}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
			log.Debug().Str("dir", cfg.CacheDir).Msg("cache cleared")
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Msg("cache purge failed; continuing")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.cache = cache.New(cfg.CacheDir, memoryTTL)
		a.cache.StrictPerms = cfg.CacheStrictPerms
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	a.fetcher = &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.cache,
		BypassCache:       cfg.CacheClear,
	}
	if cfg.RespectRobots {
		a.robots = &robots.Checker{
			HTTPClient: httpClient,
			Cache:      a.cache,
			UserAgent:  cfg.UserAgent,
		}
	}
	return a, nil
}

// Run executes the pipeline and writes the report.
func (a *App) Run(ctx context.Context) error {
	page, err := a.load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	r := report.Report{Snapshot: a.cfg.Options.Extract(page)}
	log.Debug().
		Int("links", len(r.Links)).
		Int("images", len(r.Images)).
		Int("headings", len(r.Headings)).
		Int("elements", r.Stats.TotalElements).
		Msg("extracted")

	if a.cfg.Rewrite {
		res := rewrite.Apply(page, a.cfg.rules()...)
		r.Rewrite = &res
		log.Info().Int("converted", res.Converted).Msg("rewrote links")
		if a.cfg.RewriteOutputPath != "" {
			out, err := rewrite.Render(page)
			if err != nil {
				return err
			}
			if err := writeFile(a.cfg.RewriteOutputPath, []byte(out)); err != nil {
				return fmt.Errorf("write rewritten html: %w", err)
			}
			log.Info().Str("out", a.cfg.RewriteOutputPath).Msg("wrote rewritten html")
		}
	}
	return a.write(r)
}

func (a *App) load(ctx context.Context) (*extract.Page, error) {
	src := strings.TrimSpace(a.cfg.Source)
	switch {
	case src == "-":
		b, err := io.ReadAll(a.In)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return extract.Load(bytes.NewReader(b), "", a.cfg.BaseURL)
	case fetch.IsURL(src):
		if a.robots != nil {
			if err := a.robots.Check(ctx, src); err != nil {
				return nil, err
			}
		}
		fp, err := a.fetcher.Get(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
		log.Info().Str("url", fp.URL).Bool("cached", fp.FromCache).Int("bytes", len(fp.Body)).Msg("fetched")
		return extract.Load(bytes.NewReader(fp.Body), fp.ContentType, pickNonEmpty(a.cfg.BaseURL, fp.URL))
	default:
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		return extract.Load(bytes.NewReader(b), "", a.cfg.BaseURL)
	}
}

func (a *App) write(r report.Report) error {
	if a.cfg.Format == report.FormatPDF {
		if err := report.WritePDF(r, a.cfg.OutputPath); err != nil {
			return err
		}
		log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
		return nil
	}
	if a.cfg.OutputPath == "" {
		return report.Write(a.Out, r, a.cfg.Format)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, r, a.cfg.Format); err != nil {
		return err
	}
	if err := writeFile(a.cfg.OutputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// Package robots decides whether a page URL may be fetched according to the
// site's robots.txt.
package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagefacts/internal/cache"
)

// ErrDisallowed is returned by Checker.Check for URLs robots.txt forbids.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Checker fetches and remembers robots.txt per origin.
type Checker struct {
	HTTPClient *http.Client
	// Cache, when set, stores robots.txt bodies for conditional revalidation.
	Cache     *cache.PageCache
	UserAgent string
	// EntryExpiry is how long parsed rules are reused. Zero means 30 minutes.
	EntryExpiry time.Duration

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Check returns ErrDisallowed when pageURL is excluded for the checker's user
// agent. A missing robots.txt (4xx) allows everything; network failures are
// logged and also allow, since the page fetch itself will report them.
func (c *Checker) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, err := c.rules(ctx, robotsURL)
	if err != nil {
		log.Warn().Err(err).Str("robots", robotsURL).Msg("robots.txt unavailable; continuing")
		return nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(c.UserAgent, path) {
		return fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}
	return nil
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Checker) rules(ctx context.Context, robotsURL string) (Rules, error) {
	c.mu.Lock()
	if c.mem == nil {
		c.mem = make(map[string]memEntry)
	}
	if ent, ok := c.mem[robotsURL]; ok && c.clock().Before(ent.expiry) {
		c.mu.Unlock()
		return ent.rules, nil
	}
	c.mu.Unlock()

	rules, err := c.fetch(ctx, robotsURL)
	if err != nil {
		return Rules{}, err
	}
	exp := c.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	c.mu.Lock()
	c.mem[robotsURL] = memEntry{rules: rules, expiry: c.clock().Add(exp)}
	c.mu.Unlock()
	return rules, nil
}

func (c *Checker) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Cache != nil {
		if meta, err := c.Cache.LoadMeta(ctx, robotsURL); err == nil {
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && c.Cache != nil:
		body, err := c.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return Rules{}, fmt.Errorf("load cached robots: %w", err)
		}
		return Parse(string(body)), nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	if c.Cache != nil {
		if err := c.Cache.Save(ctx, robotsURL, resp.Header.Get("Content-Type"), resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), data); err != nil {
			log.Debug().Err(err).Str("robots", robotsURL).Msg("cache save failed")
		}
	}
	return Parse(string(data)), nil
}

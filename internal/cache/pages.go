package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is the metadata stored next to a cached page body. ETag and
// LastModified drive conditional revalidation.
type Entry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

type memItem struct {
	entry Entry
	body  []byte
}

// PageCache stores fetched pages on disk as <key>.meta.json and <key>.body,
// key being sha256(url). An optional in-memory tier answers repeated lookups
// of the same URL within one process without touching disk. A single CLI run
// looks up each URL once, so the tier only pays off for callers that keep
// one PageCache across several fetches.
type PageCache struct {
	Dir string
	// StrictPerms writes 0700 directories and 0600 files.
	StrictPerms bool

	mem *gocache.Cache
}

// New returns a disk cache rooted at dir. memTTL > 0 enables the memory tier.
func New(dir string, memTTL time.Duration) *PageCache {
	c := &PageCache{Dir: dir}
	if memTTL > 0 {
		c.mem = gocache.New(memTTL, 2*memTTL)
	}
	return c
}

func (c *PageCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(c.Dir, c.dirMode()); err != nil {
		return err
	}
	if c.StrictPerms {
		return os.Chmod(c.Dir, 0o700)
	}
	return nil
}

func (c *PageCache) dirMode() os.FileMode {
	if c.StrictPerms {
		return 0o700
	}
	return 0o755
}

func (c *PageCache) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

// Key returns the file stem used for url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

func (c *PageCache) fromMemory(url string) (memItem, bool) {
	if c.mem == nil {
		return memItem{}, false
	}
	v, ok := c.mem.Get(url)
	if !ok {
		return memItem{}, false
	}
	return v.(memItem), true
}

// LoadMeta returns the metadata stored for url.
func (c *PageCache) LoadMeta(_ context.Context, url string) (*Entry, error) {
	if it, ok := c.fromMemory(url); ok {
		e := it.entry
		return &e, nil
	}
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(Key(url)))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body for url.
func (c *PageCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if it, ok := c.fromMemory(url); ok {
		return it.body, nil
	}
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(Key(url)))
}

// Save writes body and metadata for url. Both files are written via rename
// and the meta file goes last, so a present meta file always has a complete
// body next to it.
func (c *PageCache) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := Key(url)
	if err := c.writeAtomic(c.bodyPath(key), body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := Entry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	}
	b, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := c.writeAtomic(c.metaPath(key), b); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	if c.mem != nil {
		c.mem.SetDefault(url, memItem{entry: meta, body: body})
	}
	return nil
}

func (c *PageCache) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, c.fileMode()); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

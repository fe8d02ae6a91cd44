package imagecache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	gocache "github.com/patrickmn/go-cache"

	"platehub/pkg/utils"
)

var (
	ErrInvalidName = errors.New("invalid image name")
	ErrNotFound    = errors.New("image not found")
)

// DefaultMissTTL is used when New is given a non-positive TTL. go-cache
// would otherwise keep misses forever.
const DefaultMissTTL = 5 * time.Minute

// extensions tried, in order, for catalog references without one
var extensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Cache serves plate images from a directory through a bounded LRU. Names
// that were not found are remembered for missTTL so repeated lookups of a
// bad reference skip the disk.
type Cache struct {
	dir     string
	missTTL time.Duration
	entries *lru.Cache[string, []byte]
	lookups *gocache.Cache // "" for a missing name, else the file it resolved to
	log     *slog.Logger

	hits   atomic.Int64
	loads  atomic.Int64
	absent atomic.Int64
}

type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Loads   int64 `json:"loads"`
	Misses  int64 `json:"misses"`
}

func New(dir string, size int, missTTL time.Duration, log *slog.Logger) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("image cache size must be positive, got %d", size)
	}
	if log == nil {
		log = utils.DiscardLogger()
	}
	if missTTL <= 0 {
		missTTL = DefaultMissTTL
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create image lru: %w", err)
	}
	return &Cache{
		dir:     dir,
		missTTL: missTTL,
		entries: entries,
		lookups: gocache.New(missTTL, 2*missTTL),
		log:     log,
	}, nil
}

// SanitizeName keeps only the base name of a reference, so callers cannot
// escape the images directory. It returns "" for unusable input.
func SanitizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.HasPrefix(base, ".") {
		return ""
	}
	return base
}

// Get returns the image bytes and the file name that was read.
func (c *Cache) Get(name string) ([]byte, string, error) {
	name = SanitizeName(name)
	if name == "" {
		return nil, "", ErrInvalidName
	}

	if b, ok := c.entries.Get(name); ok {
		c.hits.Add(1)
		return b, name, nil
	}
	if v, found := c.lookups.Get(name); found {
		if file, _ := v.(string); file != "" {
			return c.Get(file)
		}
		c.absent.Add(1)
		return nil, "", ErrNotFound
	}

	b, file, err := c.load(name)
	if errors.Is(err, fs.ErrNotExist) {
		c.absent.Add(1)
		c.lookups.SetDefault(name, "")
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	c.loads.Add(1)
	c.entries.Add(file, b)
	if file != name {
		c.lookups.SetDefault(name, file)
	}
	return b, file, nil
}

func (c *Cache) load(name string) ([]byte, string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, file := range candidates {
		b, err := os.ReadFile(filepath.Join(c.dir, file))
		if err == nil {
			return b, file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read image %s: %w", file, err)
		}
	}
	return nil, "", fs.ErrNotExist
}

func (c *Cache) Len() int { return c.entries.Len() }

func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Loads:   c.loads.Load(),
		Misses:  c.absent.Load(),
	}
}

// HandleMemoryPressure drops the older half of the cached images and every
// remembered lookup. It returns the number of images evicted.
func (c *Cache) HandleMemoryPressure() int {
	n := c.entries.Len() / 2
	if n == 0 {
		n = c.entries.Len()
	}
	evicted := 0
	for i := 0; i < n; i++ {
		if _, _, ok := c.entries.RemoveOldest(); ok {
			evicted++
		}
	}
	c.lookups.Flush()
	c.log.Info("image cache trimmed", "evicted", evicted, "remaining", c.entries.Len())
	return evicted
}

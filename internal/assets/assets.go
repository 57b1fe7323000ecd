// Package assets serves the front end's static files through a Redis cache
// keyed by asset generation.
package assets

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	appErrors "topicslog/internal/errors"

	"go.uber.org/zap"
)

const DefaultGeneration = "topicslog-v3-dark-zen-1"

// Manifest names the files precached for one generation.
type Manifest struct {
	Generation string
	Files      []string
}

func DefaultManifest() Manifest {
	return Manifest{
		Generation: DefaultGeneration,
		Files: []string{
			"index.html",
			"app.js",
			"app.css",
			"manifest.webmanifest",
			"icon.svg",
		},
	}
}

// Store is the key-value cache behind assets. redis.Cache implements it.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

type Asset struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Cache struct {
	store    Store
	dir      string
	manifest Manifest
	logger   *zap.SugaredLogger
}

// NewCache serves files under dir. A nil store reads from disk every time.
func NewCache(store Store, dir string, manifest Manifest, logger *zap.SugaredLogger) *Cache {
	if manifest.Generation == "" {
		manifest.Generation = DefaultGeneration
	}
	return &Cache{store: store, dir: dir, manifest: manifest, logger: logger}
}

func (c *Cache) Generation() string {
	return c.manifest.Generation
}

func keyPrefix() string {
	return "assets:"
}

func (c *Cache) key(name string) string {
	return keyPrefix() + c.manifest.Generation + ":" + name
}

// Activate drops every cached asset of another generation, then precaches
// the manifest files found on disk.
func (c *Cache) Activate(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	keys, err := c.store.Keys(ctx, keyPrefix()+"*")
	if err != nil {
		return err
	}
	current := keyPrefix() + c.manifest.Generation + ":"
	var stale []string
	for _, k := range keys {
		if !strings.HasPrefix(k, current) {
			stale = append(stale, k)
		}
	}
	if err := c.store.Delete(ctx, stale...); err != nil {
		return err
	}
	if len(stale) > 0 {
		c.logger.Infow("dropped stale assets", "generation", c.manifest.Generation, "count", len(stale))
	}

	for _, f := range c.manifest.Files {
		if _, err := c.Get(ctx, f); err != nil {
			c.logger.Warnw("asset not precached", "path", f, "error", err)
		}
	}
	return nil
}

// clean maps a request path to a file name inside the asset dir.
func clean(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "index.html", true
	}
	if strings.HasPrefix(name, "..") {
		return "", false
	}
	return name, true
}

// Get returns the asset from the cache, falling back to disk and filling the
// cache. Cache errors are logged and the disk copy is served.
func (c *Cache) Get(ctx context.Context, name string) (*Asset, error) {
	name, ok := clean(name)
	if !ok {
		return nil, appErrors.NotFound("Asset not found", nil)
	}

	if c.store != nil {
		var cached Asset
		found, err := c.store.Get(ctx, c.key(name), &cached)
		if err != nil {
			c.logger.Warnw("asset cache read failed", "path", name, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	body, err := os.ReadFile(filepath.Join(c.dir, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.NotFound("Asset not found", err)
		}
		return nil, err
	}

	asset := &Asset{Path: name, ContentType: contentType(name, body), Body: body}
	if c.store != nil {
		if err := c.store.Set(ctx, c.key(name), asset, 0); err != nil {
			c.logger.Warnw("asset cache write failed", "path", name, "error", err)
		}
	}
	return asset, nil
}

func contentType(name string, body []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	if path.Ext(name) == ".webmanifest" {
		return "application/manifest+json"
	}
	return http.DetectContentType(body)
}

// cache.go provides an in-memory cache for compiled theme templates.
// This is the L1 cache: a theme is parsed on first use and reused for
// every later render. The L2 cache of finished pages lives in Valkey.
package engine

import (
	"html/template"
	"log/slog"
	"sync"
)

// templateCache is a concurrency-safe in-memory cache of compiled themes.
type templateCache struct {
	mu      sync.RWMutex
	entries map[string]*template.Template
}

// newTemplateCache creates an empty template cache.
func newTemplateCache() *templateCache {
	return &templateCache{
		entries: make(map[string]*template.Template),
	}
}

// get retrieves a compiled theme from cache. Returns nil on miss.
func (c *templateCache) get(theme string) *template.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[theme]
}

// put stores a compiled theme in the cache.
func (c *templateCache) put(theme string, tmpl *template.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[theme] = tmpl
	slog.Debug("theme compiled", "theme", theme, "size", len(c.entries))
}

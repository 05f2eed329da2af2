package routes

import (
	"context"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/metrics"
)

// Refresher polls the public directory in dev mode and reloads routes whose
// source files changed. A go-cache entry with a short TTL throttles how
// often any single path is re-stat'ed.
type Refresher struct {
	loader   *Loader
	interval time.Duration
	checked  *gocache.Cache
}

// NewRefresher creates a refresher polling at interval.
func NewRefresher(loader *Loader, interval time.Duration) *Refresher {
	return &Refresher{
		loader:   loader,
		interval: interval,
		checked:  gocache.New(interval/2, interval),
	}
}

// Run polls until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logrus.WithField("interval", r.interval).Info("dev mode: watching for changed files")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep re-checks every known route once, skipping paths checked recently.
func (r *Refresher) sweep() {
	r.loader.mu.Lock()
	paths := make(map[string]string, len(r.loader.files))
	for urlPath, filePath := range r.loader.files {
		paths[urlPath] = filePath
	}
	r.loader.mu.Unlock()

	for urlPath, filePath := range paths {
		if _, throttled := r.checked.Get(urlPath); throttled {
			continue
		}
		r.checked.SetDefault(urlPath, struct{}{})

		info, err := os.Stat(filePath)
		if err != nil {
			// File removed; keep serving the cached response. There is
			// no eviction in the table.
			continue
		}

		r.loader.mu.Lock()
		prev := r.loader.mtimes[urlPath]
		r.loader.mu.Unlock()

		if !info.ModTime().After(prev) {
			continue
		}

		if err := r.loader.loadFile(filePath); err != nil {
			logrus.WithError(err).WithField("file", filePath).Error("failed to refresh route")
			continue
		}
		metrics.TableEntries.Set(float64(r.loader.tbl.Len()))
		logrus.WithField("path", urlPath).Info("route refreshed")
	}
}

// Package routes is the control plane of the responder: it walks a public
// directory, precompresses file contents, and populates the response table
// keyed by the same path hash the packet pipeline computes.
package routes

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/metrics"
	"firestige.xyz/strix/internal/table"
)

// RouteInfo describes one loaded route for inspection tooling.
type RouteInfo struct {
	Path         string
	Hash         uint32
	ContentType  string
	Size         int
	LastModified string
	Encodings    []string
}

// Loader populates a response table from a directory of static files.
type Loader struct {
	publicDir string
	manifest  *Manifest
	tmpl      *templateData
	tbl       *table.Table

	mu     sync.Mutex
	routes map[string]RouteInfo // by URL path
	mtimes map[string]time.Time // source file mtime, by URL path
	files  map[string]string    // source file path, by URL path
}

// NewLoader creates a loader for publicDir. manifestPath may be empty.
// configPrefix selects the environment variables substituted into HTML
// bodies at load time; empty disables substitution.
func NewLoader(publicDir, manifestPath, configPrefix string, tbl *table.Table) (*Loader, error) {
	var m *Manifest
	if manifestPath != "" {
		var err error
		m, err = loadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
	}
	tmpl, err := envTemplateData(configPrefix)
	if err != nil {
		return nil, err
	}
	return &Loader{
		publicDir: publicDir,
		manifest:  m,
		tmpl:      tmpl,
		tbl:       tbl,
		routes:    make(map[string]RouteInfo),
		mtimes:    make(map[string]time.Time),
		files:     make(map[string]string),
	}, nil
}

// Load walks the public directory and loads every file into the table.
func (l *Loader) Load() error {
	start := time.Now()
	count := 0

	err := filepath.WalkDir(l.publicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := l.loadFile(path); err != nil {
			logrus.WithError(err).WithField("file", path).Error("failed to load route")
			return nil // keep loading the rest
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", l.publicDir, err)
	}

	metrics.TableEntries.Set(float64(l.tbl.Len()))
	logrus.WithFields(logrus.Fields{
		"files":    count,
		"entries":  l.tbl.Len(),
		"duration": time.Since(start),
	}).Info("routes populated")
	return nil
}

// Routes returns a snapshot of the loaded routes.
func (l *Loader) Routes() []RouteInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RouteInfo, 0, len(l.routes))
	for _, r := range l.routes {
		out = append(out, r)
	}
	return out
}

// loadFile loads one file and all its encoding variants, plus the directory
// alias when the file is an index page.
func (l *Loader) loadFile(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	urlPath, err := l.urlFor(filePath)
	if err != nil {
		return err
	}

	mimeType := mimeForPath(filePath)
	cacheControl := cacheControlFor(mimeType)
	mimeType, cacheControl = l.manifest.apply(urlPath, mimeType, cacheControl)

	if l.tmpl != nil && isTemplatable(mimeType) {
		rendered, err := templateRoute(urlPath, content, l.tmpl)
		if err != nil {
			// Serve the raw file rather than dropping the route.
			logrus.WithError(err).WithField("file", filePath).Error("failed to template file")
		} else {
			content = rendered
		}
	}

	v, err := compressVariants(content, isCompressible(mimeType))
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", filePath, err)
	}

	etag := makeETag(info.ModTime(), content)
	lastModified := info.ModTime().UTC().Format(http.TimeFormat)
	paths := []string{urlPath}
	if alias, ok := indexAlias(urlPath); ok {
		paths = append(paths, alias)
	}

	for _, p := range paths {
		if err := l.putVariants(p, v, mimeType, cacheControl, etag, lastModified); err != nil {
			return err
		}
		l.mu.Lock()
		l.mtimes[p] = info.ModTime()
		l.files[p] = filePath
		l.mu.Unlock()
	}
	return nil
}

// putVariants inserts every available encoding variant of one route. A
// variant whose body exceeds the fast-path limit is skipped, not an error:
// those requests simply fall through to whatever full server sits behind.
func (l *Loader) putVariants(urlPath string, v variants, mimeType, cacheControl, etag, lastModified string) error {
	hash := fastpath.HashPath([]byte(urlPath))
	info := RouteInfo{
		Path:         urlPath,
		Hash:         hash,
		ContentType:  mimeType,
		Size:         len(v.Plain),
		LastModified: lastModified,
	}

	put := func(encoding uint8, name string, body []byte, contentEncoding string) error {
		if body == nil {
			return nil
		}
		if len(body) > table.MaxBodyLen {
			logrus.WithFields(logrus.Fields{
				"path": urlPath, "encoding": name, "size": len(body),
			}).Debug("skipping oversized variant")
			metrics.RoutesSkippedTotal.WithLabelValues("too_large").Inc()
			return nil
		}
		rec := &table.Record{
			Body:            body,
			ContentType:     []byte(mimeType),
			ContentEncoding: []byte(contentEncoding),
			ETag:            []byte(etag),
			CacheControl:    []byte(cacheControl),
			LastModified:    []byte(lastModified),
		}
		if err := l.tbl.Put(table.Key{PathHash: hash, Encoding: encoding}, rec); err != nil {
			return fmt.Errorf("failed to store %s (%s): %w", urlPath, name, err)
		}
		metrics.RoutesLoadedTotal.Inc()
		info.Encodings = append(info.Encodings, name)
		return nil
	}

	if err := put(table.EncodingIdentity, "identity", v.Plain, ""); err != nil {
		return err
	}
	if err := put(table.EncodingGzip, "gzip", v.Gzip, "gzip"); err != nil {
		return err
	}
	if err := put(table.EncodingBrotli, "br", v.Brotli, "br"); err != nil {
		return err
	}
	if err := put(table.EncodingZstd, "zstd", v.Zstd, "zstd"); err != nil {
		return err
	}

	l.mu.Lock()
	l.routes[urlPath] = info
	l.mu.Unlock()
	return nil
}

// urlFor maps a file path under the public dir to its URL path.
func (l *Loader) urlFor(filePath string) (string, error) {
	rel, err := filepath.Rel(l.publicDir, filePath)
	if err != nil {
		return "", fmt.Errorf("file %s outside public dir: %w", filePath, err)
	}
	return "/" + filepath.ToSlash(rel), nil
}

// indexAlias returns the directory path an index file is also served under:
// /index.html → /, /docs/index.html → /docs/.
func indexAlias(urlPath string) (string, bool) {
	if urlPath == "/index.html" {
		return "/", true
	}
	if strings.HasSuffix(urlPath, "/index.html") {
		return strings.TrimSuffix(urlPath, "index.html"), true
	}
	return "", false
}

// makeETag builds a weak validator from mtime and length, matching the
// original control plane's format.
func makeETag(modified time.Time, content []byte) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%x-%x", modified.Unix(), len(content)))
}

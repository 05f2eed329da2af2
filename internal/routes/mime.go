package routes

import (
	"path/filepath"
	"strings"
)

// DefaultMime is used when the extension is unknown.
const DefaultMime = "application/octet-stream"

var mimeByExt = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "text/javascript",
	".mjs":         "text/javascript",
	".json":        "application/json",
	".webmanifest": "application/manifest+json",
	".xml":         "application/xml",
	".rss":         "application/rss+xml",
	".atom":        "application/atom+xml",
	".txt":         "text/plain",
	".csv":         "text/csv",
	".md":          "text/markdown",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
	".eot":         "application/vnd.ms-fontobject",
	".mp3":         "audio/mpeg",
	".ogg":         "audio/ogg",
	".mp4":         "video/mp4",
	".webm":        "video/webm",
	".pdf":         "application/pdf",
	".wasm":        "application/wasm",
}

// mimeForPath guesses the content type from the file extension.
func mimeForPath(path string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return DefaultMime
}

// isTemplatable reports whether env config is substituted into a content
// type at load time.
func isTemplatable(mimeType string) bool {
	return mimeType == "text/html"
}

// isCompressible reports whether precompressed variants are worth storing
// for a content type.
func isCompressible(mimeType string) bool {
	switch mimeType {
	case "text/html", "text/css", "text/javascript", "text/plain",
		"text/csv", "text/markdown", "text/cache-manifest",
		"application/json", "application/ld+json",
		"application/manifest+json", "text/xml", "application/xml",
		"application/rss+xml", "application/atom+xml", "image/svg+xml":
		return true
	}
	return false
}

// isAsset reports whether a content type is a long-lived static asset.
func isAsset(mimeType string) bool {
	switch {
	case mimeType == "text/css", mimeType == "text/javascript":
		return true
	case strings.HasPrefix(mimeType, "image/"),
		strings.HasPrefix(mimeType, "font/"),
		strings.HasPrefix(mimeType, "audio/"),
		strings.HasPrefix(mimeType, "video/"):
		return true
	case mimeType == "application/vnd.ms-fontobject":
		return true
	}
	return false
}

// cacheControlFor picks the cache policy for a content type: immutable
// assets for a year, HTML briefly, everything else an hour.
func cacheControlFor(mimeType string) string {
	if isAsset(mimeType) {
		return "public, max-age=31536000, immutable"
	}
	if mimeType == "text/html" {
		return "public, max-age=900"
	}
	return "public, max-age=3600"
}

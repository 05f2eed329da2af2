package routes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts the generated headers for a single URL path.
type Override struct {
	ContentType  string `yaml:"content_type"`
	CacheControl string `yaml:"cache_control"`
}

// Manifest is the optional YAML file with per-path header overrides:
//
//	overrides:
//	  /download.bin:
//	    content_type: application/x-custom
//	    cache_control: no-store
type Manifest struct {
	Overrides map[string]Override `yaml:"overrides"`
}

// loadManifest reads and parses a manifest file.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// apply returns the content type and cache control for urlPath, falling back
// to the generated values.
func (m *Manifest) apply(urlPath, contentType, cacheControl string) (string, string) {
	if m == nil {
		return contentType, cacheControl
	}
	ov, ok := m.Overrides[urlPath]
	if !ok {
		return contentType, cacheControl
	}
	if ov.ContentType != "" {
		contentType = ov.ContentType
	}
	if ov.CacheControl != "" {
		cacheControl = ov.CacheControl
	}
	return contentType, cacheControl
}

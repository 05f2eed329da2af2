package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// templateData is the render context for env-templated routes. Json and
// EscapedJson carry the whole env map serialized, for pages that embed the
// config as a script blob or inside a quoted attribute.
type templateData struct {
	Env         map[string]string
	Json        string
	EscapedJson string
}

// envTemplateData collects environment variables carrying prefix into the
// render context, with the prefix stripped from the keys. An empty prefix
// returns nil, which disables templating.
func envTemplateData(prefix string) (*templateData, error) {
	if prefix == "" {
		return nil, nil
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		env[strings.TrimPrefix(key, prefix)] = value
	}

	jsonString, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template env: %w", err)
	}
	return &templateData{
		Env:         env,
		Json:        string(jsonString),
		EscapedJson: strings.ReplaceAll(string(jsonString), `"`, `\"`),
	}, nil
}

// templateRoute substitutes the env config into content. Only called for
// templatable content types; rendering happens once at load time, so the
// served body is static.
func templateRoute(name string, content []byte, data *templateData) ([]byte, error) {
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

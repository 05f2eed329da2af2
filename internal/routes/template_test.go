package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/table"
)

func TestEnvSubstitutedIntoHTML(t *testing.T) {
	t.Setenv("STRIXTEST_API_URL", "https://api.example.com")
	t.Setenv("OTHER_VAR", "ignored")

	dir := t.TempDir()
	writeFile(t, dir, "index.html",
		[]byte(`<html><a href="{{.Env.API_URL}}">api</a><script>cfg = "{{.EscapedJson}}"</script></html>`))
	writeFile(t, dir, "plain.txt", []byte("untouched {{.Env.API_URL}}"))

	tbl := table.New()
	loader, err := NewLoader(dir, "", "STRIXTEST_", tbl)
	require.NoError(t, err)
	require.NoError(t, loader.Load())

	rec, ok := tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/index.html")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok)
	assert.Contains(t, string(rec.Body), `href="https://api.example.com"`)
	assert.Contains(t, string(rec.Body), `\"API_URL\":\"https://api.example.com\"`)
	assert.NotContains(t, string(rec.Body), "OTHER_VAR", "vars without the prefix are not exposed")

	// Substitution is gated on content type; text files pass through raw.
	rec, ok = tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/plain.txt")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok)
	assert.Equal(t, []byte("untouched {{.Env.API_URL}}"), rec.Body)
}

func TestEmptyPrefixDisablesSubstitution(t *testing.T) {
	t.Setenv("STRIXTEST_NAME", "world")

	dir := t.TempDir()
	writeFile(t, dir, "index.html", []byte("<html>{{.Env.NAME}}</html>"))

	tbl := table.New()
	loader, err := NewLoader(dir, "", "", tbl)
	require.NoError(t, err)
	require.NoError(t, loader.Load())

	rec, ok := tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/index.html")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok)
	assert.Equal(t, []byte("<html>{{.Env.NAME}}</html>"), rec.Body)
}

func TestUnparsableTemplateServedRaw(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("<html>{{.Env.NAME</html>")
	writeFile(t, dir, "broken.html", raw)

	tbl := table.New()
	loader, err := NewLoader(dir, "", "STRIXTEST_", tbl)
	require.NoError(t, err)
	require.NoError(t, loader.Load())

	rec, ok := tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/broken.html")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok, "a broken template still has a route")
	assert.Equal(t, raw, rec.Body)
}

func TestEnvTemplateData(t *testing.T) {
	t.Setenv("STRIXTEST_A", "1")
	t.Setenv("STRIXTEST_B", `say "hi"`)

	data, err := envTemplateData("STRIXTEST_")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": `say "hi"`}, data.Env)
	assert.Contains(t, data.Json, `"A":"1"`)
	assert.NotContains(t, data.EscapedJson, `"A"`, "every quote is escaped")

	disabled, err := envTemplateData("")
	require.NoError(t, err)
	assert.Nil(t, disabled)
}

package routes

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/table"
)

func TestRefresherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.html", []byte("<html>v1</html>"))

	tbl := table.New()
	loader, err := NewLoader(dir, "", "", tbl)
	require.NoError(t, err)
	require.NoError(t, loader.Load())

	r := NewRefresher(loader, time.Millisecond)

	// Rewrite with a strictly newer mtime so the sweep notices.
	writeFile(t, dir, "page.html", []byte("<html>v2</html>"))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	r.sweep()

	rec, ok := tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/page.html")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok)
	assert.Equal(t, []byte("<html>v2</html>"), rec.Body)
}

func TestRefresherThrottlesRepeatedChecks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.html", []byte("v1"))

	tbl := table.New()
	loader, err := NewLoader(dir, "", "", tbl)
	require.NoError(t, err)
	require.NoError(t, loader.Load())

	r := NewRefresher(loader, time.Hour)
	r.sweep() // marks the path as recently checked

	writeFile(t, dir, "page.html", []byte("v2"))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	r.sweep() // throttled: no reload yet

	rec, ok := tbl.Lookup(table.Key{
		PathHash: fastpath.HashPath([]byte("/page.html")),
		Encoding: table.EncodingIdentity,
	})
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), rec.Body)
}

package capture

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileURL(t *testing.T) {
	dir := t.TempDir()
	u, err := FileURL(filepath.Join(dir, "blog page.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file:///"))
	assert.True(t, strings.HasSuffix(u, "/blog%20page.html"))
}

func TestCapturePNGValidatesOptions(t *testing.T) {
	err := CapturePNG(context.Background(), CaptureOptions{OutputPath: "x.png"})
	assert.ErrorContains(t, err, "URL is required")

	err = CapturePNG(context.Background(), CaptureOptions{URL: "file:///x.html"})
	assert.ErrorContains(t, err, "OutputPath is required")
}

func TestWithDefaults(t *testing.T) {
	o, err := CaptureOptions{URL: "u", OutputPath: "o"}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Positive(t, o.Timeout)
}

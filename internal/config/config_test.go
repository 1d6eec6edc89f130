package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "blogsched.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conf", "blog-schedule.json"), cfg.SchedulePath)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, 10, cfg.MaxItems)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	// The saved file keeps relative paths.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schedule_path: blog-schedule.json")
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blogsched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Asia/Seoul
posts_dir: /srv/site/posts
window_days: 21
blackout:
  - url: https://example.com/holidays.ics
    name: holidays
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Equal(t, "/srv/site/posts", cfg.PostsDir, "absolute paths are kept")
	assert.Equal(t, filepath.Join(dir, "website/blog.html"), cfg.TargetHTML)
	assert.Equal(t, 21, cfg.WindowDays)
	assert.Equal(t, 10, cfg.MaxItems)
	assert.Equal(t, []string{".html"}, cfg.PostExtensions)
	require.Len(t, cfg.Blackout, 1)
	assert.Equal(t, "holidays", cfg.Blackout[0].SourceID())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"timezone": "timezone: Mars/Olympus\n",
		"cron":     "refresh: every now and then\n",
		"blackout": "blackout:\n  - name: empty\n",
		"yaml":     "window_days: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "blogsched.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogsched.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	cfg.Blackout = []BlackoutSource{{URL: "https://example.com/a.ics", ID: "a"}}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.BasicAuth, got.BasicAuth)
	assert.Equal(t, cfg.Blackout, got.Blackout)
}

func TestSourceIDFallbacks(t *testing.T) {
	assert.Equal(t, "id", BlackoutSource{ID: "id", Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "n", BlackoutSource{Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "u", BlackoutSource{URL: "u"}.SourceID())
}

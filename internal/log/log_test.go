package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	prevNow := now
	now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	SetLevel(level)
	t.Cleanup(func() {
		restore()
		now = prevNow
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoFormatsKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("reconciled", "changed", 2, "path", "blog schedule.json")

	assert.Equal(t, "2024-03-10T08:00:00Z [INFO] reconciled changed=2 path=\"blog schedule.json\"\n", buf.String())
}

func TestErrorPrependsErr(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("load failed", errors.New("boom"), "path", "x.json")

	assert.Contains(t, buf.String(), "[ERROR] load failed err=boom path=x.json")
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelError)

	Debug("hidden")
	Info("hidden too")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("shown", "odd")
	assert.Contains(t, buf.String(), "[DEBUG] shown\n")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

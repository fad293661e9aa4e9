package simplelogger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) {
	t.Helper()
	old := now
	now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 250_000_000, time.UTC) }
	t.Cleanup(func() { now = old })
}

func TestLog_WritesAndAppends(t *testing.T) {
	fixedClock(t)
	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "proofreader.log"))
	require.True(t, Enabled())

	Log("hello %s", "world")
	Log("%d\n", 123)

	b, err := os.ReadFile(os.Getenv(EnvVar))
	require.NoError(t, err)
	require.Equal(t, "09:30:15.250 hello world\n09:30:15.250 123\n", string(b))
}

func TestLog_NoOpWhenUnset(t *testing.T) {
	t.Setenv(EnvVar, "")
	require.False(t, Enabled())
	Log("should not %s", "panic")
}

func TestLog_NoOpWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)

	Log("ignored %d", 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

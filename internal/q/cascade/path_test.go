package cascade

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// setHome points the home directory at a fresh temp dir for the rest of the test and returns it.
func setHome(t *testing.T) string {
	home := strings.TrimRight(t.TempDir(), string(filepath.Separator))
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	} else {
		t.Setenv("HOME", home)
	}
	return home
}

func TestExpandPath(t *testing.T) {
	home := setHome(t)

	require.Equal(t, "", ExpandPath(""))
	require.True(t, filepath.IsAbs(ExpandPath("foo/bar")))

	require.Equal(t, home, ExpandPath("~"))
	require.Equal(t, home, ExpandPath("~/"))
	require.Equal(t, filepath.Join(home, "sub", "dir"), ExpandPath("~/sub/dir"))
	require.Equal(t, filepath.Join(home, `sub\\dir`), ExpandPath(`~\sub\\dir`))

	abs := filepath.Join(home, "already", "abs")
	require.Equal(t, abs, ExpandPath(abs))
}

func TestInUserConfigDirectory(t *testing.T) {
	setHome(t)
	want := filepath.Join(ExpandPath("~"), ".proofreader", "config.json")
	if runtime.GOOS == "windows" {
		want = filepath.Join(ExpandPath("~/AppData/Local"), ".proofreader", "config.json")
	}
	require.Equal(t, want, InUserConfigDirectory(".proofreader/config.json"))
}

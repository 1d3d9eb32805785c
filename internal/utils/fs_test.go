package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/repofetch-go/internal/utils"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"docs", "docs"},
		{"docs/", "docs"},
		{`docs\`, "docs"},
		{"docs//", "docs"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, utils.SanitizePath(tt.in))
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), utils.ExpandPath("~/x"))
	assert.Equal(t, home, utils.ExpandPath("~"))
	assert.Equal(t, "/absolute/path", utils.ExpandPath("/absolute/path"))
	assert.Equal(t, "relative", utils.ExpandPath("relative"))
}

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "file.txt")

	require.NoError(t, utils.EnsureDir(target))
	assert.DirExists(t, filepath.Join(base, "a", "b"))
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, utils.DirExists(dir))
	assert.False(t, utils.DirExists(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.False(t, utils.DirExists(file))
}

func TestMoveDir(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("b"), 0644))

	dst := filepath.Join(base, "dst")
	require.NoError(t, utils.MoveDir(src, dst))

	assert.NoDirExists(t, src)
	assert.FileExists(t, filepath.Join(dst, "a.txt"))

	b, err := os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(b))
}

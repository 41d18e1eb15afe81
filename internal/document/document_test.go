package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_Read(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "contracts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contracts", "lease.md"), []byte("Clause 1."), 0o644))

	root, err := NewRoot(dir)
	require.NoError(t, err)

	text, err := root.Read("contracts/lease.md")
	require.NoError(t, err)
	assert.Equal(t, "Clause 1.", text)

	for _, bad := range []string{"", "../outside.md", "contracts", "/etc/passwd", "missing.md"} {
		_, err := root.Read(bad)
		assert.Error(t, err, bad)
	}
}

func TestRoot_RejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	root, err := NewRoot(dir)
	require.NoError(t, err)
	_, err = root.Read("link.txt")
	assert.Error(t, err)
}

func TestNewRoot_Errors(t *testing.T) {
	_, err := NewRoot("")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewRoot(file)
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	in := "# Title  \r\n\r\n![seal](seal.png)\n<!-- draft -->\n\n\n\nArticle 1 applies.<img src=\"x.png\">\n"
	assert.Equal(t, "# Title\n\nArticle 1 applies.", Clean(in))
	assert.Equal(t, "plain", Clean("  plain  "))
}

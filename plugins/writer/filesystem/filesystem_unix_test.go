//go:build unix

package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"txtsplit/pkg/contract"
)

// TestPartPathInvalidUnix Unix 下的越界路径
func TestPartPathInvalidUnix(t *testing.T) {
	w, err := New(&Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	for _, id := range []string{"/abs", "a/b.txt", "..", "."} {
		_, err := w.partPath(contract.ArtifactID(id))
		require.ErrorIs(t, err, contract.ErrPathInvalid, id)
	}
}

// TestWritePermFile 自定义文件权限
func TestWritePermFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir, PermFile: 0o600})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), "p.txt", strings.NewReader("x")))
	st, err := os.Stat(filepath.Join(dir, "p.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

// TestPrepareReadOnlyParent 父目录不可写时创建失败
func TestPrepareReadOnlyParent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 绕过权限检查")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })
	w, err := New(&Options{OutputDir: filepath.Join(parent, "TXTCache")})
	require.NoError(t, err)
	_, err = w.Prepare(context.Background())
	require.ErrorIs(t, err, os.ErrPermission)
}

package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"txtsplit/pkg/contract"
)

func boolPtr(b bool) *bool { return &b }

func noTempLeft(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), tmpPrefix), "tmp file not cleaned: %s", e.Name())
	}
}

// TestPrepareCreatesDir 输出目录不存在时创建，存在时幂等
func TestPrepareCreatesDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "TXTCache")
	w, err := New(&Options{OutputDir: root})
	require.NoError(t, err)

	got, err := w.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, root, got)
	st, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, st.IsDir())

	// 再次调用不报错
	_, err = w.Prepare(context.Background())
	require.NoError(t, err)
}

// TestPrepareFileCollision 输出路径被普通文件占用
func TestPrepareFileCollision(t *testing.T) {
	root := filepath.Join(t.TempDir(), "TXTCache")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))
	w, err := New(&Options{OutputDir: root})
	require.NoError(t, err)
	_, err = w.Prepare(context.Background())
	require.Error(t, err)
}

// TestWriteOverwrite 默认直接覆盖同名文件
func TestWriteOverwrite(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), "a_part1.txt", strings.NewReader("long old content\n")))
	require.NoError(t, w.Write(context.Background(), "a_part1.txt", strings.NewReader("new\n")))
	b, err := os.ReadFile(filepath.Join(dir, "a_part1.txt"))
	require.NoError(t, err)
	require.Equal(t, "new\n", string(b))
}

// TestWriteAtomic 原子写入
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir, Atomic: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), "out.txt", bytes.NewBufferString("data")))
	b, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	require.Equal(t, "data", string(b))
	noTempLeft(t, dir)
}

// 当目标已存在时，Atomic 写应替换为新内容（跨平台）。
func TestWriteAtomicReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir, Atomic: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), "out.txt", bytes.NewBufferString("v1")))
	require.NoError(t, w.Write(context.Background(), "out.txt", bytes.NewBufferString("v2")))
	b, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(b))
	noTempLeft(t, dir)
}

// TestWritePathInvalid 分片名必须是单段文件名
func TestWritePathInvalid(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir})
	require.NoError(t, err)
	for _, id := range []string{"", ".", "..", "../bad_part1.txt", "sub/a_part1.txt", `sub\a_part1.txt`} {
		err = w.Write(context.Background(), contract.ArtifactID(id), bytes.NewBufferString("x"))
		require.ErrorIs(t, err, contract.ErrPathInvalid, id)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestWriteCtxCancel 上下文取消
func TestWriteCtxCancel(t *testing.T) {
	w, err := New(&Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Write(ctx, "a.txt", strings.NewReader("data")), context.Canceled)
	_, err = w.Prepare(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// TestNewInvalid 参数缺失
func TestNewInvalid(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, os.ErrInvalid)
	_, err = New(&Options{OutputDir: "  "})
	require.ErrorIs(t, err, os.ErrInvalid)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

// TestWriteAtomicCopyError 原子写入时拷贝失败不残留临时文件
func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir, Atomic: boolPtr(true)})
	require.NoError(t, err)
	require.Error(t, w.Write(context.Background(), "a.txt", errReader{}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestCopyCtxCancel 拷贝途中取消
func TestCopyCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var dst bytes.Buffer
	src := &cancelAfterRead{r: strings.NewReader("abcdef"), cancel: cancel}
	err := copyCtx(ctx, &dst, src, 2)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "ab", dst.String())
}

type cancelAfterRead struct {
	r      *strings.Reader
	cancel context.CancelFunc
}

func (c *cancelAfterRead) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.cancel()
	return n, err
}

// TestWriteAtomicCanceledKeepsOld 原子模式下取消不破坏已有分片
func TestWriteAtomicCanceledKeepsOld(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir, Atomic: boolPtr(true), BufSize: 2})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), "a_part1.txt", strings.NewReader("old\n")))

	ctx, cancel := context.WithCancel(context.Background())
	src := &cancelAfterRead{r: strings.NewReader("new content\n"), cancel: cancel}
	require.ErrorIs(t, w.Write(ctx, "a_part1.txt", src), context.Canceled)
	b, err := os.ReadFile(filepath.Join(dir, "a_part1.txt"))
	require.NoError(t, err)
	require.Equal(t, "old\n", string(b))
	noTempLeft(t, dir)
}

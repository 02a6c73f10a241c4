package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"txtsplit/pkg/contract"
)

// Options 分片写出选项。
type Options struct {
	// OutputDir 输出目录（必需），配置层默认解析为程序目录下的 TXTCache。
	OutputDir string `json:"output_dir"`
	// Atomic 为 true 时先写同目录临时文件，fsync 后替换目标；
	// 默认 false 直接截断覆盖，中途失败会留下不完整分片。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile/PermDir 为 0 时取 0644/0755。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize <=0 时取 64KiB。
	BufSize int `json:"buf_size,omitempty"`
}

const tmpPrefix = ".part-"

// FS 将分片写入单一扁平目录。
type FS struct {
	root    string
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer 实现。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("writer: output_dir required: %w", os.ErrInvalid)
	}
	w := &FS{
		root:    filepath.Clean(opts.OutputDir),
		permF:   orMode(opts.PermFile, 0o644),
		permD:   orMode(opts.PermDir, 0o755),
		bufSize: opts.BufSize,
	}
	if w.bufSize <= 0 {
		w.bufSize = 64 * 1024
	}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	return w, nil
}

func orMode(m, def os.FileMode) os.FileMode {
	if m == 0 {
		return def
	}
	return m
}

var _ contract.Writer = (*FS)(nil)

// Prepare 幂等创建输出目录；路径被非目录占用时返回 *os.PathError。
func (w *FS) Prepare(ctx context.Context) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.root, w.permD); err != nil {
		return "", err
	}
	return w.root, nil
}

// Write 将 r 写为 root 下名为 id 的分片文件，同名文件被替换。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	dest, err := w.partPath(id)
	if err != nil {
		return err
	}
	var s sink
	if w.atomic {
		s, err = openTemp(dest, w.permF)
	} else {
		s, err = openDirect(dest, w.permF)
	}
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(s.f, w.bufSize)
	if err := copyCtx(ctx, bw, r, w.bufSize); err != nil {
		s.abort()
		return err
	}
	if err := bw.Flush(); err != nil {
		s.abort()
		return err
	}
	return s.commit()
}

// partPath 分片名只能是单段本地文件名。
func (w *FS) partPath(id contract.ArtifactID) (string, error) {
	name := string(id)
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.VolumeName(name) != "" ||
		!filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: part name %q", contract.ErrPathInvalid, name)
	}
	return filepath.Join(w.root, name), nil
}

// sink 一次分片写出的目标文件及其收尾动作。
type sink struct {
	f    *os.File
	dest string
	tmp  string // 非空表示原子模式
}

func openDirect(dest string, perm os.FileMode) (sink, error) {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return sink{}, err
	}
	return sink{f: f, dest: dest}, nil
}

func openTemp(dest string, perm os.FileMode) (sink, error) {
	f, err := os.CreateTemp(filepath.Dir(dest), tmpPrefix+"*")
	if err != nil {
		return sink{}, err
	}
	_ = f.Chmod(perm)
	return sink{f: f, dest: dest, tmp: f.Name()}, nil
}

func (s sink) commit() error {
	if s.tmp == "" {
		return s.f.Close()
	}
	if err := s.f.Sync(); err != nil {
		s.abort()
		return err
	}
	if err := s.f.Close(); err != nil {
		_ = os.Remove(s.tmp)
		return err
	}
	if err := osReplace(s.tmp, s.dest); err != nil {
		_ = os.Remove(s.tmp)
		return err
	}
	_ = syncDir(filepath.Dir(s.dest))
	return nil
}

func (s sink) abort() {
	_ = s.f.Close()
	if s.tmp != "" {
		_ = os.Remove(s.tmp)
	}
}

// copyCtx 分块拷贝，每块之前检查 ctx。
func copyCtx(ctx context.Context, dst io.Writer, src io.Reader, chunk int) error {
	buf := make([]byte, chunk)
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

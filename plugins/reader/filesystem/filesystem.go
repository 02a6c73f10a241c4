package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"txtsplit/pkg/contract"
)

// StdinID 为 STDIN 输入的 FileID；分片命名为 stdin_partN.txt。
const StdinID contract.FileID = "stdin"

// Options 输入枚举选项。
type Options struct {
	// BufSize 读缓冲区大小，默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames 递归时跳过的目录基名（大小写不敏感），如 [".git","TXTCache"]。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// IncludeExts 递归时只收这些扩展名；为空不限制。显式文件不受影响。
	IncludeExts []string `json:"include_exts"`
	// MaxBytes >0 时拒绝超过该大小的常规文件（整文件读入内存）。
	MaxBytes int64 `json:"max_bytes,omitempty"`
}

// FileSystem 基于本地文件与 STDIN 的 Reader。
type FileSystem struct {
	bufSize    int
	maxBytes   int64
	excludeDir set
	includeExt set
}

// set 小写字符串集合；nil 表示不限制。
type set map[string]struct{}

func (s set) has(v string) bool {
	_, ok := s[strings.ToLower(v)]
	return ok
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{bufSize: 64 * 1024}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	r.maxBytes = opts.MaxBytes
	r.excludeDir = toSet(opts.ExcludeDirNames, func(s string) string { return s })
	r.includeExt = toSet(opts.IncludeExts, func(s string) string {
		if !strings.HasPrefix(s, ".") {
			return "." + s
		}
		return s
	})
	return r
}

func toSet(in []string, norm func(string) string) set {
	var out set
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if out == nil {
			out = set{}
		}
		out[norm(v)] = struct{}{}
	}
	return out
}

var _ contract.Reader = (*FileSystem)(nil)

// Iterate 依次把 roots 展开成常规文件交给 yield；目录按字典序递归。
// roots 为空或仅为 "-" 时读取 STDIN。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(StdinID, r.buffered(io.NopCloser(os.Stdin)))
	}
	for _, s := range roots {
		if s == "-" {
			return fmt.Errorf("%w: stdin '-' cannot be mixed with other roots", contract.ErrInvalidArgument)
		}
	}
	var files []string
	for _, root := range roots {
		found, err := r.expand(ctx, root)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if err := checkPartNames(files); err != nil {
		return err
	}
	for _, p := range files {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if err := r.emit(p, yield); err != nil {
			return err
		}
	}
	return nil
}

// checkPartNames 同一批次内的分片名不能重叠：基名（去扩展名，大小写不敏感）须唯一。
func checkPartNames(files []string) error {
	seen := make(map[string]string, len(files))
	for _, p := range files {
		k := strings.ToLower(contract.BaseName(contract.NormalizeFileID(p)))
		if prev, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s and %s would write the same part files", contract.ErrInvalidArgument, prev, p)
		}
		seen[k] = p
	}
	return nil
}

// expand 把单个 root 展开为待处理文件列表。
// 根为指向常规文件的链接时以链接路径输出；目录链接一律不跟随。
func (r *FileSystem) expand(ctx context.Context, root string) ([]string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		ok, err := regularTarget(root)
		if err != nil || !ok {
			return nil, err
		}
		return []string{root}, nil
	case info.Mode().IsRegular():
		return []string{root}, nil
	case !info.IsDir():
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && r.excludeDir.has(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if r.includeExt != nil && !r.includeExt.has(filepath.Ext(d.Name())) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			ok, err := regularTarget(p)
			if err != nil {
				return err
			}
			if ok {
				files = append(files, p)
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// regularTarget 报告链接是否指向常规文件；失效链接返回错误。
func regularTarget(p string) (bool, error) {
	t, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return t.Mode().IsRegular(), nil
}

// emit 打开文件并交给 yield；句柄由 yield 关闭，yield 出错时此处再兜底关闭。
func (r *FileSystem) emit(p string, yield func(contract.FileID, io.ReadCloser) error) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	if r.maxBytes > 0 {
		st, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return err
		}
		if st.Size() > r.maxBytes {
			_ = f.Close()
			return fmt.Errorf("%w: %s is %d bytes, limit %d", contract.ErrInvalidArgument, p, st.Size(), r.maxBytes)
		}
	}
	rc := r.buffered(f)
	if err := yield(contract.NormalizeFileID(p), rc); err != nil {
		_ = rc.Close()
		return err
	}
	return nil
}

// bufferedCloser bufio.Reader 加底层 Closer。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func (r *FileSystem) buffered(c io.ReadCloser) *bufferedCloser {
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, r.bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

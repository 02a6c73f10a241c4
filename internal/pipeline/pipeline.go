package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"txtsplit/internal/diag"
	"txtsplit/pkg/contract"
)

// - 同步执行：逐文件、逐分片顺序处理，组件均无内部并发。
// - 先校验后落盘：份数在创建输出目录之前完成校验。
// - 首错中止：任一阶段失败即返回，已写出的分片保留（不回滚）。
// - 单次包装：对外错误统一为 ErrSplitFailed 包装，根因经 %w 链保留。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader   contract.Reader
	Detector contract.Detector
	Decoder  contract.Decoder
	Splitter contract.Splitter
	Writer   contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// 输入根（文件/目录/“-”）；输出目录由 Writer 的 options 决定
	Inputs []string
	// Parts 拆分份数（由 Splitter 校验）
	Parts int
}

// Result 为单个源文件的拆分结果。
type Result struct {
	Dir      string          // 输出目录
	Parts    int             // 实际写出的分片数
	FileID   contract.FileID // 源文件
	Lines    int             // 源文件总行数
	Encoding contract.Label  // 探测到的编码
	Files    []string        // 分片完整路径（按序）
}

// Split 拆分单个文件：读取 → 探测 → 解码 → 分行/规划 → 准备目录 → 顺序写出。
// 返回输出目录与分片数；失败时错误满足 errors.Is(err, contract.ErrSplitFailed)。
func Split(ctx context.Context, comp Components, path string, parts int, logger *diag.Logger) (Result, error) {
	if err := sanity(comp, false); err != nil {
		return Result{}, fmt.Errorf("%w: %w", contract.ErrSplitFailed, err)
	}
	fileID := contract.NormalizeFileID(path)
	raw, err := os.ReadFile(path)
	if err != nil {
		observeErr(logger, "reader", fileID, err)
		return Result{}, fmt.Errorf("%w: %w", contract.ErrSplitFailed, err)
	}
	res, err := splitBytes(ctx, comp, fileID, raw, parts, logger)
	if err != nil {
		return res, fmt.Errorf("%w: %w", contract.ErrSplitFailed, err)
	}
	return res, nil
}

// Run 批量执行：Reader 按稳定顺序回调每个文件，逐个拆分。
// 首个失败即中止并返回（已完成文件的结果一并返回）。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) ([]Result, error) {
	if err := sanity(comp, true); err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrSplitFailed, err)
	}
	if len(set.Inputs) == 0 {
		return nil, fmt.Errorf("%w: %w: empty inputs", contract.ErrSplitFailed, contract.ErrInvalidArgument)
	}

	var results []Result
	rtimer := logger.StartWithKV("reader", "iterate", "", map[string]string{"roots": strconv.Itoa(len(set.Inputs))})
	err := comp.Reader.Iterate(ctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		defer rc.Close()
		raw, rerr := io.ReadAll(rc)
		if rerr != nil {
			observeErr(logger, "reader", fid, rerr)
			return observed{rerr}
		}
		res, serr := splitBytes(ctx, comp, fid, raw, set.Parts, logger)
		if serr != nil {
			return serr
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		if !isObserved(err) {
			observeErr(logger, "reader", "", err)
		}
		return results, fmt.Errorf("%w: %w", contract.ErrSplitFailed, err)
	}
	if len(results) == 0 {
		logger.Warn("reader", "no input files matched", "", map[string]string{"roots": strings.Join(set.Inputs, ",")})
	}
	rtimer.Finish("iterate", int64(len(results)))
	diag.IncOp("reader", "finish", "success")
	return results, nil
}

// splitBytes 为单文件核心流程；错误未包装 ErrSplitFailed，由调用方统一包装。
func splitBytes(ctx context.Context, comp Components, fid contract.FileID, raw []byte, parts int, logger *diag.Logger) (res Result, err error) {
	res = Result{FileID: fid}
	if t := diag.GetTerminal(); t != nil {
		t.FileStart(string(fid))
	}
	fileStart := time.Now()
	defer func() {
		if t := diag.GetTerminal(); t != nil {
			t.FileFinish(err == nil, res.Parts, time.Since(fileStart))
		}
		if err != nil {
			err = observed{err}
		}
	}()

	stimer := logger.StartWithKV("split", "split", string(fid), map[string]string{
		"parts": strconv.Itoa(parts),
		"bytes": strconv.Itoa(len(raw)),
	})

	// 探测
	if err := ctxErr(ctx); err != nil {
		observeErr(logger, "split", fid, err)
		return res, err
	}
	dtimer := logger.StartWith("detector", "detect", string(fid))
	label, err := comp.Detector.Detect(ctx, raw)
	if err != nil {
		observeErr(logger, "detector", fid, err)
		return res, fmt.Errorf("detect: %w", err)
	}
	res.Encoding = label
	dtimer.FinishWithKV("detect", 0, map[string]string{"label": string(label)})
	diag.IncOp("detector", "finish", "success")

	// 解码
	ctimer := logger.StartWith("decoder", "decode", string(fid))
	text, err := comp.Decoder.Decode(ctx, label, raw)
	if err != nil {
		observeErr(logger, "decoder", fid, err)
		return res, fmt.Errorf("decode %s as %q: %w", fid, label, err)
	}
	ctimer.Finish("decode", int64(len(text)))
	diag.IncOp("decoder", "finish", "success")

	// 分行 + 规划：在任何落盘动作之前完成份数校验
	ptimer := logger.StartWith("splitter", "split", string(fid))
	pieces, err := comp.Splitter.Split(ctx, fid, text, parts)
	if err != nil {
		observeErr(logger, "splitter", fid, err)
		return res, err
	}
	for _, p := range pieces {
		res.Lines += len(p.Lines)
	}
	// 后置校验：任意 Splitter 实现都须满足序号连续与均分约束
	if _, err := contract.ValidateParts(pieces, res.Lines); err != nil {
		observeErr(logger, "splitter", fid, err)
		return res, err
	}
	ptimer.FinishWithKV("split", int64(len(pieces)), map[string]string{"lines": strconv.Itoa(res.Lines)})
	diag.IncOp("splitter", "finish", "success")

	// 输出目录
	dir, err := comp.Writer.Prepare(ctx)
	if err != nil {
		observeErr(logger, "writer", fid, err)
		return res, fmt.Errorf("prepare output dir: %w", err)
	}
	res.Dir = dir

	// 顺序写出
	wtimer := logger.StartWithKV("writer", "write", string(fid), map[string]string{"dir": dir})
	for i, p := range pieces {
		if err := ctxErr(ctx); err != nil {
			observeErr(logger, "writer", fid, err)
			return res, err
		}
		name := p.Name()
		if err := comp.Writer.Write(ctx, contract.ArtifactID(name), strings.NewReader(p.Body())); err != nil {
			observeErr(logger, "writer", fid, err)
			return res, fmt.Errorf("write %s: %w", name, err)
		}
		res.Parts++
		res.Files = append(res.Files, filepath.Join(dir, name))
		if t := diag.GetTerminal(); t != nil {
			t.FileProgress(i+1, len(pieces))
		}
	}
	wtimer.Finish("write", int64(res.Parts))
	diag.IncOp("writer", "finish", "success")

	stimer.FinishWithKV("split", int64(res.Parts), map[string]string{
		"encoding": string(label),
		"lines":    strconv.Itoa(res.Lines),
	})
	diag.IncOp("split", "finish", "success")
	diag.ObserveDuration("split", "finish", time.Since(fileStart).Milliseconds())
	return res, nil
}

// observed 标记已记录过日志的错误，避免 Reader 层重复记录。
type observed struct{ err error }

func (o observed) Error() string { return o.err.Error() }
func (o observed) Unwrap() error { return o.err }

func isObserved(err error) bool {
	var o observed
	return errors.As(err, &o)
}

// observeErr 记录错误事件并累加指标。
func observeErr(logger *diag.Logger, comp string, fid contract.FileID, err error) {
	code := diag.Classify(err)
	logger.ErrorWith(comp, string(code), err.Error(), nil, string(fid))
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func sanity(c Components, needReader bool) error {
	if c.Detector == nil || c.Decoder == nil || c.Splitter == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	if needReader && c.Reader == nil {
		return errors.New("pipeline: missing reader")
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

package diag

import (
	"context"
	"errors"
	"io/fs"
	"syscall"

	"txtsplit/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总与退出码，不改变面向用户的错误消息。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeInvalid   Code = "invalid_argument"
	CodeIO        Code = "io"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
)

// Classify 将错误归为最小分类；沿 %w 链识别根因（ErrSplitFailed 本身不参与分类）。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrInvalidArgument) {
		return CodeInvalid
	}
	if errors.Is(err, contract.ErrDecode) {
		return CodeIO
	}
	if errors.Is(err, contract.ErrInvariantViolation) || errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return CodeIO
	}
	return CodeUnknown
}

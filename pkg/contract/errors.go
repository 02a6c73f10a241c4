package contract

import "errors"

// 拆分流程的最小错误分类。
// 上层仅依赖 errors.Is 判定，不做字符串匹配。
var (
	// ErrInvalidArgument: 拆分份数非正或超过总行数。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDecode: 按检测到的编码无法解码（含未知编码标签）。
	ErrDecode = errors.New("decode error")
	// ErrSplitFailed: Split 对外返回的统一包装错误；原因通过 %w 链保留。
	ErrSplitFailed = errors.New("split failed")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)

// InvalidPartsMessage 为份数校验失败时面向用户的说明。
const InvalidPartsMessage = "split count must be a positive integer not exceeding the total line count"

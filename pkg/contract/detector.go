package contract

import "context"

// Detector: 基于原始字节的编码探测。
// 约束：
// 1) 只读输入，无副作用；
// 2) 无法判定时返回空 Label 与 nil 错误，由 Decoder 阶段报告解码失败；
// 3) 不在内部重试。
type Detector interface {
	Detect(ctx context.Context, raw []byte) (Label, error)
}

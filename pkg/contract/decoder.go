package contract

import "context"

// Decoder: 按编码标签将原始字节解码为 UTF-8 文本。
// 约束：
// 1) 未知/空标签返回 ErrDecode；
// 2) 非法字节序列返回 ErrDecode（严格模式）；
// 3) BOM 不出现在结果文本中。
type Decoder interface {
	Decode(ctx context.Context, label Label, raw []byte) (string, error)
}

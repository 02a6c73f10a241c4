package contract

import (
	"context"
	"io"
)

// Reader: 批量输入源抽象（文件/目录/STDIN）。
// 约束：
// 1) 按文件维度回调，顺序稳定；
// 2) FileID 稳定且去平台差异化，其基名决定分片命名；
// 3) 不做编码探测/解码，仅提供字节流；
// 4) 不在内部起并发。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}

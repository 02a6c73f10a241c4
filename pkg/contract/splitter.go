package contract

import "context"

// Splitter: 将解码后的文本按行拆分为 parts 个连续分片。
// 约束：
// 1) 行序保持不变，每行恰好归属一个分片；
// 2) 分片行数之差不超过 1，前 total%parts 个分片多 1 行；
// 3) parts 非正或超过总行数时返回 ErrInvalidArgument；
// 4) 无内部并发、幂等；不触碰文件系统。
type Splitter interface {
	Split(ctx context.Context, fileID FileID, text string, parts int) ([]Part, error)
}

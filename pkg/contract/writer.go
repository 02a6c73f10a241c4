package contract

import (
	"context"
	"io"
)

// ArtifactID: 输出工件标识（分片文件名），与 FileID 复用同一表示。
type ArtifactID = FileID

// Writer: 将分片内容持久化到输出目录。
// 约束：
//  1. Prepare 幂等创建输出目录并返回其路径；目录被同名文件占用时报错；
//  2. 同一 ArtifactID 后写覆盖先写，不做合并；
//  3. 流式写入，按字节透传，不修改内容；
//  4. ctx 取消需尽快返回；错误直接上抛（不做重试/回滚）。
type Writer interface {
	Prepare(ctx context.Context) (string, error)
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}

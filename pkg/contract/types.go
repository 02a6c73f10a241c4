package contract

import (
	"path"
	"strconv"
	"strings"
)

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Label: 编码标签（如 "UTF-8"、"GB-18030"）。空值表示未能判定。
type Label string

// Range: 行区间 [Start, End)，基于 0 的行下标。
type Range struct {
	Start int
	End   int
}

// Len 返回区间行数。
func (r Range) Len() int { return r.End - r.Start }

// Part: 一个输出分片。Index 自 1 起。
// 约束：
// - 同一次拆分内 FileID 一致；
// - Index 严格递增且连续；
// - Lines 不含行终止符。
type Part struct {
	Index  int
	FileID FileID
	Lines  []string
}

// Name 返回分片文件名：{源文件基名(去扩展名)}_part{Index}.txt。
func (p Part) Name() string { return PartName(p.FileID, p.Index) }

// Body 返回分片内容：行以 '\n' 连接，并以单个 '\n' 结尾。
func (p Part) Body() string {
	var b strings.Builder
	n := len(p.Lines)
	for _, l := range p.Lines {
		n += len(l)
	}
	b.Grow(n)
	for i, l := range p.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
	}
	b.WriteByte('\n')
	return b.String()
}

// PartName 依据 FileID 与 1 起的序号推导输出文件名。
func PartName(id FileID, index int) string {
	return BaseName(id) + "_part" + strconv.Itoa(index) + ".txt"
}

// BaseName 返回 FileID 的基名（去掉最后一个扩展名）。
// 以点开头且无其他点的名称（如 ".env"）视为无扩展名。
func BaseName(id FileID) string {
	base := path.Base(string(NormalizeFileID(string(id))))
	ext := path.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

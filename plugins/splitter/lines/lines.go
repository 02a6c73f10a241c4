package lines

import (
	"context"
	"fmt"
	"strings"

	"txtsplit/pkg/contract"
)

// Splitter 按行数将文本等分为连续分片。
type Splitter struct{}

// New 创建行拆分器。
func New() *Splitter { return &Splitter{} }

var _ contract.Splitter = (*Splitter)(nil)

// Split 将 text 拆为 parts 个分片。
func (s *Splitter) Split(ctx context.Context, fileID contract.FileID, text string, parts int) ([]contract.Part, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	ls := SplitLines(text)
	plan, err := Plan(len(ls), parts)
	if err != nil {
		return nil, err
	}
	out := make([]contract.Part, len(plan))
	for i, r := range plan {
		out[i] = contract.Part{Index: i + 1, FileID: fileID, Lines: ls[r.Start:r.End:r.End]}
	}
	return out, nil
}

// SplitLines 以通用换行（\n、\r\n、\r）切分文本，不保留行终止符。
// 末尾换行不产生额外空行；空文本返回 0 行。
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(text, "\n")+1)
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			out = append(out, text[start:i])
			start = i + 1
		case '\r':
			out = append(out, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// Plan 生成 parts 个连续、互不重叠、覆盖 [0,total) 的行区间。
// 前 total%parts 个区间多 1 行；区间大小之差不超过 1。
func Plan(total, parts int) ([]contract.Range, error) {
	if parts <= 0 || parts > total {
		return nil, fmt.Errorf("%w: %s (parts=%d, lines=%d)", contract.ErrInvalidArgument, contract.InvalidPartsMessage, parts, total)
	}
	base, rem := total/parts, total%parts
	out := make([]contract.Range, parts)
	start := 0
	for i := range out {
		end := start + base
		if i < rem {
			end++
		}
		out[i] = contract.Range{Start: start, End: end}
		start = end
	}
	return out, nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

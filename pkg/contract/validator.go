package contract

import "fmt"

// 校验库函数（纯函数，无 I/O）：
// - ValidatePlan:  区间有序、首尾相接、覆盖 [0,total)，长度差不超过 1
// - ValidateParts: 分片序号自 1 连续、FileID 一致、行数满足 ValidatePlan
// 供编排层对任意 Splitter 实现的输出做后置校验；违例返回 ErrInvariantViolation。

// ValidatePlan 校验拆分规划。
func ValidatePlan(ranges []Range, total int) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: empty plan", ErrInvariantViolation)
	}
	minLen, maxLen := ranges[0].Len(), ranges[0].Len()
	expect := 0
	for i, r := range ranges {
		if r.Start != expect || r.End < r.Start {
			return fmt.Errorf("%w: range %d [%d,%d) not contiguous at %d", ErrInvariantViolation, i, r.Start, r.End, expect)
		}
		if n := r.Len(); n < minLen {
			minLen = n
		} else if n > maxLen {
			maxLen = n
		}
		expect = r.End
	}
	if expect != total {
		return fmt.Errorf("%w: plan covers %d of %d lines", ErrInvariantViolation, expect, total)
	}
	if maxLen-minLen > 1 {
		return fmt.Errorf("%w: part sizes differ by %d", ErrInvariantViolation, maxLen-minLen)
	}
	return nil
}

// ValidateParts 校验分片序列并返回其等价规划。
func ValidateParts(parts []Part, total int) ([]Range, error) {
	ranges := make([]Range, 0, len(parts))
	start := 0
	for i, p := range parts {
		if p.Index != i+1 {
			return nil, fmt.Errorf("%w: part %d has index %d", ErrInvariantViolation, i+1, p.Index)
		}
		if i > 0 && p.FileID != parts[0].FileID {
			return nil, fmt.Errorf("%w: part %d file id %q != %q", ErrInvariantViolation, p.Index, p.FileID, parts[0].FileID)
		}
		ranges = append(ranges, Range{Start: start, End: start + len(p.Lines)})
		start += len(p.Lines)
	}
	if err := ValidatePlan(ranges, total); err != nil {
		return nil, err
	}
	return ranges, nil
}

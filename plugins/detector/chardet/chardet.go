package chardet

import (
	"context"
	"errors"
	"os"
	"unicode/utf8"

	"github.com/saintfish/chardet"

	"txtsplit/pkg/contract"
)

// Options 为编码探测器的可选配置（最小必要）。
type Options struct {
	// MinConfidence: 最低置信度（0-100）。低于该值视为无法判定，返回空标签。
	// 0 表示接受最优结果。
	MinConfidence int `json:"min_confidence"`
}

// Detector 基于 ICU 统计启发式（saintfish/chardet）实现编码探测。
type Detector struct {
	minConf int
	text    *chardet.Detector
}

// New 创建探测器。
func New(opts *Options) *Detector {
	mc := 0
	if opts != nil && opts.MinConfidence > 0 {
		mc = opts.MinConfidence
		if mc > 100 {
			mc = 100
		}
	}
	return &Detector{minConf: mc, text: chardet.NewTextDetector()}
}

var _ contract.Detector = (*Detector)(nil)

// Detect 返回最可能的编码标签。
// 空输入直接视为 UTF-8（无可探测内容，后续产出 0 行）；
// 整体为合法 UTF-8（含纯 ASCII）时直接判定，统计启发式只用于其余输入。
func (d *Detector) Detect(ctx context.Context, raw []byte) (contract.Label, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if len(raw) == 0 || utf8.Valid(raw) {
		return LabelUTF8, nil
	}
	res, err := d.text.DetectBest(raw)
	if err != nil {
		// 判定失败不单独成错：交给解码阶段以 ErrDecode 报告
		if errors.Is(err, chardet.NotDetectedError) {
			return "", nil
		}
		return "", err
	}
	if res == nil || res.Confidence < d.minConf {
		return "", nil
	}
	return contract.Label(res.Charset), nil
}

// LabelUTF8 为空输入及纯文本回退时使用的标签。
const LabelUTF8 contract.Label = "UTF-8"

// DetectFile 读取整个文件并返回探测结果；I/O 错误原样上抛。
func DetectFile(path string) (contract.Label, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return New(nil).Detect(context.Background(), raw)
}

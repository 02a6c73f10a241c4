package xtext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"txtsplit/pkg/contract"
)

// Options 为解码器的可选配置。
type Options struct {
	// Strict: 非 UTF 编码解码结果出现替换字符 U+FFFD 时判为解码失败。
	// 默认 true；显式 false 关闭。
	Strict *bool `json:"strict,omitempty"`
}

// Decoder 基于 golang.org/x/text 的多编码解码实现。
type Decoder struct {
	strict bool
}

// New 创建解码器。
func New(opts *Options) *Decoder {
	strict := true
	if opts != nil && opts.Strict != nil {
		strict = *opts.Strict
	}
	return &Decoder{strict: strict}
}

var _ contract.Decoder = (*Decoder)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// known: chardet 输出标签（小写）到 x/text 编码的显式映射。
// 其余标签依次回退到 WHATWG（htmlindex）与 IANA 名称表。
var known = map[string]encoding.Encoding{
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-32be":     utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	"utf-32le":     utf32.UTF32(utf32.LittleEndian, utf32.UseBOM),
	"gb-18030":     simplifiedchinese.GB18030,
	"gb18030":      simplifiedchinese.GB18030,
	"gb2312":       simplifiedchinese.GB18030,
	"gbk":          simplifiedchinese.GB18030,
	"hz-gb-2312":   simplifiedchinese.HZGB2312,
	"big5":         traditionalchinese.Big5,
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-5":   charmap.ISO8859_5,
	"iso-8859-6":   charmap.ISO8859_6,
	"iso-8859-7":   charmap.ISO8859_7,
	"iso-8859-8":   charmap.ISO8859_8,
	"iso-8859-8-i": charmap.ISO8859_8I,
	"iso-8859-9":   charmap.ISO8859_9,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"koi8-r":       charmap.KOI8R,
}

// Lookup 将编码标签解析为 x/text 编码；UTF-8 返回 nil, true（走快速路径）。
func Lookup(label contract.Label) (encoding.Encoding, bool) {
	name := strings.ToLower(strings.TrimSpace(string(label)))
	switch name {
	case "":
		return nil, false
	case "utf-8", "utf8", "utf-8-sig", "ascii", "us-ascii":
		return nil, true
	}
	if e, ok := known[name]; ok {
		return e, true
	}
	if e, err := htmlindex.Get(name); err == nil && e != nil {
		return e, true
	}
	if e, err := ianaindex.IANA.Encoding(name); err == nil && e != nil {
		return e, true
	}
	return nil, false
}

// Decode 将 raw 按 label 解码为 UTF-8 文本，并去除 BOM。
func (d *Decoder) Decode(ctx context.Context, label contract.Label, raw []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	enc, ok := Lookup(label)
	if !ok {
		if strings.TrimSpace(string(label)) == "" {
			return "", fmt.Errorf("%w: encoding could not be determined", contract.ErrDecode)
		}
		return "", fmt.Errorf("%w: unknown encoding %q", contract.ErrDecode, string(label))
	}
	if enc == nil {
		b := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(b) {
			return "", fmt.Errorf("%w: invalid UTF-8 byte sequence", contract.ErrDecode)
		}
		return string(b), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contract.ErrDecode, string(label), err)
	}
	// UTF-16/32 的 BOM 已由 UseBOM 消费；其余编码不会产出 BOM
	out = bytes.TrimPrefix(out, utf8BOM)
	if d.strict && bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("%w: %s: undecodable byte sequence", contract.ErrDecode, string(label))
	}
	return string(out), nil
}

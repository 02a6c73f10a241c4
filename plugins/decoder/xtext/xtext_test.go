package xtext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"txtsplit/pkg/contract"
)

func encode(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		label string
		enc   encoding.Encoding
		text  string
	}{
		{"GB-18030", simplifiedchinese.GB18030, "第一行\n第二行\r\n第三行"},
		{"GB2312", simplifiedchinese.GB18030, "简体中文"},
		{"Big5", traditionalchinese.Big5, "繁體中文\n測試"},
		{"Shift_JIS", japanese.ShiftJIS, "日本語のテキスト"},
		{"EUC-JP", japanese.EUCJP, "日本語"},
		{"windows-1252", charmap.Windows1252, "café\nnaïve"},
		{"ISO-8859-5", charmap.ISO8859_5, "Привет"},
		{"KOI8-R", charmap.KOI8R, "Привет мир"},
	}
	d := New(nil)
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := d.Decode(context.Background(), contract.Label(tt.label), encode(t, tt.enc, tt.text))
			require.NoError(t, err)
			require.Equal(t, tt.text, got)
		})
	}
}

func TestDecodeUTF8(t *testing.T) {
	d := New(nil)
	got, err := d.Decode(context.Background(), "UTF-8", []byte("\xEF\xBB\xBFa\nb"))
	require.NoError(t, err)
	require.Equal(t, "a\nb", got, "BOM 应被去除")

	_, err = d.Decode(context.Background(), "utf-8", []byte{'a', 0xC3})
	require.ErrorIs(t, err, contract.ErrDecode)
}

func TestDecodeUTF16BOM(t *testing.T) {
	raw := encode(t, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "行一\n行二")
	require.Equal(t, []byte{0xFF, 0xFE}, raw[:2])
	got, err := New(nil).Decode(context.Background(), "UTF-16LE", raw)
	require.NoError(t, err)
	require.Equal(t, "行一\n行二", got)

	raw = encode(t, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), "x")
	got, err = New(nil).Decode(context.Background(), "UTF-16BE", raw)
	require.NoError(t, err)
	require.Equal(t, "x", got)
}

func TestDecodeUnknownLabel(t *testing.T) {
	d := New(nil)
	_, err := d.Decode(context.Background(), "IBM424_rtl", []byte("abc"))
	require.ErrorIs(t, err, contract.ErrDecode)
	require.Contains(t, err.Error(), "IBM424_rtl")

	_, err = d.Decode(context.Background(), "", []byte("abc"))
	require.ErrorIs(t, err, contract.ErrDecode)
}

func TestDecodeStrict(t *testing.T) {
	raw := []byte{'a', 0xFF, 'b'}
	_, err := New(nil).Decode(context.Background(), "GB-18030", raw)
	require.ErrorIs(t, err, contract.ErrDecode)

	off := false
	got, err := New(&Options{Strict: &off}).Decode(context.Background(), "GB-18030", raw)
	require.NoError(t, err)
	require.True(t, strings.ContainsRune(got, '�'))
}

func TestLookupFallback(t *testing.T) {
	for _, name := range []string{"latin1", "gbk", "cp1251", "csShiftJIS"} {
		e, ok := Lookup(contract.Label(name))
		require.True(t, ok, name)
		require.NotNil(t, e, name)
	}
	e, ok := Lookup("ascii")
	require.True(t, ok)
	require.Nil(t, e)
	_, ok = Lookup("  ")
	require.False(t, ok)
}

func TestDecodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Decode(ctx, "UTF-8", []byte("a"))
	require.ErrorIs(t, err, context.Canceled)
}

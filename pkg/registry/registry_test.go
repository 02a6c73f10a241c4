package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	require.NoError(t, strictUnmarshal(nil, &o))
	require.Zero(t, o.A)
	require.NoError(t, strictUnmarshal(json.RawMessage(`{"a":1}`), &o))
	require.Equal(t, 1, o.A)
	require.Error(t, strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o), "未知字段应报错")
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		r, err := Reader["fs"](json.RawMessage(`{"exclude_dir_names":["TXTCache"],"include_exts":[".txt"]}`))
		require.NoError(t, err)
		require.NotNil(t, r)
		_, err = Reader["fs"](json.RawMessage(`{"x":1}`))
		require.Error(t, err)
	})
	t.Run("detector", func(t *testing.T) {
		_, err := Detector["chardet"](json.RawMessage(`{"min_confidence":30}`))
		require.NoError(t, err)
		_, err = Detector["chardet"](json.RawMessage(`{"x":1}`))
		require.Error(t, err)
	})
	t.Run("decoder", func(t *testing.T) {
		_, err := Decoder["xtext"](json.RawMessage(`{"strict":false}`))
		require.NoError(t, err)
		_, err = Decoder["xtext"](json.RawMessage(`{"strict":"yes"}`))
		require.Error(t, err)
	})
	t.Run("splitter", func(t *testing.T) {
		_, err := Splitter["lines"](nil)
		require.NoError(t, err)
		_, err = Splitter["lines"](json.RawMessage(`{}`))
		require.NoError(t, err)
		_, err = Splitter["lines"](json.RawMessage(`{"x":1}`))
		require.Error(t, err)
	})
	t.Run("writer", func(t *testing.T) {
		tmp := t.TempDir()
		w, err := Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"atomic":true}`, tmp)))
		require.NoError(t, err)
		require.NotNil(t, w)
		_, err = Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"x":1}`, tmp)))
		require.Error(t, err)
		_, err = Writer["fs"](json.RawMessage(`{}`))
		require.ErrorIs(t, err, os.ErrInvalid, "output_dir 必填")
	})
}

func TestRegistryNames(t *testing.T) {
	for name, m := range map[string]int{
		"reader": len(Reader), "detector": len(Detector), "decoder": len(Decoder),
		"splitter": len(Splitter), "writer": len(Writer),
	} {
		require.Equal(t, 1, m, name)
	}
}

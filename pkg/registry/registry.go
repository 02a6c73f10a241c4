package registry

import (
	"bytes"
	"encoding/json"

	"txtsplit/pkg/contract"
	dxt "txtsplit/plugins/decoder/xtext"
	dch "txtsplit/plugins/detector/chardet"
	rfs "txtsplit/plugins/reader/filesystem"
	sln "txtsplit/plugins/splitter/lines"
	wfs "txtsplit/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewDetector 工厂签名：接收原样 JSON Options。
type NewDetector func(raw json.RawMessage) (contract.Detector, error)

// NewDecoder 工厂签名：接收原样 JSON Options。
type NewDecoder func(raw json.RawMessage) (contract.Decoder, error)

// NewSplitter 工厂签名：接收原样 JSON Options。
type NewSplitter func(raw json.RawMessage) (contract.Splitter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Detector 工厂注册表。
var Detector = map[string]NewDetector{
	// chardet: ICU 统计启发式编码探测
	"chardet": func(raw json.RawMessage) (contract.Detector, error) {
		var opts dch.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return dch.New(&opts), nil
	},
}

// Decoder 工厂注册表。
var Decoder = map[string]NewDecoder{
	// xtext: golang.org/x/text 多编码解码
	"xtext": func(raw json.RawMessage) (contract.Decoder, error) {
		var opts dxt.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return dxt.New(&opts), nil
	},
}

// Splitter 工厂注册表。
var Splitter = map[string]NewSplitter{
	// lines: 按行均分（无选项，仍拒绝未知字段）
	"lines": func(raw json.RawMessage) (contract.Splitter, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sln.New(), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

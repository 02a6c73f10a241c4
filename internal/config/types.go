package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// 键使用 snake_case；未知字段在解析期失败（YAML/JSON/TOML 一致）。
type Config struct {
	Inputs []string `json:"inputs" yaml:"inputs" toml:"inputs"`
	// Parts: 拆分份数（>=1）；超过总行数由拆分阶段判定。
	Parts int `json:"parts" yaml:"parts" toml:"parts"`
	// OutputDir: 分片输出目录；默认为程序所在目录下的 TXTCache。
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	// Atomic: 是否原子写出分片；nil 表示沿用 Writer 默认（覆盖写）。
	Atomic  *bool   `json:"atomic,omitempty" yaml:"atomic,omitempty" toml:"atomic,omitempty"`
	Logging Logging `json:"logging" yaml:"logging" toml:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components" yaml:"components" toml:"components"`

	// 各组件 Options 子树，序列化为 JSON 后交由工厂严格解析。
	Options Options `json:"options" yaml:"options" toml:"options"`
}

// Logging: 日志等级与目录（空目录写 stderr）。
type Logging struct {
	Level string `json:"level" yaml:"level" toml:"level"`
	Dir   string `json:"dir" yaml:"dir" toml:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader   string `json:"reader" yaml:"reader" toml:"reader"`
	Detector string `json:"detector" yaml:"detector" toml:"detector"`
	Decoder  string `json:"decoder" yaml:"decoder" toml:"decoder"`
	Splitter string `json:"splitter" yaml:"splitter" toml:"splitter"`
	Writer   string `json:"writer" yaml:"writer" toml:"writer"`
}

// Options: 各组件的自由结构 Options。
type Options struct {
	Reader   map[string]any `json:"reader,omitempty" yaml:"reader,omitempty" toml:"reader,omitempty"`
	Detector map[string]any `json:"detector,omitempty" yaml:"detector,omitempty" toml:"detector,omitempty"`
	Decoder  map[string]any `json:"decoder,omitempty" yaml:"decoder,omitempty" toml:"decoder,omitempty"`
	Splitter map[string]any `json:"splitter,omitempty" yaml:"splitter,omitempty" toml:"splitter,omitempty"`
	Writer   map[string]any `json:"writer,omitempty" yaml:"writer,omitempty" toml:"writer,omitempty"`
}

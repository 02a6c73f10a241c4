package config

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），分片输出到程序目录下的 TXTCache；
// - 组件名采用仓库内置实现；
// - 选项给出安全中性默认值（键齐全，便于按需修改）。
func DefaultTemplateConfig() Config {
	d := Defaults()
	atomic := false
	return Config{
		Inputs:     []string{"-"},
		Parts:      d.Parts,
		OutputDir:  d.OutputDir,
		Atomic:     &atomic,
		Logging:    Logging{Level: "info", Dir: ""},
		Components: d.Components,
		Options: Options{
			Reader: map[string]any{
				"buf_size":          65536,
				"exclude_dir_names": []string{".git", OutputDirName},
				"include_exts":      []string{".txt"},
				"max_bytes":         0,
			},
			Detector: map[string]any{
				"min_confidence": 0,
			},
			Decoder: map[string]any{
				"strict": true,
			},
			Splitter: map[string]any{},
			Writer: map[string]any{
				"perm_file": 0,
				"perm_dir":  0,
				"buf_size":  65536,
			},
		},
	}
}

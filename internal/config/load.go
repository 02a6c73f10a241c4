package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// OutputDirName 为默认输出目录名。
const OutputDirName = "TXTCache"

// EnvPrefix 为环境变量前缀。
const EnvPrefix = "TXTSPLIT_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Parts:     2,
		OutputDir: DefaultOutputDir(),
		Logging:   Logging{Level: "info"},
		Components: Components{
			Reader:   "fs",
			Detector: "chardet",
			Decoder:  "xtext",
			Splitter: "lines",
			Writer:   "fs",
		},
	}
}

// InstallDir 返回可执行文件所在目录（解析符号链接）；失败时回退当前目录。
func InstallDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil {
		exe = real
	}
	return filepath.Dir(exe)
}

// DefaultOutputDir 返回 <程序目录>/TXTCache。
func DefaultOutputDir() string {
	return filepath.Join(InstallDir(), OutputDirName)
}

// Load 从文件加载 Config；按扩展名选择格式（.toml 用 TOML，其余按 YAML 解析，JSON 为其子集）。
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw, formatOf(path))
}

// Parse 解析原始字节（严格拒绝未知字段）。format: "toml" | "yaml" | "json"。
func Parse(raw []byte, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "toml":
		md, err := toml.Decode(string(raw), &cfg)
		if err != nil {
			return cfg, err
		}
		if und := md.Undecoded(); len(und) > 0 {
			keys := make([]string, 0, len(und))
			for _, k := range und {
				keys = append(keys, k.String())
			}
			return cfg, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
		}
		return cfg, nil
	case "yaml", "yml", "json", "":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, err
		}
		return cfg, nil
	default:
		return cfg, fmt.Errorf("config: unsupported format %q", format)
	}
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量/字符串为“替换”；Options 按组件整体替换，不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	if over.Parts != 0 {
		out.Parts = over.Parts
	}
	if strings.TrimSpace(over.OutputDir) != "" {
		out.OutputDir = strings.TrimSpace(over.OutputDir)
	}
	if over.Atomic != nil {
		v := *over.Atomic
		out.Atomic = &v
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	if strings.TrimSpace(over.Logging.Dir) != "" {
		out.Logging.Dir = strings.TrimSpace(over.Logging.Dir)
	}

	// 组件名（空不覆盖）
	out.Components.Reader = pick(out.Components.Reader, over.Components.Reader)
	out.Components.Detector = pick(out.Components.Detector, over.Components.Detector)
	out.Components.Decoder = pick(out.Components.Decoder, over.Components.Decoder)
	out.Components.Splitter = pick(out.Components.Splitter, over.Components.Splitter)
	out.Components.Writer = pick(out.Components.Writer, over.Components.Writer)

	// Options（完整替换对应组件）
	if over.Options.Reader != nil {
		out.Options.Reader = cloneMap(over.Options.Reader)
	}
	if over.Options.Detector != nil {
		out.Options.Detector = cloneMap(over.Options.Detector)
	}
	if over.Options.Decoder != nil {
		out.Options.Decoder = cloneMap(over.Options.Decoder)
	}
	if over.Options.Splitter != nil {
		out.Options.Splitter = cloneMap(over.Options.Splitter)
	}
	if over.Options.Writer != nil {
		out.Options.Writer = cloneMap(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 TXTSPLIT_；集合之外的键忽略。
// 支持：INPUTS, PARTS, OUTPUT_DIR, ATOMIC, LOG_LEVEL, LOG_DIR, COMPONENTS_*
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		switch key {
		case "INPUTS":
			over.Inputs = splitComma(val)
		case "PARTS":
			if val == "" {
				continue
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return over, fmt.Errorf("config: %sPARTS: %w", EnvPrefix, err)
			}
			over.Parts = n
		case "OUTPUT_DIR":
			over.OutputDir = val
		case "ATOMIC":
			if val == "" {
				continue
			}
			b, err := strconv.ParseBool(val)
			if err != nil {
				return over, fmt.Errorf("config: %sATOMIC: %w", EnvPrefix, err)
			}
			over.Atomic = &b
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_DETECTOR":
			over.Components.Detector = val
		case "COMPONENTS_DECODER":
			over.Components.Decoder = val
		case "COMPONENTS_SPLITTER":
			over.Components.Splitter = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		}
	}
	return over, nil
}

func pick(cur, over string) string {
	if t := strings.TrimSpace(over); t != "" {
		return t
	}
	return cur
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"txtsplit/pkg/contract"
)

// 三种格式解析出同一配置
func TestLoadFormats(t *testing.T) {
	for _, name := range []string{"basic.yaml", "basic.toml", "basic.json"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "..", "testdata", "config", name))
			require.NoError(t, err)
			require.Equal(t, []string{"books/novel.txt"}, cfg.Inputs)
			require.Equal(t, 4, cfg.Parts)
			require.Equal(t, "/tmp/txtsplit-out", cfg.OutputDir)
			require.NotNil(t, cfg.Atomic)
			require.True(t, *cfg.Atomic)
			require.Equal(t, "debug", cfg.Logging.Level)
			require.Equal(t, "chardet", cfg.Components.Detector)
			require.EqualValues(t, 10, cfg.Options.Detector["min_confidence"])
			require.Equal(t, true, cfg.Options.Decoder["strict"])
			require.NoError(t, Validate(cfg))
		})
	}
}

func TestParseUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("unknown: 1\n"), "yaml")
	require.Error(t, err)
	_, err = Parse([]byte(`{"unknown":1}`), "json")
	require.Error(t, err)
	_, err = Parse([]byte("unknown = 1\n"), "toml")
	require.ErrorContains(t, err, "unknown")
	_, err = Parse([]byte("[logging]\ncolor = true\n"), "toml")
	require.ErrorContains(t, err, "logging.color")
	_, err = Parse(nil, "ini")
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil, "yaml")
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverlay(t *testing.T) {
	env := []string{
		"TXTSPLIT_INPUTS=a.txt, b.txt",
		"TXTSPLIT_PARTS=3",
		"TXTSPLIT_OUTPUT_DIR=/out",
		"TXTSPLIT_ATOMIC=true",
		"TXTSPLIT_LOG_LEVEL=warn",
		"TXTSPLIT_LOG_DIR=/logs",
		"TXTSPLIT_COMPONENTS_DETECTOR=chardet",
		"TXTSPLIT_UNKNOWN=x",
		"OTHER_PARTS=9",
		"TXTSPLIT_=x",
	}
	over, err := EnvOverlay(env)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, over.Inputs)
	require.Equal(t, 3, over.Parts)
	require.Equal(t, "/out", over.OutputDir)
	require.True(t, *over.Atomic)
	require.Equal(t, Logging{Level: "warn", Dir: "/logs"}, over.Logging)
	require.Equal(t, "chardet", over.Components.Detector)
}

func TestEnvOverlayBadValues(t *testing.T) {
	_, err := EnvOverlay([]string{"TXTSPLIT_PARTS=abc"})
	require.ErrorContains(t, err, "TXTSPLIT_PARTS")
	_, err = EnvOverlay([]string{"TXTSPLIT_ATOMIC=maybe"})
	require.ErrorContains(t, err, "TXTSPLIT_ATOMIC")
	over, err := EnvOverlay([]string{"TXTSPLIT_PARTS="})
	require.NoError(t, err)
	require.Zero(t, over.Parts)
}

// 优先级：后者覆盖前者；空值不覆盖
func TestMerge(t *testing.T) {
	base := Defaults()
	base.Options.Reader = map[string]any{"buf_size": 1}
	f := false
	over := Config{
		Inputs:     []string{"x"},
		Parts:      5,
		Atomic:     &f,
		Logging:    Logging{Level: " error "},
		Components: Components{Decoder: "xtext"},
		Options:    Options{Reader: map[string]any{"include_exts": []any{".md"}}},
	}
	got := Merge(base, over)
	require.Equal(t, []string{"x"}, got.Inputs)
	require.Equal(t, 5, got.Parts)
	require.Equal(t, base.OutputDir, got.OutputDir)
	require.False(t, *got.Atomic)
	require.Equal(t, "error", got.Logging.Level)
	require.Equal(t, "chardet", got.Components.Detector)
	require.NotContains(t, got.Options.Reader, "buf_size", "整体替换")

	over.Options.Reader["include_exts"] = nil
	require.NotNil(t, got.Options.Reader["include_exts"], "深拷贝")

	same := Merge(got, Config{})
	require.Equal(t, got, same)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Equal(t, 2, d.Parts)
	require.Equal(t, OutputDirName, filepath.Base(d.OutputDir))
	require.Equal(t, InstallDir(), filepath.Dir(d.OutputDir))
	require.Equal(t, Components{Reader: "fs", Detector: "chardet", Decoder: "xtext", Splitter: "lines", Writer: "fs"}, d.Components)
}

func TestValidateErrors(t *testing.T) {
	require.Error(t, Validate(Config{}), "空配置应失败")

	cfg := DefaultTemplateConfig()
	cfg.Inputs = []string{"-", "a"}
	require.Error(t, Validate(cfg), "混用 '-' 应失败")

	cfg = DefaultTemplateConfig()
	cfg.Inputs = []string{" "}
	require.Error(t, Validate(cfg))

	cfg = DefaultTemplateConfig()
	cfg.Parts = 0
	err := Validate(cfg)
	require.ErrorIs(t, err, contract.ErrInvalidArgument)
	require.ErrorContains(t, err, contract.InvalidPartsMessage)

	cfg = DefaultTemplateConfig()
	cfg.OutputDir = ""
	require.Error(t, Validate(cfg))

	cfg = DefaultTemplateConfig()
	cfg.Components.Detector = "magic"
	require.ErrorContains(t, Validate(cfg), `detector "magic"`)
}

func TestAssemble(t *testing.T) {
	out := t.TempDir()
	cfg := DefaultTemplateConfig()
	cfg.OutputDir = out
	tr := true
	cfg.Atomic = &tr
	cfg.Parts = 3

	comp, set, err := Assemble(cfg)
	require.NoError(t, err)
	require.NotNil(t, comp.Reader)
	require.NotNil(t, comp.Detector)
	require.NotNil(t, comp.Decoder)
	require.NotNil(t, comp.Splitter)
	require.NotNil(t, comp.Writer)
	require.Equal(t, []string{"-"}, set.Inputs)
	require.Equal(t, 3, set.Parts)

	dir, err := comp.Writer.Prepare(t.Context())
	require.NoError(t, err)
	require.Equal(t, out, dir)
}

func TestAssembleBadOptions(t *testing.T) {
	cfg := DefaultTemplateConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Options.Decoder = map[string]any{"strictly": true}
	_, _, err := Assemble(cfg)
	require.ErrorContains(t, err, "config: decoder")

	cfg = DefaultTemplateConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Options.Splitter = map[string]any{"x": 1}
	_, _, err = Assemble(cfg)
	require.ErrorContains(t, err, "config: splitter")
}

// 模板经 YAML 往返后仍可装配
func TestTemplateYAML(t *testing.T) {
	b, err := yaml.Marshal(DefaultTemplateConfig())
	require.NoError(t, err)
	cfg, err := Parse(b, "yaml")
	require.NoError(t, err)
	cfg.OutputDir = t.TempDir()
	_, _, err = Assemble(cfg)
	require.NoError(t, err)
}

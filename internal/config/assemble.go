package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"txtsplit/internal/pipeline"
	"txtsplit/pkg/contract"
	"txtsplit/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return errors.New("config: input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.New("config: '-' cannot be mixed with other roots")
	}
	if cfg.Parts < 1 {
		return fmt.Errorf("config: parts=%d: %w: %s", cfg.Parts, contract.ErrInvalidArgument, contract.InvalidPartsMessage)
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output_dir empty")
	}
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Detector, d.Detector); registry.Detector[name] == nil {
		return fmt.Errorf("config: detector %q not registered", name)
	}
	if name := effName(cfg.Components.Decoder, d.Decoder); registry.Decoder[name] == nil {
		return fmt.Errorf("config: decoder %q not registered", name)
	}
	if name := effName(cfg.Components.Splitter, d.Splitter); registry.Splitter[name] == nil {
		return fmt.Errorf("config: splitter %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只把各组件 Options 序列化为 JSON。
// 顶层 output_dir / atomic 注入 Writer Options，覆盖其中的同名键。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	d := Defaults().Components
	var comp pipeline.Components

	raw, err := toRaw("reader", cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if comp.Reader, err = registry.Reader[effName(cfg.Components.Reader, d.Reader)](raw); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader: %w", err)
	}

	if raw, err = toRaw("detector", cfg.Options.Detector); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if comp.Detector, err = registry.Detector[effName(cfg.Components.Detector, d.Detector)](raw); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: detector: %w", err)
	}

	if raw, err = toRaw("decoder", cfg.Options.Decoder); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if comp.Decoder, err = registry.Decoder[effName(cfg.Components.Decoder, d.Decoder)](raw); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: decoder: %w", err)
	}

	if raw, err = toRaw("splitter", cfg.Options.Splitter); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if comp.Splitter, err = registry.Splitter[effName(cfg.Components.Splitter, d.Splitter)](raw); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: splitter: %w", err)
	}

	wopts := cloneMap(cfg.Options.Writer)
	wopts["output_dir"] = cfg.OutputDir
	if cfg.Atomic != nil {
		wopts["atomic"] = *cfg.Atomic
	}
	if raw, err = toRaw("writer", wopts); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if comp.Writer, err = registry.Writer[effName(cfg.Components.Writer, d.Writer)](raw); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer: %w", err)
	}

	set := pipeline.Settings{
		Inputs: cloneStrings(cfg.Inputs),
		Parts:  cfg.Parts,
	}
	return comp, set, nil
}

// toRaw 将自由结构 Options 序列化为 JSON；nil 返回空（工厂保持零值默认）。
func toRaw(name string, m map[string]any) (json.RawMessage, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("config: options.%s: %w", name, err)
	}
	return b, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}

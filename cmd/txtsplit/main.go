package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "txtsplit/internal/config"
	"txtsplit/internal/diag"
	"txtsplit/internal/pipeline"
)

var pipelineRun = pipeline.Run

// 退出码
const (
	exitOK     = 0
	exitFailed = 1 // 拆分失败（运行期）
	exitUsage  = 2 // 参数错误（-n 非法、缺少输入、未知旗标）
	exitConfig = 3 // 配置解析/校验/装配失败
)

// 配置文件默认查找顺序（工作目录）
var defaultConfigNames = []string{"config.yaml", "config.yml", "config.toml", "config.json"}

type cliOptions struct {
	parts     string
	config    string
	outputDir string
	atomic    bool
	logLevel  string
	logDir    string
	status    bool
	initDir   string
}

// 位置参数为 roots（文件/目录 或 "-" 表示 STDIN，不能与其他根混用）。
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	code := exitOK
	var opts cliOptions
	cmd := &cobra.Command{
		Use:           "txtsplit [flags] [files...]",
		Short:         "按行数将文本文件均分为 N 份（自动识别编码，输出 UTF-8）",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, roots []string) error {
			code = execute(cmd, opts, roots, stdout, stderr)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.parts, "parts", "n", "", "拆分份数（正整数；覆盖配置，默认 2）")
	f.StringVar(&opts.config, "config", "", "配置文件路径（.yaml/.yml/.json/.toml）；缺省查找工作目录下的 config.*")
	f.StringVar(&opts.outputDir, "output-dir", "", "输出目录（默认程序所在目录下的 TXTCache）")
	f.BoolVar(&opts.atomic, "atomic", false, "原子写出分片（临时文件 + rename）")
	f.StringVar(&opts.logLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	f.StringVar(&opts.logDir, "log-dir", "", "日志目录（为空写 stderr）")
	f.BoolVar(&opts.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	f.StringVar(&opts.initDir, "init-config", "", "在指定目录生成默认配置 config.yaml 和 .env 模板（已存在则报错退出，不覆盖）；不带值时为当前目录")
	f.Lookup("init-config").NoOptDefVal = "."

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fprintf(stderr, "参数错误: %v\n", err)
		return exitUsage
	}
	return code
}

// stopSignals 取消当前批次；已写出的分片保留。
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func execute(cmd *cobra.Command, opts cliOptions, roots []string, stdout, stderr io.Writer) int {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	// 先占位默认，稍后在解析/合并配置后重建 logger 以使用最终 level
	logger := newLogger(corrID, "info", "", stderr)
	defer func() { _ = logger.Sync() }()

	// --init-config: 生成模板并退出
	if dir := strings.TrimSpace(opts.initDir); dir != "" {
		if err := initConfig(dir); err != nil {
			fprintf(stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "init config failed", &start)
			return exitConfig
		}
		fprintf(stdout, "已生成默认配置: %s\n", filepath.Join(dir, "config.yaml"))
		return exitOK
	}

	// -n 由前端解析为正整数
	var parts int
	if cmd.Flags().Changed("parts") {
		n, err := strconv.Atoi(strings.TrimSpace(opts.parts))
		if err != nil {
			fprintf(stderr, "拆分份数必须为正整数: %q\n", opts.parts)
			return exitUsage
		}
		if n <= 0 {
			fprintf(stderr, "拆分份数必须大于 0\n")
			return exitUsage
		}
		parts = n
	}

	// 配置文件（--config > TXTSPLIT_CONFIG_FILE > 工作目录默认名）
	path := opts.config
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		path = findDefaultConfig()
	}

	cfg := cfgpkg.Defaults()
	if path != "" {
		base, err := cfgpkg.Load(path)
		if err != nil {
			fprintf(stderr, "配置解析失败: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "load failed", &start)
			return exitConfig
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// ENV 覆盖（最小集合）
	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(stderr, "环境变量解析失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "env overlay failed", &start)
		return exitConfig
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	overCLI := cfgpkg.Config{
		Inputs:    roots,
		Parts:     parts,
		OutputDir: opts.outputDir,
		Logging:   cfgpkg.Logging{Level: opts.logLevel, Dir: opts.logDir},
	}
	if cmd.Flags().Changed("atomic") {
		a := opts.atomic
		overCLI.Atomic = &a
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if len(cfg.Inputs) == 0 {
		fprintf(stderr, "请先选择一个文件\n")
		_ = cmd.Usage()
		return exitUsage
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		// 打印有效配置，便于诊断
		dumpConfig(stderr, cfg)
		logger.Error("config", string(diag.Classify(err)), "validate failed", &start)
		return exitConfig
	}

	// 使用最终配置重建 logger
	_ = logger.Sync()
	logger = newLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir, stderr)

	// 预检：输出目录可写（不创建输出目录本身）
	if err := preflightCheckOutputDir(cfg.OutputDir); err != nil {
		fprintf(stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "preflight failed", &start)
		return exitConfig
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble failed", &start)
		return exitConfig
	}

	logger.DebugStart("config", "effective", "", map[string]string{
		"inputs_count": strconv.Itoa(len(cfg.Inputs)),
		"parts":        strconv.Itoa(cfg.Parts),
		"output_dir":   cfg.OutputDir,
		"reader":       cfg.Components.Reader,
		"detector":     cfg.Components.Detector,
		"decoder":      cfg.Components.Decoder,
		"splitter":     cfg.Components.Splitter,
		"writer":       cfg.Components.Writer,
	})

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(stderr, opts.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	term.RunStart(cfg.Parts, cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), stopSignals...)
	defer stop()

	out := newPrinter(stdout, stderr)
	t := logger.Start("pipeline", "run")
	results, err := pipelineRun(ctx, comp, set, logger)
	for _, r := range results {
		out.success(r)
	}
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			out.failure(err)
		}
		term.RunFinish(false, time.Since(start))
		return exitFailed
	}
	t.FinishWithKV("run", int64(len(results)), diag.SnapshotStrings())
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	term.RunFinish(true, time.Since(start))
	return exitOK
}

// printer 输出面向用户的结果行；目标为终端时着色（lipgloss 按写入端探测色彩能力）。
type printer struct {
	stdout, stderr io.Writer
	ok, fail       lipgloss.Style
}

func newPrinter(stdout, stderr io.Writer) *printer {
	return &printer{
		stdout: stdout,
		stderr: stderr,
		ok:     lipgloss.NewRenderer(stdout).NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		fail:   lipgloss.NewRenderer(stderr).NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (p *printer) success(r pipeline.Result) {
	fprintf(p.stdout, "%s\n", p.ok.Render(fmt.Sprintf("文件已成功拆分为 %d 份！结果保存在 %s", r.Parts, r.Dir)))
}

func (p *printer) failure(err error) {
	fprintf(p.stderr, "%s\n", p.fail.Render(err.Error()))
}

// newLogger: 未配置日志目录时写入 stderr。
func newLogger(corrID, level, dir string, stderr io.Writer) *diag.Logger {
	if strings.TrimSpace(dir) == "" {
		return diag.NewLoggerTo(stderr, corrID, level)
	}
	return diag.NewLogger(corrID, level, dir)
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return
	}
	fprintf(w, "有效配置:\n%s", b)
}

func findDefaultConfig() string {
	for _, name := range defaultConfigNames {
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			return name
		}
	}
	return ""
}

// preflightCheckOutputDir: 启动前检查输出目录可写性。
// 规则：
// - 若目录已存在：尝试创建并删除临时文件；失败则判为不可写。
// - 若目录不存在：检查最近的已存在祖先目录是否可写（创建并删除临时目录），不创建输出目录本身。
func preflightCheckOutputDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	st, err := os.Stat(dir)
	switch {
	case err == nil && st.IsDir():
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	case err == nil:
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	case !os.IsNotExist(err):
		return err
	}
	parent := filepath.Dir(dir)
	for {
		pst, err := os.Stat(parent)
		if err == nil {
			if !pst.IsDir() {
				return fmt.Errorf("父路径不是目录: %s", parent)
			}
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
		next := filepath.Dir(parent)
		if next == parent {
			return fmt.Errorf("无法确定父目录: %s", dir)
		}
		parent = next
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}

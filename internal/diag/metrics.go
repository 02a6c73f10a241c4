package diag

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// 进程内指标，挂在私有 Registry 上：
// - txtsplit_op_total{comp,stage,result}
// - txtsplit_error_total{comp,code}
// - txtsplit_op_duration_ms{comp,stage}（累计值）

const namespace = "txtsplit"

var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "op_total",
		Help:      "Operations by component, stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "error_total",
		Help:      "Errors by component and classified code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "op_duration_ms",
		Help:      "Accumulated stage duration in milliseconds.",
	}, []string{"comp", "stage"})

	// 快照键沿用声明顺序，Gather 返回的标签按名字排序
	labelOrder = map[string][]string{
		namespace + "_op_total":       {"comp", "stage", "result"},
		namespace + "_error_total":    {"comp", "code"},
		namespace + "_op_duration_ms": {"comp", "stage"},
	}
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration)
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) { opTotal.WithLabelValues(comp, stage, result).Inc() }

// IncError 按分类累加错误计数。
func IncError(comp, code string) { errorTotal.WithLabelValues(comp, code).Inc() }

// ObserveDuration 累计阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	if durMS < 0 {
		return
	}
	opDuration.WithLabelValues(comp, stage).Add(float64(durMS))
}

// Snapshot 返回当前计数的拷贝，键形如 op_total{split,finish,success}。
func Snapshot() map[string]int64 {
	out := map[string]int64{}
	families, err := registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		order, ok := labelOrder[mf.GetName()]
		if !ok {
			continue
		}
		short := strings.TrimPrefix(mf.GetName(), namespace+"_")
		for _, m := range mf.GetMetric() {
			byName := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				byName[lp.GetName()] = lp.GetValue()
			}
			vals := make([]string, 0, len(order))
			for _, n := range order {
				vals = append(vals, byName[n])
			}
			out[key(short, vals...)] = int64(m.GetCounter().GetValue())
		}
	}
	return out
}

func key(name string, labels ...string) string {
	return name + "{" + strings.Join(labels, ",") + "}"
}

// SnapshotStrings 以字符串形式返回快照，便于写入日志 KV。
func SnapshotStrings() map[string]string {
	snap := Snapshot()
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		out[k] = strconv.FormatInt(v, 10)
	}
	return out
}

// ResetMetrics 清空计数（测试与长驻进程按需调用）。
func ResetMetrics() {
	opTotal.Reset()
	errorTotal.Reset()
	opDuration.Reset()
}

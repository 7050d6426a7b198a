package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() provision.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders engine metrics in the Prometheus text format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *provision.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render as text/plain.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, fam := range internaldefs.Families {
		header(&b, fam.Name, fam.Help, "counter")
		for _, m := range fam.Members {
			sample(&b, fam.Name, fam.Label, m.Value, snapshot.Counters[m.ID])
		}
	}

	for _, def := range internaldefs.CounterDefs {
		header(&b, def.Name, def.Help, "counter")
		sample(&b, def.Name, "", "", snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		header(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			sample(&b, def.Name+"_bucket", "le", le, cumulative[i])
		}
		sample(&b, def.Name+"_count", "", "", cumulative[len(cumulative)-1])
		// snapshots carry no sum
		sample(&b, def.Name+"_sum", "", "", 0)
	}

	header(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	sample(&b, internaldefs.AuditDroppedName, "", "", dropped)

	return b.String()
}

func header(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

// sample writes one series line; an empty label writes it bare.
func sample(b *strings.Builder, name, label, value string, v uint64) {
	b.WriteString(name)
	if label != "" {
		b.WriteByte('{')
		b.WriteString(label)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(value))
		b.WriteString("\"}")
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(v, 10))
	b.WriteByte('\n')
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
)

func escapeHelp(help string) string   { return helpEscaper.Replace(help) }
func escapeLabel(value string) string { return labelEscaper.Replace(value) }

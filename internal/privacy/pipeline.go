package privacy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var redactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shieldher_pii_redactions_total",
	Help: "Number of texts in which a PII category was redacted, by scope and category.",
}, []string{"scope", "category"})

// Result is the outcome of running a pipeline over one text.
type Result struct {
	Text       string
	Applied    bool
	Categories []Category
}

// Pipeline detects and redacts the categories of a single scope.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	scope     Scope
	detectors []*Detector
}

// NewPipeline binds a registry scope to a pipeline.
func NewPipeline(r *Registry, scope Scope) *Pipeline {
	return &Pipeline{scope: scope, detectors: r.Detectors(scope)}
}

// Scope returns the scope the pipeline was built for.
func (p *Pipeline) Scope() Scope {
	return p.scope
}

// Process redacts every detected category and reports what was found.
//
// Empty input is returned unchanged without running any detector.
// Substitution is global and follows registry priority, so the same input
// always yields the same output.
func (p *Pipeline) Process(text string) Result {
	if text == "" {
		return Result{Text: text}
	}

	out := text
	var found []Category
	for _, d := range p.detectors {
		if !d.Match(out) {
			continue
		}
		out = d.Redact(out)
		found = append(found, d.Name)
		redactionsTotal.WithLabelValues(string(p.scope), string(d.Name)).Inc()
	}

	return Result{Text: out, Applied: len(found) > 0, Categories: found}
}

// Redact is Process without the detection report.
func (p *Pipeline) Redact(text string) string {
	return p.Process(text).Text
}

// Scan reports the categories present in text without altering it.
func (p *Pipeline) Scan(text string) []Category {
	return detect(p.detectors, text)
}

package coverage

import (
	"errors"
	"log"

	"github.com/msageha/covergraph/internal/model"
)

// gate is the one-shot, build-wide decision point. It observes the
// finalized execution plan exactly once: if the report-request task is
// in the plan coverage is active and every test-like task gets its
// classpath rewritten; otherwise the coordination tasks are disabled so
// an unrelated build pays nothing at execution time.
type gate struct {
	logger *log.Logger
}

func (g *gate) inspect(ep *model.ExecutionPlan) error {
	// The aggregate depends on the report-request task, so a plan that
	// pulls in the aggregate contains the request transitively.
	if !ep.ContainsKind(model.KindReportRequest) {
		for _, t := range ep.Tasks() {
			if t.Kind == model.KindInstrument || t.Kind == model.KindReport {
				t.Disabled = true
				g.logf("coverage inactive, disabled %s", t.Path())
			}
		}
		return nil
	}

	for _, t := range ep.Tasks() {
		if !t.Kind.IsTestLike() {
			continue
		}
		cfg, err := ConfigOf(t.Project())
		if errors.Is(err, ErrConfigNotFound) {
			// Expected for sibling projects that never applied the
			// plugin. Contained to this task; the rest of the plan is
			// still processed.
			g.logf("no coverage configuration for %s, leaving %s untouched", t.Project().Path(), t.Path())
			continue
		}
		if err != nil {
			return err
		}
		FixClasspath(t, cfg)
		t.SetProperty(DatafileProperty, cfg.DatafilePath)
	}
	return nil
}

func (g *gate) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Printf("coverage: "+format, args...)
	}
}

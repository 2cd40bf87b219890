package coverage

import "github.com/msageha/covergraph/internal/model"

// engine installs the graph augmentation rules for one applying
// project. The matching rule is a pure function of the task, applied
// identically to tasks that already exist and to tasks created later
// through the registry's creation listener, so the resulting edges are
// independent of task creation order.
type engine struct {
	applying      *model.Project
	instrument    *model.Task
	report        *model.Task
	reportRequest *model.Task
	runAll        *model.Task
}

// installRules applies the matching rule to every existing task of
// every scoped project and registers a creation listener so the same
// rule covers tasks declared afterwards.
func (e *engine) installRules(reg Registry, scope []*model.Project) {
	e.runAll.RunsAfter(e.reportRequest)

	for _, p := range scope {
		for _, t := range p.Tasks() {
			e.applyRule(t)
		}
		reg.OnTaskCreated(p, e.applyRule)
	}
}

// applyRule adds the conditional edges for a single task. Edge
// insertion is idempotent, so a task seen both by the eager scan and by
// the listener ends up with the same edges as one seen once.
func (e *engine) applyRule(t *model.Task) {
	if t.Kind.IsTestLike() && t.Project() == e.applying {
		t.RunsAfter(e.instrument)
		t.FinalizedBy(e.report)
		e.runAll.RunsAfter(t)
	}

	// Every conventionally named primary test task in scope feeds the
	// aggregate, whichever project owns it.
	if t.Name == PrimaryTestTaskName {
		e.runAll.RunsAfter(t)
	}

	if t.Name == CompiledOutputTaskName && t.Project() == e.applying {
		e.instrument.RunsAfter(t)
	}
}

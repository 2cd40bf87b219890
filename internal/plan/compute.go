// Package plan computes the finalized execution plan for a build
// invocation: requested task names are resolved against the base
// project's subtree, expanded over dependency and finalizer edges,
// topologically ordered, and handed to the plan-ready listeners.
package plan

import (
	"fmt"
	"sort"

	"github.com/msageha/covergraph/internal/model"
	"github.com/msageha/covergraph/internal/registry"
)

// Compute builds the execution plan for the requested task names and
// finalizes it, firing the build's plan-ready listeners exactly once.
// Unknown task names and dependency cycles are structural errors.
func Compute(b *registry.Build, base *model.Project, requested []string) (*model.ExecutionPlan, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("no tasks requested")
	}

	var roots []*model.Task
	for _, name := range requested {
		t, err := resolveTask(base, name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, t)
	}

	included := closure(roots)
	ordered, err := order(included)
	if err != nil {
		return nil, err
	}

	ep := model.NewExecutionPlan(ordered)
	if err := b.NotifyPlanReady(ep); err != nil {
		return nil, fmt.Errorf("finalize plan: %w", err)
	}
	return ep, nil
}

// resolveTask finds a task by exact name, searching the base project
// first and then its descendants depth-first.
func resolveTask(base *model.Project, name string) (*model.Task, error) {
	var found *model.Task
	base.Walk(func(p *model.Project) {
		if found != nil {
			return
		}
		if t, ok := p.Task(name); ok {
			found = t
		}
	})
	if found == nil {
		return nil, fmt.Errorf("task %q not found in project %s or its subprojects", name, base.Path())
	}
	return found, nil
}

// closure expands the requested tasks over runsAfter edges, then pulls
// in finalizers of every included task (and their dependencies) until
// the set is stable.
func closure(roots []*model.Task) map[*model.Task]bool {
	included := make(map[*model.Task]bool)

	var visit func(t *model.Task)
	visit = func(t *model.Task) {
		if included[t] {
			return
		}
		included[t] = true
		for _, dep := range t.Dependencies() {
			visit(dep)
		}
	}
	for _, t := range roots {
		visit(t)
	}

	for {
		grew := false
		for t := range included {
			for _, f := range t.Finalizers() {
				if !included[f] {
					visit(f)
					grew = true
				}
			}
		}
		if !grew {
			return included
		}
	}
}

// order runs Kahn's algorithm over the included set. Ordering edges are
// dependency→task for runsAfter and task→finalizer for finalizedBy (a
// finalizer runs after the task it finalizes, even on failure). Ready
// tasks are drained in task-path order so the plan is deterministic.
func order(included map[*model.Task]bool) ([]*model.Task, error) {
	indeg := make(map[*model.Task]int, len(included))
	forward := make(map[*model.Task][]*model.Task, len(included))
	for t := range included {
		indeg[t] = 0
	}

	addEdge := func(before, after *model.Task) {
		forward[before] = append(forward[before], after)
		indeg[after]++
	}
	for t := range included {
		for _, dep := range t.Dependencies() {
			if included[dep] {
				addEdge(dep, t)
			}
		}
		for _, f := range t.Finalizers() {
			if included[f] {
				addEdge(t, f)
			}
		}
	}

	ready := make([]*model.Task, 0, len(included))
	for t, d := range indeg {
		if d == 0 {
			ready = append(ready, t)
		}
	}

	var sorted []*model.Task
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Path() < ready[j].Path() })
		t := ready[0]
		ready = ready[1:]
		sorted = append(sorted, t)

		for _, next := range forward[t] {
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(sorted) != len(included) {
		var stuck []string
		for t, d := range indeg {
			if d > 0 {
				stuck = append(stuck, t.Path())
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("circular dependency among tasks: %v", stuck)
	}
	return sorted, nil
}

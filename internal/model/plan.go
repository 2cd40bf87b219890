package model

// ExecutionPlan is the finalized, de-duplicated, ordered set of tasks
// the runner will invoke for the current build. It is immutable once
// constructed.
type ExecutionPlan struct {
	tasks []*Task
	index map[*Task]int
}

func NewExecutionPlan(ordered []*Task) *ExecutionPlan {
	ep := &ExecutionPlan{
		tasks: make([]*Task, 0, len(ordered)),
		index: make(map[*Task]int, len(ordered)),
	}
	for _, t := range ordered {
		if _, seen := ep.index[t]; seen {
			continue
		}
		ep.index[t] = len(ep.tasks)
		ep.tasks = append(ep.tasks, t)
	}
	return ep
}

// Tasks returns the plan in execution order.
func (ep *ExecutionPlan) Tasks() []*Task {
	out := make([]*Task, len(ep.tasks))
	copy(out, ep.tasks)
	return out
}

func (ep *ExecutionPlan) Len() int {
	return len(ep.tasks)
}

func (ep *ExecutionPlan) Contains(t *Task) bool {
	_, ok := ep.index[t]
	return ok
}

// ContainsKind reports whether any task of the given kind is in the plan.
func (ep *ExecutionPlan) ContainsKind(k TaskKind) bool {
	for _, t := range ep.tasks {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// TasksOfKind returns the plan tasks of the given kind, in plan order.
func (ep *ExecutionPlan) TasksOfKind(k TaskKind) []*Task {
	var out []*Task
	for _, t := range ep.tasks {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

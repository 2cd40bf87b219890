package model

// Task is a named unit of build work. Edge sets are append-only: adding
// an edge that already exists is a no-op, never an error.
type Task struct {
	Name string
	Kind TaskKind

	project *Project

	runsAfter   []*Task
	finalizedBy []*Task

	// Classpath is the runtime classpath, mutated by the coverage gate
	// for instrumented test runs.
	Classpath []string

	// Properties are runtime string properties exported to the task's
	// process environment.
	Properties map[string]string

	// Command is the argv executed by the runner. Empty means the task
	// is an empty-bodied coordination task.
	Command []string

	// Disabled tasks stay in the plan but execute as no-ops.
	Disabled bool
}

func NewTask(name string, kind TaskKind) *Task {
	return &Task{
		Name:       name,
		Kind:       kind,
		Properties: make(map[string]string),
	}
}

// Project returns the owning project. A task belongs to exactly one
// project for its whole lifetime.
func (t *Task) Project() *Project {
	return t.project
}

// RunsAfter adds a must-complete-before edge. Duplicate insertion is
// absorbed.
func (t *Task) RunsAfter(dep *Task) {
	if dep == nil || dep == t || t.runsAfterContains(dep) {
		return
	}
	t.runsAfter = append(t.runsAfter, dep)
}

// FinalizedBy adds a runs-after-this-even-on-failure edge. Duplicate
// insertion is absorbed.
func (t *Task) FinalizedBy(f *Task) {
	if f == nil || f == t {
		return
	}
	for _, existing := range t.finalizedBy {
		if existing == f {
			return
		}
	}
	t.finalizedBy = append(t.finalizedBy, f)
}

func (t *Task) runsAfterContains(dep *Task) bool {
	for _, existing := range t.runsAfter {
		if existing == dep {
			return true
		}
	}
	return false
}

// Dependencies returns the runsAfter edge set in insertion order.
func (t *Task) Dependencies() []*Task {
	out := make([]*Task, len(t.runsAfter))
	copy(out, t.runsAfter)
	return out
}

// Finalizers returns the finalizedBy edge set in insertion order.
func (t *Task) Finalizers() []*Task {
	out := make([]*Task, len(t.finalizedBy))
	copy(out, t.finalizedBy)
	return out
}

func (t *Task) SetProperty(key, value string) {
	t.Properties[key] = value
}

// Path returns the project-qualified task path, e.g. ":child:test".
func (t *Task) Path() string {
	if t.project == nil {
		return ":" + t.Name
	}
	p := t.project.Path()
	if p == ":" {
		return ":" + t.Name
	}
	return p + ":" + t.Name
}

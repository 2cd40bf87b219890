// Package registry implements the host side of the task model: task
// creation, creation listeners, plan-ready notification, and the
// build-wide one-shot flags plugins use for singleton registration.
package registry

import (
	"fmt"
	"sync"

	"github.com/msageha/covergraph/internal/model"
)

// Build is the registry for one build invocation. It lives for the
// configuration and execution of a single build; watch-mode rebuilds
// construct a fresh Build, which resets the one-shot flags.
type Build struct {
	root *model.Project

	mu            sync.Mutex
	listeners     map[*model.Project][]func(*model.Task)
	planListeners []func(*model.ExecutionPlan) error
	planFired     bool
	flags         map[string]bool
}

func NewBuild(root *model.Project) *Build {
	return &Build{
		root:      root,
		listeners: make(map[*model.Project][]func(*model.Task)),
		flags:     make(map[string]bool),
	}
}

func (b *Build) Root() *model.Project {
	return b.root
}

// CreateTask creates a task of the given kind under the given project
// and notifies that project's creation listeners. Duplicate names
// within a project are a structural error.
func (b *Build) CreateTask(p *model.Project, name string, kind model.TaskKind) (*model.Task, error) {
	if !model.IsValidKind(kind) {
		return nil, fmt.Errorf("create task %s under %s: unknown kind %q", name, p.Path(), kind)
	}
	t := model.NewTask(name, kind)
	if err := p.AddTask(t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	b.mu.Lock()
	fns := make([]func(*model.Task), len(b.listeners[p]))
	copy(fns, b.listeners[p])
	b.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
	return t, nil
}

// LookupTask finds a task by project and name.
func (b *Build) LookupTask(p *model.Project, name string) (*model.Task, bool) {
	return p.Task(name)
}

// OnTaskCreated registers a listener fired for every task created under
// p after this call. Tasks that already exist are not replayed; callers
// that need them scan p.Tasks() themselves.
func (b *Build) OnTaskCreated(p *model.Project, fn func(*model.Task)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[p] = append(b.listeners[p], fn)
}

// OnPlanReady registers a listener fired once when the execution plan
// is finalized. Registering after the plan has fired is a structural
// error: the listener could never run.
func (b *Build) OnPlanReady(fn func(*model.ExecutionPlan) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.planFired {
		return fmt.Errorf("execution plan already finalized")
	}
	b.planListeners = append(b.planListeners, fn)
	return nil
}

// NotifyPlanReady fires the plan-ready listeners in registration order.
// It fires at most once per build; a second call is a structural error.
func (b *Build) NotifyPlanReady(ep *model.ExecutionPlan) error {
	b.mu.Lock()
	if b.planFired {
		b.mu.Unlock()
		return fmt.Errorf("execution plan already finalized")
	}
	b.planFired = true
	fns := make([]func(*model.ExecutionPlan) error, len(b.planListeners))
	copy(fns, b.planListeners)
	b.mu.Unlock()

	for _, fn := range fns {
		if err := fn(ep); err != nil {
			return err
		}
	}
	return nil
}

// Once performs a check-and-set of a named build-wide flag. It returns
// true for the first caller of a given name and false for every later
// one, for the lifetime of this build invocation.
func (b *Build) Once(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flags[name] {
		return false
	}
	b.flags[name] = true
	return true
}

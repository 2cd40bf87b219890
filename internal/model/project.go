// Package model defines the build tree, task, plan, and configuration
// structures shared by the covergraph packages.
package model

import (
	"fmt"
	"path/filepath"
)

// Project is a node in the build tree. It owns its tasks and its child
// projects; the parent pointer is a back-reference only.
type Project struct {
	Name string
	Dir  string

	parent    *Project
	children  []*Project
	tasks     map[string]*Task
	taskOrder []*Task

	extensions map[string]any
}

func NewProject(name, dir string) *Project {
	return &Project{
		Name:       name,
		Dir:        filepath.Clean(dir),
		tasks:      make(map[string]*Task),
		extensions: make(map[string]any),
	}
}

func (p *Project) Parent() *Project {
	return p.parent
}

func (p *Project) Children() []*Project {
	return p.children
}

// AddChild attaches a child project and sets its parent back-reference.
func (p *Project) AddChild(c *Project) {
	c.parent = p
	p.children = append(p.children, c)
}

// Path returns the colon-separated path from the root, ":" for the root
// project itself.
func (p *Project) Path() string {
	if p.parent == nil {
		return ":"
	}
	parent := p.parent.Path()
	if parent == ":" {
		return ":" + p.Name
	}
	return parent + ":" + p.Name
}

// Walk visits p and every descendant in depth-first declaration order.
func (p *Project) Walk(fn func(*Project)) {
	fn(p)
	for _, c := range p.children {
		c.Walk(fn)
	}
}

// ByPath finds a project in p's subtree by its colon-separated path.
func (p *Project) ByPath(path string) (*Project, bool) {
	var found *Project
	p.Walk(func(candidate *Project) {
		if found == nil && candidate.Path() == path {
			found = candidate
		}
	})
	return found, found != nil
}

// Task looks up an owned task by name.
func (p *Project) Task(name string) (*Task, bool) {
	t, ok := p.tasks[name]
	return t, ok
}

// Tasks returns the owned tasks in creation order.
func (p *Project) Tasks() []*Task {
	out := make([]*Task, len(p.taskOrder))
	copy(out, p.taskOrder)
	return out
}

// AddTask attaches a task to this project. A task name must be unique
// within its project.
func (p *Project) AddTask(t *Task) error {
	if _, exists := p.tasks[t.Name]; exists {
		return fmt.Errorf("project %s already has a task named %q", p.Path(), t.Name)
	}
	t.project = p
	p.tasks[t.Name] = t
	p.taskOrder = append(p.taskOrder, t)
	return nil
}

// SetExtension attaches a named extension object (plugin configuration).
func (p *Project) SetExtension(name string, v any) {
	p.extensions[name] = v
}

// Extension returns a previously attached extension object.
func (p *Project) Extension(name string) (any, bool) {
	v, ok := p.extensions[name]
	return v, ok
}

// ClassesDir is the conventional compiled-output directory of a project.
func (p *Project) ClassesDir() string {
	return filepath.Join(p.Dir, "build", "classes")
}

package buildfile

import (
	"fmt"

	"github.com/msageha/covergraph/internal/model"
	"github.com/msageha/covergraph/internal/registry"
)

// MaterializeProjects builds the project tree (no tasks yet) and wraps
// it in a fresh Build registry. Task creation is a separate phase so
// plugins applied in between observe declared tasks through their
// creation listeners, the same way a host streams task creation.
func MaterializeProjects(bf *model.BuildFile, rootDir string) *registry.Build {
	root := materializeProject(&bf.Project, rootDir)
	return registry.NewBuild(root)
}

func materializeProject(def *model.ProjectDef, rootDir string) *model.Project {
	p := model.NewProject(def.Name, resolveDir(rootDir, def.Dir))
	for i := range def.Subprojects {
		p.AddChild(materializeProject(&def.Subprojects[i], rootDir))
	}
	return p
}

// MaterializeTasks creates every declared task through the registry and
// then wires the declared depends_on edges.
func MaterializeTasks(b *registry.Build, bf *model.BuildFile) error {
	return materializeTasks(b, b.Root(), &bf.Project)
}

func materializeTasks(b *registry.Build, p *model.Project, def *model.ProjectDef) error {
	for _, td := range def.Tasks {
		kind := td.Kind
		if kind == "" {
			kind = model.KindPlain
		}
		t, err := b.CreateTask(p, td.Name, kind)
		if err != nil {
			return fmt.Errorf("project %s: %w", p.Path(), err)
		}
		t.Command = append([]string(nil), td.Command...)
		t.Classpath = append([]string(nil), td.Classpath...)
	}

	// Dependency edges after all of this project's tasks exist, so
	// declaration order inside the file does not matter.
	for _, td := range def.Tasks {
		t, _ := p.Task(td.Name)
		for _, depName := range td.DependsOn {
			dep, ok := p.Task(depName)
			if !ok {
				return fmt.Errorf("project %s: task %s depends on missing task %q", p.Path(), td.Name, depName)
			}
			t.RunsAfter(dep)
		}
	}

	children := p.Children()
	for i := range def.Subprojects {
		if err := materializeTasks(b, children[i], &def.Subprojects[i]); err != nil {
			return err
		}
	}
	return nil
}

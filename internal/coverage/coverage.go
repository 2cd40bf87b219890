// Package coverage augments a build task graph so that a Cobertura-style
// instrumentation pass happens transparently around whichever test tasks
// the user runs. It installs graph edges during configuration, defers
// the "is coverage actually wanted" decision to a one-shot plan gate,
// and rewrites test classpaths only when the gate activates.
package coverage

import (
	"errors"
	"fmt"

	"github.com/msageha/covergraph/internal/model"
)

// Synthetic task names. These are a stable contract with users, who
// invoke the aggregate or report-request task by name.
const (
	InstrumentTaskName    = "instrument"
	ReportTaskName        = "generateCoverageReport"
	ReportRequestTaskName = "coberturaReport"
	RunAllTaskName        = "cobertura"
)

// Conventional host task names matched by the augmentation rules.
const (
	PrimaryTestTaskName    = "test"
	CompiledOutputTaskName = "classes"
)

// ExtensionName is the key under which the coverage config hangs off
// the applying project.
const ExtensionName = "coverage"

// DatafileProperty is the runtime property carrying the coverage data
// file location to instrumented test processes.
const DatafileProperty = "net.sourceforge.cobertura.datafile"

// gateFlag guards the build-wide plan gate registration: the gate hook
// fires globally, so only the first applying project registers it.
const gateFlag = "coverage.plan-gate"

var (
	// ErrAlreadyApplied is returned when the plugin is applied twice to
	// the same project. Re-application must fail fast rather than
	// silently duplicate the coordination tasks.
	ErrAlreadyApplied = errors.New("coverage already applied")

	// ErrNoBaseProject is returned when no project in the tree matches
	// the invocation directory.
	ErrNoBaseProject = errors.New("no base project found")

	// ErrConfigNotFound is returned by ConfigOf for projects without the
	// coverage extension. In a multi-project build this is an expected,
	// benign condition for sibling projects.
	ErrConfigNotFound = errors.New("coverage configuration not found")
)

// Registry is the host surface the plugin needs: task creation, task
// creation listeners, the plan-ready hook, and build-wide one-shot
// flags. *registry.Build satisfies it.
type Registry interface {
	Root() *model.Project
	CreateTask(p *model.Project, name string, kind model.TaskKind) (*model.Task, error)
	OnTaskCreated(p *model.Project, fn func(*model.Task))
	OnPlanReady(fn func(*model.ExecutionPlan) error) error
	Once(name string) bool
}

// ConfigOf returns the coverage config attached to p, or an error
// wrapping ErrConfigNotFound when p never applied the plugin.
func ConfigOf(p *model.Project) (*model.CoverageConfig, error) {
	v, ok := p.Extension(ExtensionName)
	if !ok {
		return nil, fmt.Errorf("project %s: %w", p.Path(), ErrConfigNotFound)
	}
	cfg, ok := v.(*model.CoverageConfig)
	if !ok {
		return nil, fmt.Errorf("project %s: extension %q holds %T, not a coverage config", p.Path(), ExtensionName, v)
	}
	return cfg, nil
}

package coverage

import (
	"fmt"
	"log"

	"github.com/msageha/covergraph/internal/model"
	"github.com/msageha/covergraph/internal/tool"
)

// Apply wires the coverage plugin into one applying project:
// attaches the config extension, creates the four coordination tasks,
// installs the augmentation rules over the invocation scope, and
// registers the build-wide plan gate (first applier only).
//
// Structural failures (re-application, task name collisions, no base
// project) abort configuration; no partial graph is usable afterwards.
func Apply(reg Registry, applying *model.Project, invocationDir string, cfg *model.CoverageConfig, logger *log.Logger) error {
	if _, ok := applying.Extension(ExtensionName); ok {
		return fmt.Errorf("project %s: %w", applying.Path(), ErrAlreadyApplied)
	}

	if cfg == nil {
		cfg = model.DefaultCoverageConfig(applying)
	}
	cfg.Normalize(applying)
	applying.SetExtension(ExtensionName, cfg)

	instrument, err := reg.CreateTask(applying, InstrumentTaskName, model.KindInstrument)
	if err != nil {
		return fmt.Errorf("apply coverage to %s: %w", applying.Path(), err)
	}
	report, err := reg.CreateTask(applying, ReportTaskName, model.KindReport)
	if err != nil {
		return fmt.Errorf("apply coverage to %s: %w", applying.Path(), err)
	}
	reportRequest, err := reg.CreateTask(applying, ReportRequestTaskName, model.KindReportRequest)
	if err != nil {
		return fmt.Errorf("apply coverage to %s: %w", applying.Path(), err)
	}
	runAll, err := reg.CreateTask(applying, RunAllTaskName, model.KindRunAll)
	if err != nil {
		return fmt.Errorf("apply coverage to %s: %w", applying.Path(), err)
	}

	instrument.Command = tool.InstrumentCommand(cfg, applying.ClassesDir())
	report.Command = tool.ReportCommand(cfg)

	base, err := FindBaseProject(reg.Root(), invocationDir)
	if err != nil {
		return fmt.Errorf("apply coverage to %s: %w", applying.Path(), err)
	}

	var scope []*model.Project
	base.Walk(func(p *model.Project) {
		scope = append(scope, p)
	})

	e := &engine{
		applying:      applying,
		instrument:    instrument,
		report:        report,
		reportRequest: reportRequest,
		runAll:        runAll,
	}
	e.installRules(reg, scope)

	// The plan-ready hook fires globally, not per project. Only the
	// first applying project in the build registers the gate.
	if reg.Once(gateFlag) {
		g := &gate{logger: logger}
		if err := reg.OnPlanReady(g.inspect); err != nil {
			return fmt.Errorf("apply coverage to %s: register plan gate: %w", applying.Path(), err)
		}
	}

	return nil
}

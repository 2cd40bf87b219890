// Package tool builds the argv for the external Cobertura-style
// instrumentation and report tools. The tools themselves are opaque:
// they take directories and a data file and the runner executes them
// like any other task command.
package tool

import (
	"os/exec"

	"github.com/msageha/covergraph/internal/model"
)

const (
	instrumentExecutable = "cobertura-instrument"
	reportExecutable     = "cobertura-report"
)

// InstrumentCommand returns the argv that instruments classesDir into
// the configured instrumented-output directory.
func InstrumentCommand(cfg *model.CoverageConfig, classesDir string) []string {
	args := []string{
		Executable(instrumentExecutable, cfg.ToolVersion),
		"--basedir", classesDir,
		"--destination", cfg.InstrumentedDir,
		"--datafile", cfg.DatafilePath,
	}
	args = append(args, cfg.Options...)
	for _, cp := range cfg.AuxClasspath {
		args = append(args, "--auxClasspath", cp)
	}
	return args
}

// ReportCommand returns the argv that renders the coverage data file
// into the configured report directory.
func ReportCommand(cfg *model.CoverageConfig) []string {
	return []string{
		Executable(reportExecutable, cfg.ToolVersion),
		"--datafile", cfg.DatafilePath,
		"--destination", cfg.ReportDir,
		"--format", "html",
	}
}

// Executable resolves a version-suffixed tool binary when one is on
// PATH, falling back to the unversioned name.
func Executable(base, version string) string {
	if version == "" {
		return base
	}
	versioned := base + "-" + version
	if _, err := exec.LookPath(versioned); err == nil {
		return versioned
	}
	return base
}

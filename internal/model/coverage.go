package model

import "path/filepath"

const DefaultToolVersion = "2.1.1"

// CoverageConfig is the coverage extension attached to an applying
// project. It is read-only after plugin application except for explicit
// user overrides made before the plan is finalized.
type CoverageConfig struct {
	ToolVersion string `yaml:"tool_version"`

	// DatafilePath is the coverage data file written during instrumented
	// test execution and consumed by the report tool.
	DatafilePath string `yaml:"datafile"`

	// InstrumentedDir receives the instrumented class tree and is
	// prepended to test task classpaths.
	InstrumentedDir string `yaml:"instrumented_dir"`

	ReportDir string `yaml:"report_dir"`

	// Options are passed through opaquely to the instrumentation tool.
	Options []string `yaml:"options,omitempty"`

	// AuxClasspath entries are appended to the instrumentation
	// invocation, not to test task classpaths.
	AuxClasspath []string `yaml:"aux_classpath,omitempty"`
}

// DefaultCoverageConfig fills conventional paths relative to the
// applying project's directory.
func DefaultCoverageConfig(p *Project) *CoverageConfig {
	return &CoverageConfig{
		ToolVersion:     DefaultToolVersion,
		DatafilePath:    filepath.Join(p.Dir, "build", "cobertura", "cobertura.ser"),
		InstrumentedDir: filepath.Join(p.Dir, "build", "instrumented_classes"),
		ReportDir:       filepath.Join(p.Dir, "build", "reports", "cobertura"),
	}
}

// Normalize fills any zero-valued field from the defaults for p.
func (c *CoverageConfig) Normalize(p *Project) {
	def := DefaultCoverageConfig(p)
	if c.ToolVersion == "" {
		c.ToolVersion = def.ToolVersion
	}
	if c.DatafilePath == "" {
		c.DatafilePath = def.DatafilePath
	}
	if c.InstrumentedDir == "" {
		c.InstrumentedDir = def.InstrumentedDir
	}
	if c.ReportDir == "" {
		c.ReportDir = def.ReportDir
	}
}

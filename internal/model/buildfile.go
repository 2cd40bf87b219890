package model

// BuildFile is the YAML build description (build.yaml) covergraph
// loads: a project tree with task declarations plus the coverage
// section naming the projects the coverage plugin applies to.
type BuildFile struct {
	SchemaVersion int           `yaml:"schema_version"`
	Project       ProjectDef    `yaml:"project"`
	Coverage      *CoverageDef  `yaml:"coverage,omitempty"`
	Runner        RunnerConfig  `yaml:"runner,omitempty"`
	Logging       LoggingConfig `yaml:"logging,omitempty"`
	Watcher       WatcherConfig `yaml:"watcher,omitempty"`
}

type ProjectDef struct {
	Name        string       `yaml:"name"`
	Dir         string       `yaml:"dir"`
	Tasks       []TaskDef    `yaml:"tasks,omitempty"`
	Subprojects []ProjectDef `yaml:"subprojects,omitempty"`
}

type TaskDef struct {
	Name      string   `yaml:"name"`
	Kind      TaskKind `yaml:"kind,omitempty"`
	Command   []string `yaml:"command,omitempty"`
	Classpath []string `yaml:"classpath,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// CoverageDef is the build-file surface of the coverage extension.
// ApplyTo names the projects (by tree path) that apply the plugin.
type CoverageDef struct {
	ApplyTo []string       `yaml:"apply_to"`
	Config  CoverageConfig `yaml:",inline"`
}

type RunnerConfig struct {
	Jobs int `yaml:"jobs,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

type WatcherConfig struct {
	DebounceSec float64 `yaml:"debounce_sec,omitempty"`
}

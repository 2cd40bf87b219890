package model

// RunStatus is the outcome of one task in an executed plan.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusOK       RunStatus = "ok"
	RunStatusFailed   RunStatus = "failed"
	RunStatusSkipped  RunStatus = "skipped"
	RunStatusDisabled RunStatus = "disabled"
)

var terminalRunStatuses = map[RunStatus]bool{
	RunStatusOK:       true,
	RunStatusFailed:   true,
	RunStatusSkipped:  true,
	RunStatusDisabled: true,
}

func IsRunTerminal(s RunStatus) bool {
	return terminalRunStatuses[s]
}

// Succeeded reports whether the status unblocks dependent tasks.
// Disabled tasks count as successful no-ops.
func (s RunStatus) Succeeded() bool {
	return s == RunStatusOK || s == RunStatusDisabled
}

// TaskResult is one entry in the run state file written after a build.
type TaskResult struct {
	Task       string    `yaml:"task"`
	Project    string    `yaml:"project"`
	Status     RunStatus `yaml:"status"`
	Error      *string   `yaml:"error,omitempty"`
	DurationMs int64     `yaml:"duration_ms"`
}

// RunState is the YAML state file recording the last run's outcome.
type RunState struct {
	SchemaVersion int          `yaml:"schema_version"`
	FileType      string       `yaml:"file_type"`
	Requested     []string     `yaml:"requested"`
	CoverageOn    bool         `yaml:"coverage_on"`
	Results       []TaskResult `yaml:"results"`
	StartedAt     string       `yaml:"started_at"`
	FinishedAt    string       `yaml:"finished_at"`
}

const RunStateFileType = "covergraph_run"

// Package runner executes a finalized plan: dependency waves run
// concurrently, finalizers run even after failure, and disabled
// coordination tasks pass through as no-ops.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msageha/covergraph/internal/coverage"
	"github.com/msageha/covergraph/internal/lock"
	"github.com/msageha/covergraph/internal/model"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

const defaultJobs = 4

type Runner struct {
	logger   *log.Logger
	logLevel LogLevel
	jobs     int
	locks    *lock.MutexMap
}

func New(logger *log.Logger, level LogLevel, jobs int) *Runner {
	if jobs <= 0 {
		jobs = defaultJobs
	}
	return &Runner{
		logger:   logger,
		logLevel: level,
		jobs:     jobs,
		locks:    lock.NewMutexMap(),
	}
}

// Run executes the plan and returns one result per plan task. Task
// command failures are recorded in the results, not returned as an
// error; the error return is for the runner itself (e.g. cancellation).
func (r *Runner) Run(ctx context.Context, ep *model.ExecutionPlan) ([]model.TaskResult, error) {
	tasks := ep.Tasks()
	status := make(map[*model.Task]model.RunStatus, len(tasks))
	for _, t := range tasks {
		status[t] = model.RunStatusPending
	}

	// finalizes maps a finalizer to the plan tasks it finalizes. A
	// finalizer waits for those tasks but runs even when they fail.
	finalizes := make(map[*model.Task][]*model.Task)
	for _, t := range tasks {
		for _, f := range t.Finalizers() {
			if ep.Contains(f) {
				finalizes[f] = append(finalizes[f], t)
			}
		}
	}

	results := make(map[*model.Task]model.TaskResult, len(tasks))

	for {
		if err := ctx.Err(); err != nil {
			return collectResults(tasks, results, status), err
		}

		wave := r.nextWave(ep, tasks, status, finalizes)
		if len(wave) == 0 {
			break
		}

		var skipped, runnable []*model.Task
		for _, t := range wave {
			if r.shouldSkip(ep, t, status, finalizes) {
				skipped = append(skipped, t)
			} else {
				runnable = append(runnable, t)
			}
		}
		for _, t := range skipped {
			status[t] = model.RunStatusSkipped
			results[t] = model.TaskResult{Task: t.Name, Project: t.Project().Path(), Status: model.RunStatusSkipped}
			r.log(LogLevelInfo, "skip %s (dependency failed)", t.Path())
		}

		waveResults := make([]model.TaskResult, len(runnable))
		g := &errgroup.Group{}
		g.SetLimit(r.jobs)
		for i, t := range runnable {
			i, t := i, t
			g.Go(func() error {
				waveResults[i] = r.runTask(ctx, t)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return collectResults(tasks, results, status), err
		}
		for i, t := range runnable {
			status[t] = waveResults[i].Status
			results[t] = waveResults[i]
		}
	}

	return collectResults(tasks, results, status), nil
}

// nextWave returns the pending tasks whose blockers (dependencies and
// finalized tasks present in the plan) are all terminal.
func (r *Runner) nextWave(ep *model.ExecutionPlan, tasks []*model.Task, status map[*model.Task]model.RunStatus, finalizes map[*model.Task][]*model.Task) []*model.Task {
	var wave []*model.Task
	for _, t := range tasks {
		if status[t] != model.RunStatusPending {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies() {
			if ep.Contains(dep) && !model.IsRunTerminal(status[dep]) {
				ready = false
				break
			}
		}
		for _, finalized := range finalizes[t] {
			if !model.IsRunTerminal(status[finalized]) {
				ready = false
				break
			}
		}
		if ready {
			wave = append(wave, t)
		}
	}
	return wave
}

// shouldSkip decides whether a ready task is skipped because a
// dependency failed. A finalizer of a task that actually ran is never
// skipped: that is the point of the finalizedBy edge.
func (r *Runner) shouldSkip(ep *model.ExecutionPlan, t *model.Task, status map[*model.Task]model.RunStatus, finalizes map[*model.Task][]*model.Task) bool {
	depFailed := false
	for _, dep := range t.Dependencies() {
		if !ep.Contains(dep) {
			continue
		}
		if !status[dep].Succeeded() {
			depFailed = true
			break
		}
	}
	if !depFailed {
		return false
	}
	for _, finalized := range finalizes[t] {
		s := status[finalized]
		if s == model.RunStatusOK || s == model.RunStatusFailed {
			return false
		}
	}
	return true
}

func (r *Runner) runTask(ctx context.Context, t *model.Task) model.TaskResult {
	res := model.TaskResult{Task: t.Name, Project: t.Project().Path()}

	if t.Disabled {
		res.Status = model.RunStatusDisabled
		r.log(LogLevelDebug, "noop %s (disabled)", t.Path())
		return res
	}
	if len(t.Command) == 0 {
		res.Status = model.RunStatusOK
		r.log(LogLevelDebug, "noop %s (no command)", t.Path())
		return res
	}

	// Instrumented test tasks share the coverage datafile; serialize
	// writers on its path.
	if datafile, ok := t.Properties[coverage.DatafileProperty]; ok && t.Kind.IsTestLike() {
		r.locks.Lock(datafile)
		defer r.locks.Unlock(datafile)
	}

	start := time.Now()
	r.log(LogLevelInfo, "run %s: %s", t.Path(), strings.Join(t.Command, " "))

	cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...)
	cmd.Dir = t.Project().Dir
	cmd.Env = taskEnv(t)
	out, err := cmd.CombinedOutput()

	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		msg := fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(out)))
		res.Status = model.RunStatusFailed
		res.Error = &msg
		r.log(LogLevelError, "fail %s: %s", t.Path(), msg)
		return res
	}

	res.Status = model.RunStatusOK
	r.log(LogLevelDebug, "ok %s (%dms)", t.Path(), res.DurationMs)
	return res
}

// taskEnv exports the task classpath and runtime properties to the
// child process.
func taskEnv(t *model.Task) []string {
	env := os.Environ()
	if len(t.Classpath) > 0 {
		env = append(env, "CLASSPATH="+strings.Join(t.Classpath, string(os.PathListSeparator)))
	}
	for k, v := range t.Properties {
		env = append(env, "PROP_"+envKey(k)+"="+v)
	}
	return env
}

func envKey(property string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, property))
}

func collectResults(tasks []*model.Task, results map[*model.Task]model.TaskResult, status map[*model.Task]model.RunStatus) []model.TaskResult {
	out := make([]model.TaskResult, 0, len(tasks))
	for _, t := range tasks {
		if res, ok := results[t]; ok {
			out = append(out, res)
			continue
		}
		out = append(out, model.TaskResult{Task: t.Name, Project: t.Project().Path(), Status: status[t]})
	}
	return out
}

func (r *Runner) log(level LogLevel, format string, args ...any) {
	if level < r.logLevel || r.logger == nil {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	r.logger.Printf("%s %s runner: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}

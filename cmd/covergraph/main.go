package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/msageha/covergraph/internal/buildfile"
	"github.com/msageha/covergraph/internal/coverage"
	"github.com/msageha/covergraph/internal/lock"
	"github.com/msageha/covergraph/internal/model"
	"github.com/msageha/covergraph/internal/plan"
	"github.com/msageha/covergraph/internal/registry"
	"github.com/msageha/covergraph/internal/runner"
)

const version = "1.0.0"

const stateFileName = "covergraph-state.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runRun(os.Args[2:])
	case "graph":
		runGraph(os.Args[2:])
	case "version":
		fmt.Printf("covergraph %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type runOptions struct {
	file       string
	projectDir string
	watch      bool
	jobs       int
	tasks      []string
}

func parseRunOptions(args []string, usage string) runOptions {
	opts := runOptions{file: "build.yaml"}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--file":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--file requires a value")
				os.Exit(1)
			}
			i++
			opts.file = args[i]
		case "--project-dir":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--project-dir requires a value")
				os.Exit(1)
			}
			i++
			opts.projectDir = args[i]
		case "--jobs":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--jobs requires a value")
				os.Exit(1)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "--jobs: invalid value %q\n", args[i])
				os.Exit(1)
			}
			opts.jobs = n
		case "--watch":
			opts.watch = true
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
				fmt.Fprintln(os.Stderr, usage)
				os.Exit(1)
			}
			opts.tasks = append(opts.tasks, args[i])
		}
	}

	if len(opts.tasks) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if opts.projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "getwd: %v\n", err)
			os.Exit(1)
		}
		opts.projectDir = cwd
	}
	return opts
}

// configure loads the build file, materializes the project tree,
// applies the coverage plugin to the configured projects, and streams
// the declared tasks through the registry. One call per build
// invocation.
func configure(bf *model.BuildFile, rootDir, projectDir string, logger *log.Logger) (*registry.Build, error) {
	b := buildfile.MaterializeProjects(bf, rootDir)

	// Plugins apply before the declared tasks exist, so the
	// augmentation rules cover them through creation listeners the same
	// way they cover pre-existing tasks through the eager scan.
	if bf.Coverage != nil {
		for _, path := range bf.Coverage.ApplyTo {
			p, ok := b.Root().ByPath(path)
			if !ok {
				return nil, fmt.Errorf("coverage apply_to: no project at path %q", path)
			}
			cfg := bf.Coverage.Config
			if err := coverage.Apply(b, p, projectDir, &cfg, logger); err != nil {
				return nil, err
			}
		}
	}

	if err := buildfile.MaterializeTasks(b, bf); err != nil {
		return nil, err
	}
	return b, nil
}

func runRun(args []string) {
	usage := "usage: covergraph run [--file build.yaml] [--project-dir <dir>] [--jobs N] [--watch] <task>..."
	opts := parseRunOptions(args, usage)

	bf, err := buildfile.Load(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	absFile, err := filepath.Abs(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	rootDir := filepath.Dir(absFile)
	projectDir, err := filepath.Abs(opts.projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", 0)

	fileLock := lock.NewFileLock(filepath.Join(rootDir, ".covergraph.lock"))
	if err := fileLock.TryLock(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer fileLock.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Each iteration reloads the build file so watch mode picks up
	// build configuration changes too, not just source changes.
	iterate := func() error {
		current, err := buildfile.Load(absFile)
		if err != nil {
			return err
		}
		return runOnce(ctx, current, rootDir, projectDir, opts.tasks, opts.jobs, logger)
	}

	if err := iterate(); err != nil {
		if !opts.watch {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		logger.Printf("build failed: %v", err)
	}

	if opts.watch {
		debounce := time.Duration(bf.Watcher.DebounceSec * float64(time.Second))
		var dirs []string
		buildfile.MaterializeProjects(bf, rootDir).Root().Walk(func(p *model.Project) {
			dirs = append(dirs, p.Dir)
		})
		if err := runner.Watch(ctx, dirs, debounce, logger, iterate); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

func runOnce(ctx context.Context, bf *model.BuildFile, rootDir, projectDir string, tasks []string, jobs int, logger *log.Logger) error {
	if jobs == 0 {
		jobs = bf.Runner.Jobs
	}
	level := runner.ParseLogLevel(bf.Logging.Level)

	b, err := configure(bf, rootDir, projectDir, logger)
	if err != nil {
		return err
	}

	base, err := coverage.FindBaseProject(b.Root(), projectDir)
	if err != nil {
		return err
	}

	ep, err := plan.Compute(b, base, tasks)
	if err != nil {
		return err
	}

	startedAt := time.Now().UTC().Format(time.RFC3339)
	r := runner.New(logger, level, jobs)
	results, runErr := r.Run(ctx, ep)

	state := &model.RunState{
		Requested:  tasks,
		CoverageOn: ep.ContainsKind(model.KindReportRequest),
		Results:    results,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := buildfile.WriteState(filepath.Join(rootDir, stateFileName), state); err != nil {
		logger.Printf("write run state: %v", err)
	}

	if runErr != nil {
		return runErr
	}
	for _, res := range results {
		if res.Status == model.RunStatusFailed {
			return fmt.Errorf("task %s:%s failed", res.Project, res.Task)
		}
	}
	return nil
}

func runGraph(args []string) {
	usage := "usage: covergraph graph [--file build.yaml] [--project-dir <dir>] <task>..."
	opts := parseRunOptions(args, usage)

	bf, err := buildfile.Load(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	absFile, err := filepath.Abs(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	rootDir := filepath.Dir(absFile)
	projectDir, err := filepath.Abs(opts.projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", 0)
	b, err := configure(bf, rootDir, projectDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	base, err := coverage.FindBaseProject(b.Root(), projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	ep, err := plan.Compute(b, base, opts.tasks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	for i, t := range ep.Tasks() {
		var notes []string
		for _, dep := range t.Dependencies() {
			if ep.Contains(dep) {
				notes = append(notes, "after "+dep.Path())
			}
		}
		for _, f := range t.Finalizers() {
			if ep.Contains(f) {
				notes = append(notes, "finalizedBy "+f.Path())
			}
		}
		if t.Disabled {
			notes = append(notes, "disabled")
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Printf("%3d. %s%s\n", i+1, t.Path(), suffix)
	}
}

func printUsage() {
	fmt.Println(`covergraph - build runner with transparent coverage instrumentation

Usage:
  covergraph run [--file build.yaml] [--project-dir <dir>] [--jobs N] [--watch] <task>...
  covergraph graph [--file build.yaml] [--project-dir <dir>] <task>...
  covergraph version
  covergraph help

Coverage tasks (on projects listed under coverage.apply_to):
  cobertura              run every primary test task in scope with coverage
  coberturaReport        request coverage for the tests you name yourself
  instrument             instrument compiled classes (internal)
  generateCoverageReport render the coverage report (internal)`)
}

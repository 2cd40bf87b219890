package model

import "testing"

func buildTree() (*Project, *Project, *Project) {
	root := NewProject("root", "/work/root")
	child := NewProject("child", "/work/root/child")
	grand := NewProject("grand", "/work/root/child/grand")
	root.AddChild(child)
	child.AddChild(grand)
	return root, child, grand
}

func TestProjectPath(t *testing.T) {
	root, child, grand := buildTree()

	if got := root.Path(); got != ":" {
		t.Errorf("root path: got %q, want %q", got, ":")
	}
	if got := child.Path(); got != ":child" {
		t.Errorf("child path: got %q, want %q", got, ":child")
	}
	if got := grand.Path(); got != ":child:grand" {
		t.Errorf("grand path: got %q, want %q", got, ":child:grand")
	}
}

func TestProjectWalkOrder(t *testing.T) {
	root, _, _ := buildTree()

	var visited []string
	root.Walk(func(p *Project) {
		visited = append(visited, p.Name)
	})

	want := []string{"root", "child", "grand"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visit[%d]: got %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestProjectByPath(t *testing.T) {
	root, _, grand := buildTree()

	found, ok := root.ByPath(":child:grand")
	if !ok || found != grand {
		t.Fatalf("ByPath(:child:grand): got %v, ok=%v", found, ok)
	}
	if _, ok := root.ByPath(":nope"); ok {
		t.Error("ByPath(:nope): expected no match")
	}
}

func TestAddTaskRejectsDuplicateName(t *testing.T) {
	p := NewProject("p", "/work/p")
	if err := p.AddTask(NewTask("test", KindTest)); err != nil {
		t.Fatalf("first AddTask: %v", err)
	}
	if err := p.AddTask(NewTask("test", KindPlain)); err == nil {
		t.Fatal("second AddTask with same name: expected error")
	}
}

func TestTaskOwningProject(t *testing.T) {
	p := NewProject("p", "/work/p")
	task := NewTask("test", KindTest)
	if err := p.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.Project() != p {
		t.Error("task does not reference its owning project")
	}
	if got := task.Path(); got != ":test" {
		t.Errorf("task path: got %q", got)
	}
}

func TestRunsAfterIdempotent(t *testing.T) {
	a := NewTask("a", KindPlain)
	b := NewTask("b", KindPlain)

	a.RunsAfter(b)
	a.RunsAfter(b)
	a.RunsAfter(b)

	if got := len(a.Dependencies()); got != 1 {
		t.Errorf("dependencies: got %d, want 1", got)
	}
}

func TestRunsAfterIgnoresSelfAndNil(t *testing.T) {
	a := NewTask("a", KindPlain)
	a.RunsAfter(a)
	a.RunsAfter(nil)
	if got := len(a.Dependencies()); got != 0 {
		t.Errorf("dependencies: got %d, want 0", got)
	}
}

func TestFinalizedByIdempotent(t *testing.T) {
	a := NewTask("a", KindTest)
	f := NewTask("f", KindReport)

	a.FinalizedBy(f)
	a.FinalizedBy(f)

	if got := len(a.Finalizers()); got != 1 {
		t.Errorf("finalizers: got %d, want 1", got)
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindTest.IsTestLike() {
		t.Error("KindTest should be test-like")
	}
	if KindPlain.IsTestLike() {
		t.Error("KindPlain should not be test-like")
	}
	for _, k := range []TaskKind{KindInstrument, KindReport, KindReportRequest, KindRunAll} {
		if !k.IsCoordination() {
			t.Errorf("%s should be a coordination kind", k)
		}
		if k.IsTestLike() {
			t.Errorf("%s should not be test-like", k)
		}
	}
	if KindTest.IsCoordination() {
		t.Error("KindTest should not be a coordination kind")
	}
	if IsValidKind("bogus") {
		t.Error("bogus kind should be invalid")
	}
}

func TestExecutionPlanDeduplicates(t *testing.T) {
	a := NewTask("a", KindPlain)
	b := NewTask("b", KindPlain)

	ep := NewExecutionPlan([]*Task{a, b, a})
	if ep.Len() != 2 {
		t.Fatalf("plan length: got %d, want 2", ep.Len())
	}
	if !ep.Contains(a) || !ep.Contains(b) {
		t.Error("plan should contain both tasks")
	}
	if ep.Tasks()[0] != a {
		t.Error("plan order should keep first occurrence")
	}
}

func TestExecutionPlanKindQueries(t *testing.T) {
	test := NewTask("test", KindTest)
	req := NewTask("coberturaReport", KindReportRequest)

	ep := NewExecutionPlan([]*Task{test, req})
	if !ep.ContainsKind(KindReportRequest) {
		t.Error("expected report-request kind in plan")
	}
	if ep.ContainsKind(KindInstrument) {
		t.Error("did not expect instrument kind in plan")
	}
	if got := len(ep.TasksOfKind(KindTest)); got != 1 {
		t.Errorf("test-like tasks: got %d, want 1", got)
	}
}

func TestRunStatusHelpers(t *testing.T) {
	if !IsRunTerminal(RunStatusFailed) || IsRunTerminal(RunStatusPending) {
		t.Error("terminal classification wrong")
	}
	if !RunStatusOK.Succeeded() || !RunStatusDisabled.Succeeded() {
		t.Error("ok and disabled should count as success")
	}
	if RunStatusFailed.Succeeded() || RunStatusSkipped.Succeeded() {
		t.Error("failed and skipped should not count as success")
	}
}

func TestCoverageConfigNormalize(t *testing.T) {
	p := NewProject("app", "/work/app")

	cfg := &CoverageConfig{ToolVersion: "2.0.3"}
	cfg.Normalize(p)

	if cfg.ToolVersion != "2.0.3" {
		t.Errorf("tool version overridden: got %q", cfg.ToolVersion)
	}
	def := DefaultCoverageConfig(p)
	if cfg.DatafilePath != def.DatafilePath {
		t.Errorf("datafile: got %q, want default %q", cfg.DatafilePath, def.DatafilePath)
	}
	if cfg.InstrumentedDir != def.InstrumentedDir {
		t.Errorf("instrumented dir: got %q, want default %q", cfg.InstrumentedDir, def.InstrumentedDir)
	}
}

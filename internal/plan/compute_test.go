package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/covergraph/internal/model"
	"github.com/msageha/covergraph/internal/registry"
)

func newFixture(t *testing.T) (*registry.Build, *model.Project) {
	t.Helper()
	root := model.NewProject("root", "/work/root")
	return registry.NewBuild(root), root
}

func mustTask(t *testing.T, b *registry.Build, p *model.Project, name string, kind model.TaskKind) *model.Task {
	t.Helper()
	task, err := b.CreateTask(p, name, kind)
	require.NoError(t, err)
	return task
}

func planPaths(ep *model.ExecutionPlan) []string {
	var out []string
	for _, t := range ep.Tasks() {
		out = append(out, t.Path())
	}
	return out
}

func TestComputeExpandsDependencies(t *testing.T) {
	b, root := newFixture(t)
	compile := mustTask(t, b, root, "compile", model.KindPlain)
	classes := mustTask(t, b, root, "classes", model.KindPlain)
	test := mustTask(t, b, root, "test", model.KindTest)
	classes.RunsAfter(compile)
	test.RunsAfter(classes)

	ep, err := Compute(b, root, []string{"test"})
	require.NoError(t, err)

	assert.Equal(t, []string{":compile", ":classes", ":test"}, planPaths(ep))
}

func TestComputeIncludesFinalizers(t *testing.T) {
	b, root := newFixture(t)
	test := mustTask(t, b, root, "test", model.KindTest)
	report := mustTask(t, b, root, "report", model.KindReport)
	setup := mustTask(t, b, root, "setup", model.KindPlain)
	test.FinalizedBy(report)
	report.RunsAfter(setup)

	ep, err := Compute(b, root, []string{"test"})
	require.NoError(t, err)

	// Finalizers join the plan with their own dependencies, and run
	// after the task they finalize.
	require.True(t, ep.Contains(report))
	require.True(t, ep.Contains(setup))

	pos := make(map[string]int)
	for i, task := range ep.Tasks() {
		pos[task.Name] = i
	}
	assert.Less(t, pos["test"], pos["report"])
	assert.Less(t, pos["setup"], pos["report"])
}

func TestComputeDeduplicatesRequests(t *testing.T) {
	b, root := newFixture(t)
	mustTask(t, b, root, "test", model.KindTest)

	ep, err := Compute(b, root, []string{"test", "test"})
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Len())
}

func TestComputeResolvesInSubprojects(t *testing.T) {
	b, root := newFixture(t)
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)
	childTest := mustTask(t, b, child, "integTest", model.KindTest)

	ep, err := Compute(b, root, []string{"integTest"})
	require.NoError(t, err)
	assert.True(t, ep.Contains(childTest))
}

func TestComputePrefersBaseProjectTask(t *testing.T) {
	b, root := newFixture(t)
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)
	rootTest := mustTask(t, b, root, "test", model.KindTest)
	mustTask(t, b, child, "test", model.KindTest)

	ep, err := Compute(b, root, []string{"test"})
	require.NoError(t, err)
	require.Equal(t, 1, ep.Len())
	assert.True(t, ep.Contains(rootTest))
}

func TestComputeScopedToBaseSubtree(t *testing.T) {
	b, root := newFixture(t)
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)
	mustTask(t, b, root, "rootOnly", model.KindPlain)
	childTest := mustTask(t, b, child, "test", model.KindTest)

	ep, err := Compute(b, child, []string{"test"})
	require.NoError(t, err)
	assert.True(t, ep.Contains(childTest))

	_, err = Compute(registry.NewBuild(root), child, []string{"rootOnly"})
	assert.Error(t, err, "tasks above the base project are out of scope")
}

func TestComputeUnknownTask(t *testing.T) {
	b, root := newFixture(t)
	mustTask(t, b, root, "test", model.KindTest)

	_, err := Compute(b, root, []string{"nope"})
	assert.Error(t, err)
}

func TestComputeNoTasksRequested(t *testing.T) {
	b, root := newFixture(t)

	_, err := Compute(b, root, nil)
	assert.Error(t, err)
}

func TestComputeRejectsCycles(t *testing.T) {
	b, root := newFixture(t)
	a := mustTask(t, b, root, "a", model.KindPlain)
	c := mustTask(t, b, root, "c", model.KindPlain)
	a.RunsAfter(c)
	c.RunsAfter(a)

	_, err := Compute(b, root, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestComputeDeterministicOrder(t *testing.T) {
	build := func() []string {
		b, root := newFixture(t)
		shared := mustTask(t, b, root, "shared", model.KindPlain)
		for _, name := range []string{"zeta", "alpha", "mid"} {
			task := mustTask(t, b, root, name, model.KindPlain)
			task.RunsAfter(shared)
		}
		agg := mustTask(t, b, root, "all", model.KindPlain)
		for _, name := range []string{"zeta", "alpha", "mid"} {
			dep, _ := root.Task(name)
			agg.RunsAfter(dep)
		}
		ep, err := Compute(b, root, []string{"all"})
		require.NoError(t, err)
		return planPaths(ep)
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
	assert.Equal(t, []string{":shared", ":alpha", ":mid", ":zeta", ":all"}, first)
}

func TestComputeFiresPlanListeners(t *testing.T) {
	b, root := newFixture(t)
	mustTask(t, b, root, "test", model.KindTest)

	fired := 0
	require.NoError(t, b.OnPlanReady(func(ep *model.ExecutionPlan) error {
		fired++
		assert.Equal(t, 1, ep.Len())
		return nil
	}))

	_, err := Compute(b, root, []string{"test"})
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// The plan is finalized once per build invocation.
	_, err = Compute(b, root, []string{"test"})
	assert.Error(t, err)
}

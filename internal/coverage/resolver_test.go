package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/covergraph/internal/model"
)

func TestFindBaseProjectRoot(t *testing.T) {
	root := model.NewProject("root", "/work/root")
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)

	base, err := FindBaseProject(root, "/work/root")
	require.NoError(t, err)
	assert.Same(t, root, base)
}

func TestFindBaseProjectReturnsInvokedChild(t *testing.T) {
	root := model.NewProject("root", "/work/root")
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)

	// Invoked from the child directory: the base is the child, not the
	// root, even when the applying project is the child itself.
	base, err := FindBaseProject(root, "/work/root/child")
	require.NoError(t, err)
	assert.Same(t, child, base)
}

func TestFindBaseProjectNormalizesDir(t *testing.T) {
	root := model.NewProject("root", "/work/root")
	child := model.NewProject("child", "/work/root/child")
	root.AddChild(child)

	base, err := FindBaseProject(root, "/work/root/./child/")
	require.NoError(t, err)
	assert.Same(t, child, base)
}

func TestFindBaseProjectNoMatch(t *testing.T) {
	root := model.NewProject("root", "/work/root")

	_, err := FindBaseProject(root, "/elsewhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBaseProject)
}

package coverage

import (
	"fmt"
	"path/filepath"

	"github.com/msageha/covergraph/internal/model"
)

// FindBaseProject returns the project whose directory equals the
// invocation directory. The applying project and the project the build
// was invoked from can differ in a multi-project tree; dependency
// fixing is scoped from the invocation root downward so sibling and
// descendant test tasks are included.
func FindBaseProject(root *model.Project, invocationDir string) (*model.Project, error) {
	want := filepath.Clean(invocationDir)
	var found *model.Project
	root.Walk(func(p *model.Project) {
		if found == nil && p.Dir == want {
			found = p
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w for invocation directory %s", ErrNoBaseProject, want)
	}
	return found, nil
}

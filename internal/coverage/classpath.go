package coverage

import (
	"path/filepath"
	"strings"

	"github.com/msageha/covergraph/internal/model"
)

// FixClasspath removes the owning project's raw compiled-output
// directory from the task's runtime classpath and prepends the
// instrumented-output directory. Archive entries are left untouched;
// only a directory entry matching the classes dir is dropped.
//
// Calling this twice on the same task is safe: the raw directory is
// already absent and the instrumented prefix is deduped, not doubled.
func FixClasspath(t *model.Task, cfg *model.CoverageConfig) {
	raw := filepath.Clean(t.Project().ClassesDir())
	instrumented := filepath.Clean(cfg.InstrumentedDir)

	out := make([]string, 0, len(t.Classpath)+1)
	out = append(out, instrumented)
	for _, entry := range t.Classpath {
		cleaned := filepath.Clean(entry)
		if cleaned == instrumented {
			continue
		}
		if cleaned == raw && isDirectoryEntry(cleaned) {
			continue
		}
		out = append(out, entry)
	}
	t.Classpath = out
}

// isDirectoryEntry distinguishes directory classpath entries from
// archives. Anything that is not a known archive extension is treated
// as a directory.
func isDirectoryEntry(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip", ".war":
		return false
	}
	return true
}

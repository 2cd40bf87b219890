// Package buildfile loads and validates build.yaml, materializes the
// project tree and its tasks through the task registry, and writes the
// run state file atomically.
package buildfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/msageha/covergraph/internal/model"
)

const SchemaVersion = 1

// Load reads and statically validates a build file. Any problem here is
// a configuration-time structural error.
func Load(path string) (*model.BuildFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build file: %w", err)
	}

	var bf model.BuildFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse build file %s: %w", path, err)
	}

	if bf.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("build file %s: unsupported schema_version %d (want %d)", path, bf.SchemaVersion, SchemaVersion)
	}
	if err := validateProject(&bf.Project); err != nil {
		return nil, fmt.Errorf("build file %s: %w", path, err)
	}
	if bf.Coverage != nil && len(bf.Coverage.ApplyTo) == 0 {
		return nil, fmt.Errorf("build file %s: coverage section present but apply_to is empty", path)
	}
	return &bf, nil
}

func validateProject(def *model.ProjectDef) error {
	if def.Name == "" {
		return fmt.Errorf("project with empty name")
	}
	if def.Dir == "" {
		return fmt.Errorf("project %s: dir is required", def.Name)
	}

	taskNames := make(map[string]bool, len(def.Tasks))
	for _, td := range def.Tasks {
		if td.Name == "" {
			return fmt.Errorf("project %s: task with empty name", def.Name)
		}
		if taskNames[td.Name] {
			return fmt.Errorf("project %s: duplicate task name %q", def.Name, td.Name)
		}
		taskNames[td.Name] = true

		if td.Kind != "" && !model.IsValidKind(td.Kind) {
			return fmt.Errorf("project %s: task %s: unknown kind %q", def.Name, td.Name, td.Kind)
		}
		if td.Kind.IsCoordination() {
			return fmt.Errorf("project %s: task %s: kind %q is reserved for the coverage plugin", def.Name, td.Name, td.Kind)
		}
	}
	for _, td := range def.Tasks {
		for _, dep := range td.DependsOn {
			if !taskNames[dep] {
				return fmt.Errorf("project %s: task %s depends on undeclared task %q", def.Name, td.Name, dep)
			}
		}
	}

	childNames := make(map[string]bool, len(def.Subprojects))
	for i := range def.Subprojects {
		child := &def.Subprojects[i]
		if childNames[child.Name] {
			return fmt.Errorf("project %s: duplicate subproject name %q", def.Name, child.Name)
		}
		childNames[child.Name] = true
		if err := validateProject(child); err != nil {
			return err
		}
	}
	return nil
}

// resolveDir anchors a project dir from the build file against the
// build root directory.
func resolveDir(rootDir, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(rootDir, dir)
}

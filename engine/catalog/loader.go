package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ItemSpec is one project entry as it appears in a catalog file, before
// combined text and embeddings are derived.
type ItemSpec struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Technology  string `yaml:"technology"`
}

type catalogFile struct {
	Projects []ItemSpec `yaml:"projects"`
}

// LoadFile reads project specs from a single YAML catalog file. Missing
// optional fields default to the empty string, never nil.
func LoadFile(path string) ([]ItemSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	for i, spec := range file.Projects {
		if strings.TrimSpace(spec.Title) == "" {
			return nil, fmt.Errorf("catalog: %s: project %d has no title", path, i)
		}
		if strings.TrimSpace(spec.Description) == "" {
			return nil, fmt.Errorf("catalog: %s: project %d (%s) has no description", path, i, spec.Title)
		}
	}
	return file.Projects, nil
}

// LoadGlob reads and concatenates every catalog file matching a doublestar
// pattern (e.g. "catalog/**/*.yaml"). Files load in sorted path order so the
// catalog order, and therefore tie-breaking, is deterministic across runs.
func LoadGlob(pattern string) ([]ItemSpec, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("catalog: glob %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("catalog: no files match %s", pattern)
	}
	sort.Strings(paths)

	var specs []ItemSpec
	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s...)
	}
	return specs, nil
}

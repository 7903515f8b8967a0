// Package roleprompt loads each bee's role-prompt document from disk. A role
// prompt is treated as an opaque templated text blob by every other
// component (spec.md §1 "role prompt documents ... opaque templated text
// blobs"); this package's only job is finding the right file and stripping
// an optional YAML front matter header before handing the body to the
// Injector.
package roleprompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// Metadata is a role prompt's optional front matter. It is parsed but not
// otherwise interpreted by beehive; authors use it as documentation.
type Metadata struct {
	Description string `yaml:"description"`
	Model       string `yaml:"model"`
}

// Store loads role prompts from a directory, one file per bee named
// "<bee>.md".
type Store struct {
	Dir string
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Prompt implements internal/supervisor.RolePrompts: it reads
// "<dir>/<bee>.md", strips a leading "---\n...\n---\n" YAML front matter
// block if present, and returns the remaining body verbatim.
func (s *Store) Prompt(bee beename.Name) (string, error) {
	if !beename.IsBee(bee) {
		return "", &beename.InvalidNameError{Name: bee, Why: "no role prompt exists for a non-bee sender"}
	}
	path := filepath.Join(s.Dir, string(bee)+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("roleprompt: read %s: %w", path, err)
	}
	_, body, err := splitFrontMatter(string(data))
	if err != nil {
		return "", fmt.Errorf("roleprompt: parse front matter in %s: %w", path, err)
	}
	return body, nil
}

// splitFrontMatter separates a leading "---\n...\n---\n" YAML block from the
// rest of raw. meta is the zero value when no front matter is present.
func splitFrontMatter(raw string) (meta Metadata, body string, err error) {
	const fence = "---"
	if !strings.HasPrefix(raw, fence) {
		return Metadata{}, raw, nil
	}
	rest := raw[len(fence):]
	end := strings.Index(rest, "\n"+fence)
	if end == -1 {
		return Metadata{}, raw, nil
	}
	header := strings.TrimPrefix(rest[:end], "\n")
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return Metadata{}, "", err
	}
	body = strings.TrimPrefix(rest[end+len("\n"+fence):], "\n")
	return meta, body, nil
}

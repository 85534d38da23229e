package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knownDependencies maps a manifest substring to the dependency name reported
// for it. "symfony/" is reported as the console component.
var knownDependencies = []struct {
	marker string
	name   string
}{
	{"laravel/framework", "laravel/framework"},
	{"guzzlehttp/guzzle", "guzzlehttp/guzzle"},
	{"symfony/", "symfony/console"},
}

// ListDependencies returns the well-known packages mentioned in the project's
// composer.json. A missing manifest yields an empty list.
func ListDependencies(projectPath string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, "composer.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read composer.json: %w", err)
	}

	content := string(data)
	deps := []string{}
	for _, known := range knownDependencies {
		if strings.Contains(content, known.marker) {
			deps = append(deps, known.name)
		}
	}
	return deps, nil
}

// Composer is the subset of composer.json phpack reads.
type Composer struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

// ReadComposer parses the composer.json under projectPath.
func ReadComposer(projectPath string) (*Composer, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, "composer.json"))
	if err != nil {
		return nil, err
	}
	var c Composer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse composer.json: %w", err)
	}
	return &c, nil
}

// Packages returns the sorted package names from require and require-dev,
// skipping the php platform requirement and extensions.
func (c *Composer) Packages() []string {
	seen := make(map[string]bool)
	for _, reqs := range []map[string]string{c.Require, c.RequireDev} {
		for name := range reqs {
			if isPlatformRequirement(name) {
				continue
			}
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Requires reports whether pkg is a direct requirement.
func (c *Composer) Requires(pkg string) bool {
	if _, ok := c.Require[pkg]; ok {
		return true
	}
	_, ok := c.RequireDev[pkg]
	return ok
}

func isPlatformRequirement(name string) bool {
	return name == "php" || strings.HasPrefix(name, "php-") || strings.HasPrefix(name, "ext-")
}

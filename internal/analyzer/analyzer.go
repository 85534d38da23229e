package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harshul/phpack/internal/apperr"
)

// Framework is the detected PHP framework or CMS convention of a project.
type Framework string

const (
	Laravel     Framework = "Laravel"
	WordPress   Framework = "WordPress"
	Symfony     Framework = "Symfony"
	CodeIgniter Framework = "CodeIgniter"
	Drupal      Framework = "Drupal"
	CakePHP     Framework = "CakePHP"
	PlainPHP    Framework = "PHP"
	Unknown     Framework = "Unknown"
)

// ProjectRecord describes an imported project.
type ProjectRecord struct {
	ID           string    `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Path         string    `yaml:"path" json:"path"`
	Framework    Framework `yaml:"project_type" json:"project_type"`
	EntryFile    string    `yaml:"entry_file" json:"entry_file"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	LastModified time.Time `yaml:"last_modified" json:"last_modified"`
}

// projectDir wraps a directory with the existence checks the detectors need.
type projectDir struct {
	root     string
	composer string // raw composer.json contents, "" when absent or unreadable
	hasComp  bool
}

func newProjectDir(root string) projectDir {
	d := projectDir{root: root}
	if data, err := os.ReadFile(filepath.Join(root, "composer.json")); err == nil {
		d.composer = string(data)
		d.hasComp = true
	}
	return d
}

func (d projectDir) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(rel)))
	return err == nil
}

func (d projectDir) isDir(rel string) bool {
	info, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(rel)))
	return err == nil && info.IsDir()
}

func (d projectDir) manifestMentions(substr string) bool {
	return d.hasComp && strings.Contains(d.composer, substr)
}

// detector reports whether a directory matches a framework layout.
type detector struct {
	framework Framework
	match     func(d projectDir) bool
}

// Detectors in priority order; the first match wins.
var detectors = []detector{
	{Laravel, func(d projectDir) bool {
		return d.exists("artisan") && d.manifestMentions("laravel/framework")
	}},
	{WordPress, func(d projectDir) bool {
		return d.exists("wp-config.php") || d.exists("wp-config-sample.php") || d.isDir("wp-content")
	}},
	{Symfony, func(d projectDir) bool {
		if d.exists("symfony.lock") {
			return true
		}
		return d.hasComp && d.isDir("config") && d.manifestMentions("symfony/")
	}},
	{CodeIgniter, func(d projectDir) bool {
		return d.isDir("system") && d.isDir("application")
	}},
	{Drupal, func(d projectDir) bool {
		return d.isDir("core") && d.isDir("sites")
	}},
	{CakePHP, func(d projectDir) bool {
		return d.isDir("config") && d.isDir("src") && d.manifestMentions("cakephp/cakephp")
	}},
	{PlainPHP, func(d projectDir) bool {
		return hasPHPFiles(d.root)
	}},
}

// entryCandidates lists the front controllers tried for each framework, in
// order. The last candidate is returned when none exist.
var entryCandidates = map[Framework][]string{
	Laravel:     {"public/index.php", "index.php"},
	WordPress:   {"index.php", "wp-config.php"},
	Symfony:     {"public/index.php", "web/index.php", "index.php"},
	CodeIgniter: {"index.php"},
	Drupal:      {"index.php"},
	CakePHP:     {"webroot/index.php", "index.php"},
}

// genericEntries are tried for plain and unknown projects.
var genericEntries = []string{"index.php", "app.php", "main.php", "start.php"}

// Classify inspects dir and returns its framework and entry file. The entry
// file is relative to dir and uses forward slashes; it is a best guess and
// may not exist.
func Classify(dir string) (Framework, string, error) {
	abs, err := checkDir(dir)
	if err != nil {
		return Unknown, "", err
	}
	framework := DetectFramework(abs)
	return framework, ResolveEntryFile(abs, framework), nil
}

// DetectFramework runs the detectors against dir in priority order.
func DetectFramework(dir string) Framework {
	d := newProjectDir(dir)
	for _, det := range detectors {
		if det.match(d) {
			return det.framework
		}
	}
	return Unknown
}

// ResolveEntryFile picks the entry file for framework based on which
// candidate files exist under dir.
func ResolveEntryFile(dir string, framework Framework) string {
	d := projectDir{root: dir}

	candidates, ok := entryCandidates[framework]
	if !ok {
		for _, entry := range genericEntries {
			if d.exists(entry) {
				return entry
			}
		}
		return "index.php"
	}

	for _, entry := range candidates[:len(candidates)-1] {
		if d.exists(entry) {
			return entry
		}
	}
	return candidates[len(candidates)-1]
}

// ImportProject classifies dir and builds a fresh ProjectRecord for it.
func ImportProject(dir string) (ProjectRecord, error) {
	abs, err := checkDir(dir)
	if err != nil {
		return ProjectRecord{}, err
	}

	framework := DetectFramework(abs)
	now := time.Now().UTC()

	return ProjectRecord{
		ID:           uuid.NewString(),
		Name:         filepath.Base(abs),
		Path:         abs,
		Framework:    framework,
		EntryFile:    ResolveEntryFile(abs, framework),
		CreatedAt:    now,
		LastModified: now,
	}, nil
}

// checkDir resolves dir to an absolute path and verifies it is a directory.
func checkDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidPath, "classify project", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidPath, "classify project", err)
	}
	if !info.IsDir() {
		return "", apperr.New(apperr.InvalidPath, "classify project", "%s is not a directory", abs)
	}
	return abs, nil
}

// hasPHPFiles reports whether dir directly contains a .php file.
func hasPHPFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".php" {
			return true
		}
	}
	return false
}

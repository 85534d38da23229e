package analyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harshul/phpack/internal/apperr"
)

// layout creates files (content may be empty) and directories (names ending
// in "/") under a fresh temp dir.
func layout(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

const laravelComposer = `{"require": {"php": "^8.2", "laravel/framework": "^11.0"}}`

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Framework
	}{
		{
			name:  "laravel",
			files: map[string]string{"artisan": "", "composer.json": laravelComposer},
			want:  Laravel,
		},
		{
			name:  "artisan without laravel manifest falls through",
			files: map[string]string{"artisan": "", "composer.json": `{"require": {}}`, "wp-content/": ""},
			want:  WordPress,
		},
		{
			name:  "laravel manifest without artisan falls through",
			files: map[string]string{"composer.json": laravelComposer, "wp-content/": ""},
			want:  WordPress,
		},
		{
			name:  "wordpress sample config",
			files: map[string]string{"wp-config-sample.php": "<?php"},
			want:  WordPress,
		},
		{
			name:  "symfony lock",
			files: map[string]string{"symfony.lock": "{}"},
			want:  Symfony,
		},
		{
			name:  "symfony manifest with config dir",
			files: map[string]string{"composer.json": `{"require": {"symfony/framework-bundle": "^7"}}`, "config/": ""},
			want:  Symfony,
		},
		{
			name:  "symfony manifest without config dir is plain php",
			files: map[string]string{"composer.json": `{"require": {"symfony/console": "^7"}}`, "index.php": "<?php"},
			want:  PlainPHP,
		},
		{
			name:  "codeigniter",
			files: map[string]string{"system/": "", "application/": ""},
			want:  CodeIgniter,
		},
		{
			name:  "drupal",
			files: map[string]string{"core/": "", "sites/": ""},
			want:  Drupal,
		},
		{
			name:  "cakephp",
			files: map[string]string{"config/": "", "src/": "", "composer.json": `{"require": {"cakephp/cakephp": "^5"}}`},
			want:  CakePHP,
		},
		{
			name:  "config and src without cakephp manifest",
			files: map[string]string{"config/": "", "src/": "", "composer.json": `{"require": {}}`},
			want:  Unknown,
		},
		{
			name:  "plain php",
			files: map[string]string{"hello.php": "<?php echo 1;"},
			want:  PlainPHP,
		},
		{
			name:  "php files in subdirectories only",
			files: map[string]string{"lib/hello.php": "<?php"},
			want:  Unknown,
		},
		{
			name:  "empty",
			files: map[string]string{},
			want:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := layout(t, tt.files)
			if got := DetectFramework(dir); got != tt.want {
				t.Errorf("DetectFramework() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectFrameworkPriority(t *testing.T) {
	dir := layout(t, map[string]string{
		"artisan":       "",
		"composer.json": laravelComposer,
		"wp-config.php": "<?php",
		"wp-content/":   "",
		"symfony.lock":  "{}",
	})

	if got := DetectFramework(dir); got != Laravel {
		t.Errorf("DetectFramework() = %s, want %s", got, Laravel)
	}
}

func TestResolveEntryFile(t *testing.T) {
	tests := []struct {
		name      string
		framework Framework
		files     map[string]string
		want      string
	}{
		{"laravel public", Laravel, map[string]string{"public/index.php": "", "index.php": ""}, "public/index.php"},
		{"laravel root only", Laravel, map[string]string{"index.php": ""}, "index.php"},
		{"wordpress index", WordPress, map[string]string{"index.php": ""}, "index.php"},
		{"wordpress no index", WordPress, map[string]string{}, "wp-config.php"},
		{"symfony public", Symfony, map[string]string{"public/index.php": "", "web/index.php": ""}, "public/index.php"},
		{"symfony web", Symfony, map[string]string{"web/index.php": ""}, "web/index.php"},
		{"symfony fallback", Symfony, map[string]string{}, "index.php"},
		{"codeigniter", CodeIgniter, map[string]string{"public/index.php": ""}, "index.php"},
		{"drupal", Drupal, map[string]string{}, "index.php"},
		{"cakephp webroot", CakePHP, map[string]string{"webroot/index.php": ""}, "webroot/index.php"},
		{"cakephp fallback", CakePHP, map[string]string{}, "index.php"},
		{"plain app.php", PlainPHP, map[string]string{"app.php": "", "start.php": ""}, "app.php"},
		{"plain start.php", PlainPHP, map[string]string{"start.php": ""}, "start.php"},
		{"unknown guess", Unknown, map[string]string{}, "index.php"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := layout(t, tt.files)
			if got := ResolveEntryFile(dir, tt.framework); got != tt.want {
				t.Errorf("ResolveEntryFile(%s) = %q, want %q", tt.framework, got, tt.want)
			}
		})
	}
}

func TestClassifyInvalidPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if _, _, err := Classify(missing); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("Classify(missing) error = %v, want InvalidPath", err)
	}

	file := filepath.Join(t.TempDir(), "index.php")
	if err := os.WriteFile(file, []byte("<?php"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Classify(file); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("Classify(file) error = %v, want InvalidPath", err)
	}
}

func TestImportProject(t *testing.T) {
	dir := layout(t, map[string]string{
		"artisan":          "",
		"composer.json":    laravelComposer,
		"public/index.php": "<?php",
	})

	rec, err := ImportProject(dir)
	if err != nil {
		t.Fatalf("ImportProject: %v", err)
	}

	if rec.ID == "" {
		t.Error("expected a generated id")
	}
	if rec.Name != filepath.Base(dir) {
		t.Errorf("Name = %q, want %q", rec.Name, filepath.Base(dir))
	}
	if !filepath.IsAbs(rec.Path) {
		t.Errorf("Path = %q, want absolute", rec.Path)
	}
	if rec.Framework != Laravel || rec.EntryFile != "public/index.php" {
		t.Errorf("got (%s, %s), want (Laravel, public/index.php)", rec.Framework, rec.EntryFile)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.LastModified) {
		t.Errorf("timestamps not initialised: %v / %v", rec.CreatedAt, rec.LastModified)
	}

	other, err := ImportProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == rec.ID {
		t.Error("expected distinct ids per import")
	}
}

package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/provisioner"
)

type fakePHP struct{ ok bool }

func (f fakePHP) Check(context.Context) (string, error) {
	if !f.ok {
		return "", errors.New("not found")
	}
	return "PHP 8.3.4 (cli)", nil
}

func (f fakePHP) Path() (string, error) {
	if !f.ok {
		return "", errors.New("not found")
	}
	return "/usr/bin/php", nil
}

type fakeComposer struct{ ok bool }

func (f fakeComposer) Check(context.Context) provisioner.CheckResult {
	if !f.ok {
		return provisioner.CheckResult{InstallHint: "install composer"}
	}
	return provisioner.CheckResult{IsAvailable: true, Version: "Composer version 2.7.1"}
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDiagnoseEnvironmentOnly(t *testing.T) {
	d := Diagnose(context.Background(), "", fakePHP{ok: true}, fakeComposer{ok: true})
	if !d.Healthy || d.Runtime.Version != "PHP 8.3.4 (cli)" || d.Runtime.Path != "/usr/bin/php" {
		t.Errorf("Diagnose() = %+v", d)
	}

	d = Diagnose(context.Background(), "", fakePHP{}, fakeComposer{ok: true})
	if d.Healthy || len(d.Issues) != 1 {
		t.Errorf("missing php: Healthy=%v Issues=%v", d.Healthy, d.Issues)
	}
}

func TestDiagnoseProject(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		composer    bool
		wantHealthy bool
		wantFW      analyzer.Framework
	}{
		{
			name:        "plain php without composer",
			files:       map[string]string{"index.php": "<?php"},
			wantHealthy: true,
			wantFW:      analyzer.PlainPHP,
		},
		{
			name: "laravel not installed",
			files: map[string]string{
				"artisan":          "",
				"composer.json":    `{"require": {"php": "^8.2", "laravel/framework": "^11.0"}}`,
				"public/index.php": "<?php",
			},
			composer:    true,
			wantHealthy: false,
			wantFW:      analyzer.Laravel,
		},
		{
			name: "laravel installed",
			files: map[string]string{
				"artisan":             "",
				"composer.json":       `{"require": {"laravel/framework": "^11.0"}}`,
				"public/index.php":    "<?php",
				"vendor/autoload.php": "<?php",
			},
			composer:    true,
			wantHealthy: true,
			wantFW:      analyzer.Laravel,
		},
		{
			name: "composer missing",
			files: map[string]string{
				"composer.json":       `{"require": {}}`,
				"index.php":           "<?php",
				"vendor/autoload.php": "<?php",
			},
			wantHealthy: false,
			wantFW:      analyzer.PlainPHP,
		},
		{
			name: "env key missing",
			files: map[string]string{
				"index.php":    "<?php",
				".env.example": "APP_KEY=\nDB_HOST=localhost\n",
				".env":         "DB_HOST=db\n",
			},
			wantHealthy: false,
			wantFW:      analyzer.PlainPHP,
		},
		{
			name: "env complete",
			files: map[string]string{
				"index.php":    "<?php",
				".env.example": "APP_KEY=\n",
				".env.local":   "APP_KEY=base64:abc\n",
			},
			wantHealthy: true,
			wantFW:      analyzer.PlainPHP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, tt.files)
			d := Diagnose(context.Background(), dir, fakePHP{ok: true}, fakeComposer{ok: tt.composer})
			if d.Healthy != tt.wantHealthy {
				t.Errorf("Healthy = %v, want %v (issues %v)", d.Healthy, tt.wantHealthy, d.Issues)
			}
			if d.Framework != tt.wantFW {
				t.Errorf("Framework = %v, want %v", d.Framework, tt.wantFW)
			}
		})
	}
}

func TestDiagnoseLaravelPackages(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"artisan":          "",
		"composer.json":    `{"require": {"php": "^8.2", "laravel/framework": "^11.0"}}`,
		"public/index.php": "<?php",
	})
	d := Diagnose(context.Background(), dir, fakePHP{ok: true}, fakeComposer{ok: true})
	if len(d.Dependencies.Packages) != 1 || d.Dependencies.Packages[0] != "laravel/framework" {
		t.Errorf("Packages = %v", d.Dependencies.Packages)
	}
	if d.Dependencies.FixCommand == "" {
		t.Error("expected a fix command")
	}
}

func TestDiagnoseInvalidPath(t *testing.T) {
	d := Diagnose(context.Background(), filepath.Join(t.TempDir(), "missing"), fakePHP{ok: true}, fakeComposer{ok: true})
	if d.Healthy {
		t.Error("expected unhealthy diagnosis for a missing directory")
	}
}

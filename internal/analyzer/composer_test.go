package analyzer

import (
	"reflect"
	"testing"
)

func TestListDependencies(t *testing.T) {
	tests := []struct {
		name     string
		manifest *string
		want     []string
	}{
		{"no manifest", nil, []string{}},
		{"laravel", strPtr(`{"require": {"laravel/framework": "^11", "guzzlehttp/guzzle": "^7"}}`), []string{"laravel/framework", "guzzlehttp/guzzle"}},
		{"any symfony package reports console", strPtr(`{"require": {"symfony/http-kernel": "^7"}}`), []string{"symfony/console"}},
		{"unrelated", strPtr(`{"require": {"monolog/monolog": "^3"}}`), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			if tt.manifest != nil {
				files["composer.json"] = *tt.manifest
			}
			dir := layout(t, files)

			got, err := ListDependencies(dir)
			if err != nil {
				t.Fatalf("ListDependencies: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListDependencies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadComposer(t *testing.T) {
	dir := layout(t, map[string]string{"composer.json": `{
  "name": "acme/shop",
  "require": {"php": "^8.1", "ext-json": "*", "laravel/framework": "^11"},
  "require-dev": {"phpunit/phpunit": "^10", "laravel/framework": "^11"}
}`})

	c, err := ReadComposer(dir)
	if err != nil {
		t.Fatalf("ReadComposer: %v", err)
	}
	if c.Name != "acme/shop" {
		t.Errorf("Name = %q", c.Name)
	}
	want := []string{"laravel/framework", "phpunit/phpunit"}
	if got := c.Packages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Packages() = %v, want %v", got, want)
	}
	if !c.Requires("phpunit/phpunit") || c.Requires("symfony/console") {
		t.Error("Requires() mismatch")
	}
}

func TestReadComposerInvalid(t *testing.T) {
	dir := layout(t, map[string]string{"composer.json": `{not json`})
	if _, err := ReadComposer(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func strPtr(s string) *string { return &s }

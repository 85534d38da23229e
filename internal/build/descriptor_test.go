package build

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescriptorRoundTrip(t *testing.T) {
	want := Descriptor{
		Version:    "8.3.4",
		AppName:    "My PHP App",
		AppVersion: "1.0.0",
		OutputDir:  "./dist",
		Extensions: "[PHP Modules]\nCore\ndate\nZend OPcache\n\n[Zend Modules]\nZend OPcache\n",
	}
	data, err := want.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "php.conf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadDescriptor(path)
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if got.Version != want.Version || got.AppName != want.AppName ||
		got.AppVersion != want.AppVersion || got.OutputDir != want.OutputDir {
		t.Errorf("ReadDescriptor() = %+v, want %+v", got, want)
	}

	mods := got.Modules()
	seen := map[string]bool{}
	for _, m := range mods {
		seen[m] = true
	}
	for _, m := range []string{"Core", "date", "Zend OPcache"} {
		if !seen[m] {
			t.Errorf("Modules() = %v, missing %q", mods, m)
		}
	}
}

func TestDescriptorRoundTripKeepsValuesVerbatim(t *testing.T) {
	tests := []Descriptor{
		{Version: "8.3.4", AppName: `"Shop"`, AppVersion: "1.0.0", OutputDir: " ./dist "},
		{Version: "8.3.4", AppName: "'Shop'", AppVersion: "  2.0", OutputDir: "./out\t"},
		{Version: "8.3.4", AppName: "`Shop`", AppVersion: `"""1"""`, OutputDir: "a ; b # c"},
		{Version: "8.3.4", AppName: "Shop", AppVersion: "", OutputDir: ""},
	}
	for _, want := range tests {
		data, err := want.Render()
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		path := filepath.Join(t.TempDir(), "php.conf")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadDescriptor(path)
		if err != nil {
			t.Fatalf("ReadDescriptor: %v", err)
		}
		if got.Version != want.Version || got.AppName != want.AppName ||
			got.AppVersion != want.AppVersion || got.OutputDir != want.OutputDir {
			t.Errorf("ReadDescriptor() = %q %q %q %q, want %q %q %q %q\n%s",
				got.Version, got.AppName, got.AppVersion, got.OutputDir,
				want.Version, want.AppName, want.AppVersion, want.OutputDir, data)
		}
	}
}

func TestDescriptorModules(t *testing.T) {
	d := Descriptor{Extensions: "[PHP Modules]\nCore\n  json \n\n[Zend Modules]\n"}
	got := d.Modules()
	if len(got) != 2 || got[0] != "Core" || got[1] != "json" {
		t.Errorf("Modules() = %v", got)
	}
}

func TestLauncherName(t *testing.T) {
	tests := map[string]string{
		"windows-x64": "Shop.exe",
		"linux-x64":   "Shop",
		"macos-arm64": "Shop",
	}
	for platform, want := range tests {
		if got := LauncherName("Shop", platform); got != want {
			t.Errorf("LauncherName(%q) = %q, want %q", platform, got, want)
		}
	}
}

// Package secrets reads a project's dotenv files so preview servers see the
// same variables the application expects in production.
package secrets

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
)

const (
	EnvFile     = ".env"
	LocalFile   = ".env.local"
	ExampleFile = ".env.example"
)

// EnvStatus compares a project's .env against its .env.example.
type EnvStatus struct {
	HasEnvFile bool
	HasExample bool
	Defined    map[string]bool
	Missing    []string // keys in .env.example not defined anywhere
}

// read parses path, treating a missing file as empty.
func read(path string) (map[string]string, bool, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vars, true, nil
}

// Load returns the variables from .env overlaid with .env.local.
func Load(projectPath string) (map[string]string, error) {
	vars, _, err := read(filepath.Join(projectPath, EnvFile))
	if err != nil {
		return nil, err
	}
	local, _, err := read(filepath.Join(projectPath, LocalFile))
	if err != nil {
		return nil, err
	}
	for k, v := range local {
		vars[k] = v
	}
	return vars, nil
}

// Environ appends vars to base as sorted KEY=value pairs. Later entries win
// for os/exec, so vars override base.
func Environ(base []string, vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := append([]string(nil), base...)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// Check reports which .env.example keys have no value in .env or .env.local.
func Check(projectPath string) (EnvStatus, error) {
	status := EnvStatus{Defined: map[string]bool{}}

	env, ok, err := read(filepath.Join(projectPath, EnvFile))
	if err != nil {
		return status, err
	}
	status.HasEnvFile = ok

	local, _, err := read(filepath.Join(projectPath, LocalFile))
	if err != nil {
		return status, err
	}

	example, ok, err := read(filepath.Join(projectPath, ExampleFile))
	if err != nil {
		return status, err
	}
	status.HasExample = ok

	for k := range env {
		status.Defined[k] = true
	}
	for k := range local {
		status.Defined[k] = true
	}
	for k := range example {
		if !status.Defined[k] {
			status.Missing = append(status.Missing, k)
		}
	}
	sort.Strings(status.Missing)
	return status, nil
}

package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/provisioner"
	"github.com/harshul/phpack/internal/secrets"
)

// PHP is the interpreter probe the doctor needs.
type PHP interface {
	Check(ctx context.Context) (string, error)
	Path() (string, error)
}

// Composer is the package manager probe the doctor needs.
type Composer interface {
	Check(ctx context.Context) provisioner.CheckResult
}

// RuntimeStatus represents the status of a runtime check
type RuntimeStatus struct {
	Name      string
	Installed bool
	Version   string
	Path      string
}

// DependencyStatus represents the status of project dependencies
type DependencyStatus struct {
	ConfigFile       string // composer.json when present
	Installed        bool   // vendor/autoload.php exists
	ManagerInstalled bool
	ManagerVersion   string
	ManagerHint      string
	FixCommand       string
	Packages         []string
}

// Diagnosis contains the full health check results
type Diagnosis struct {
	ProjectPath  string
	Framework    analyzer.Framework
	EntryFile    string
	Runtime      RuntimeStatus
	Dependencies DependencyStatus
	Env          secrets.EnvStatus
	Healthy      bool
	Issues       []string
}

// Diagnose checks php, composer and, when projectPath is not empty, the
// project's manifest and vendor directory.
func Diagnose(ctx context.Context, projectPath string, php PHP, composer Composer) Diagnosis {
	diagnosis := Diagnosis{
		ProjectPath: projectPath,
		Healthy:     true,
		Issues:      []string{},
	}

	diagnosis.Runtime = checkPHP(ctx, php)
	if !diagnosis.Runtime.Installed {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, "PHP runtime is not installed")
	}

	check := composer.Check(ctx)
	diagnosis.Dependencies.ManagerInstalled = check.IsAvailable
	diagnosis.Dependencies.ManagerVersion = check.Version
	diagnosis.Dependencies.ManagerHint = check.InstallHint

	if projectPath == "" {
		return diagnosis
	}

	framework, entry, err := analyzer.Classify(projectPath)
	if err != nil {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, err.Error())
		return diagnosis
	}
	diagnosis.Framework = framework
	diagnosis.EntryFile = entry

	if _, err := os.Stat(filepath.Join(projectPath, entry)); err != nil {
		diagnosis.Issues = append(diagnosis.Issues, "entry file "+entry+" does not exist")
		diagnosis.Healthy = false
	}

	checkDependencies(projectPath, &diagnosis)
	checkEnv(projectPath, &diagnosis)
	return diagnosis
}

func checkPHP(ctx context.Context, php PHP) RuntimeStatus {
	status := RuntimeStatus{Name: "PHP", Installed: false}

	version, err := php.Check(ctx)
	if err == nil {
		status.Installed = true
		status.Version = version
	}
	if path, err := php.Path(); err == nil {
		status.Path = path
	}
	return status
}

func checkDependencies(projectPath string, diagnosis *Diagnosis) {
	deps := &diagnosis.Dependencies

	comp, err := analyzer.ReadComposer(projectPath)
	if errors.Is(err, fs.ErrNotExist) {
		// No composer.json, nothing to install.
		deps.Installed = true
		return
	}
	if err != nil {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, err.Error())
		return
	}

	deps.ConfigFile = "composer.json"
	deps.Packages = comp.Packages()
	deps.Installed = provisioner.IsInstalled(projectPath)

	if !deps.ManagerInstalled {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, deps.ManagerHint)
	}
	if !deps.Installed {
		deps.FixCommand = "phpack install " + projectPath
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, "Dependencies are not installed")
	}
}

func checkEnv(projectPath string, diagnosis *Diagnosis) {
	status, err := secrets.Check(projectPath)
	diagnosis.Env = status
	if err != nil {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues, err.Error())
		return
	}
	if len(status.Missing) > 0 {
		diagnosis.Healthy = false
		diagnosis.Issues = append(diagnosis.Issues,
			fmt.Sprintf("%s keys missing from %s: %s", secrets.ExampleFile, secrets.EnvFile, strings.Join(status.Missing, ", ")))
	}
}

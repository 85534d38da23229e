package build

import (
	"bytes"
	"text/template"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/blueprint"
)

// launcherData is what the launcher templates render from.
type launcherData struct {
	Name string
	Port uint32
}

var windowsLauncher = template.Must(template.New("windows").Parse(`@echo off
title {{.Name}}
cd /d "%~dp0"
php -S localhost:{{.Port}} -t app
pause
`))

var posixLauncher = template.Must(template.New("posix").Parse(`#!/bin/bash
cd "$(dirname "$0")"
echo "Starting {{.Name}} Server..."
php -S localhost:{{.Port}} -t app
`))

// launcher describes the script emitted for one platform.
type launcher struct {
	tmpl       *template.Template
	executable bool
}

var launchers = map[string]launcher{
	blueprint.WindowsX64: {tmpl: windowsLauncher},
	blueprint.MacOSX64:   {tmpl: posixLauncher, executable: true},
	blueprint.MacOSArm64: {tmpl: posixLauncher, executable: true},
	blueprint.LinuxX64:   {tmpl: posixLauncher, executable: true},
}

// LauncherName returns the launcher's file name for platform.
func LauncherName(appName, platform string) string {
	if platform == blueprint.WindowsX64 {
		return appName + ".exe"
	}
	return appName
}

// renderLauncher returns the script for platform and whether it must be
// marked executable.
func renderLauncher(platform string, data launcherData) ([]byte, bool, error) {
	l, ok := launchers[platform]
	if !ok {
		return nil, false, apperr.New(apperr.UnsupportedPlatform, "emit launcher", "unsupported platform %q", platform)
	}
	var buf bytes.Buffer
	if err := l.tmpl.Execute(&buf, data); err != nil {
		return nil, false, apperr.Wrap(apperr.WriteFailed, "emit launcher", err)
	}
	return buf.Bytes(), l.executable, nil
}

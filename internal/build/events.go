package build

import "time"

// Stage identifies one of the four pipeline stages.
type Stage int

const (
	StageEnvironment Stage = iota + 1
	StageCopy
	StageRuntime
	StageLaunchers
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageEnvironment, StageCopy, StageRuntime, StageLaunchers}

func (s Stage) String() string {
	switch s {
	case StageEnvironment:
		return "prepare staging"
	case StageCopy:
		return "copy project files"
	case StageRuntime:
		return "bundle runtime"
	case StageLaunchers:
		return "emit launchers"
	}
	return "unknown"
}

// EventKind says what happened.
type EventKind int

const (
	StageStarted EventKind = iota
	StageFinished
	StageFailed
	LauncherWritten
	BuildFinished
)

// Event reports build progress.
type Event struct {
	ProjectID string
	Stage     Stage
	Kind      EventKind
	// Platform is set for LauncherWritten.
	Platform string
	// Path is the launcher for LauncherWritten and the staging root for
	// BuildFinished.
	Path    string
	Err     error
	Elapsed time.Duration
}

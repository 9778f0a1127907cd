package pipeline

import (
	"time"

	"asset-exporter/core/output"
)

// Status is the outcome of a run.
type Status int

const (
	StatusSuccess Status = iota
	StatusFatal
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFatal:
		return "fatal"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Exit codes returned by RunResult.ExitCode.
const (
	ExitSuccess   = 0
	ExitFatal     = 1
	ExitCancelled = 130
)

// UnitResult describes one unit of a run.
type UnitResult struct {
	Name         string
	Kind         string
	Failed       bool
	Items        int
	AssetsLoaded int
	FailedAssets int
	Elapsed      time.Duration
}

// Unit kinds.
const (
	KindExporter     = "exporter"
	KindPostExporter = "post-exporter"
)

// RunResult is the outcome of Pipeline.Run.
type RunResult struct {
	RunID        string
	Status       Status
	Err          error
	StartedAt    time.Time
	Elapsed      time.Duration
	Items        int
	AssetsLoaded int
	FailedAssets []string
	Units        []UnitResult
	Dataset      *output.Dataset
}

// ExitCode maps the status to a process exit code. Failed assets do not
// affect it.
func (r *RunResult) ExitCode() int {
	switch r.Status {
	case StatusSuccess:
		return ExitSuccess
	case StatusCancelled:
		return ExitCancelled
	default:
		return ExitFatal
	}
}

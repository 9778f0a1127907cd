package pipeline

import "go.uber.org/zap"

// Progress is an advisory report from a unit after each processed path.
type Progress struct {
	Unit         string
	Completed    int
	Total        int
	Current      string
	// Failed lists the unit's failed paths so far in failure order. It is
	// shared with the unit and must not be modified.
	Failed       []string
	AssetsLoaded int
}

// ProgressSink receives progress reports. Implementations must be safe for
// concurrent use and must not block.
type ProgressSink interface {
	Report(p Progress)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(Progress)

func (f ProgressFunc) Report(p Progress) { f(p) }

// Discard drops every report.
var Discard ProgressSink = ProgressFunc(func(Progress) {})

// LogProgress logs reports at debug level.
func LogProgress(log *zap.Logger) ProgressSink {
	return ProgressFunc(func(p Progress) {
		log.Debug("Progress",
			zap.String("unit", p.Unit),
			zap.Int("completed", p.Completed),
			zap.Int("total", p.Total),
			zap.String("current", p.Current),
			zap.Int("failed", len(p.Failed)),
			zap.Int("assets_loaded", p.AssetsLoaded),
		)
	})
}

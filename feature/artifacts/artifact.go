package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"asset-exporter/core/models"
	"asset-exporter/core/sink"
)

// Options configures one artifact.
type Options struct {
	// Path is the sink name of the artifact.
	Path string
	// Merge overlays the new run on the previous output instead of
	// replacing it.
	Merge  bool
	Sink   sink.Sink
	Logger *zap.Logger
	// Registry decodes previous items; it defaults to models.DefaultRegistry.
	Registry *models.Registry
}

func (o Options) withDefaults(path string) Options {
	if o.Path == "" {
		o.Path = path
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Registry == nil {
		o.Registry = models.DefaultRegistry
	}
	return o
}

// readPrevious returns the previous output, or nil when there is none or the
// merge policy is off.
func (o Options) readPrevious(ctx context.Context) ([]byte, error) {
	if !o.Merge {
		return nil, nil
	}
	data, err := o.Sink.Read(ctx, o.Path)
	if errors.Is(err, sink.ErrNotExist) {
		o.Logger.Debug("No previous artifact to merge", zap.String("path", o.Path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read previous %s: %w", o.Path, err)
	}
	return data, nil
}

func (o Options) write(ctx context.Context, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", o.Path, err)
	}
	if err := o.Sink.Write(ctx, o.Path, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", o.Path, err)
	}
	return data, nil
}

// overlay copies next over prev. Keys are matched case-insensitively and the
// spelling of next wins.
func overlay[V any](prev, next map[string]V) map[string]V {
	out := make(map[string]V, len(prev)+len(next))
	folded := make(map[string]string, len(prev)+len(next))
	for k, v := range prev {
		out[k] = v
		folded[strings.ToLower(k)] = k
	}
	for k, v := range next {
		if old, ok := folded[strings.ToLower(k)]; ok {
			delete(out, old)
		}
		out[k] = v
		folded[strings.ToLower(k)] = k
	}
	return out
}

package artifacts

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"asset-exporter/core/output"
	"asset-exporter/core/sink"
)

// DefaultSplitDir is the default directory of per-type item files.
const DefaultSplitDir = "NamedItems"

// SplitResult summarizes a split.
type SplitResult struct {
	Items int
	Files []string
}

// Split writes each item type of an assets document to <dir>/<Type>.json,
// keyed by "Type:name" with the name lowercased, and every other top-level
// object to <Key>.json.
func Split(ctx context.Context, data []byte, dst sink.Sink, dir string, log *zap.Logger) (SplitResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = DefaultSplitDir
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return SplitResult{}, fmt.Errorf("decode assets document: %w", err)
	}

	var items map[string]json.RawMessage
	if raw, ok := doc["NamedItems"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return SplitResult{}, fmt.Errorf("decode NamedItems: %w", err)
		}
	}

	byType := make(map[string]map[string]json.RawMessage)
	var res SplitResult
	for id, raw := range items {
		var peek struct {
			Type string `json:"Type"`
			Name string `json:"Name"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil || peek.Type == "" {
			log.Warn("Skipping item without type", zap.String("template_id", id))
			continue
		}
		group, ok := byType[peek.Type]
		if !ok {
			group = make(map[string]json.RawMessage)
			byType[peek.Type] = group
		}
		group[peek.Type+":"+strings.ToLower(peek.Name)] = raw
		res.Items++
	}

	files := make(map[string]any, len(byType)+len(doc))
	for itemType, group := range byType {
		if strings.ContainsAny(itemType, `/\`) {
			log.Warn("Skipping item type with a path separator", zap.String("type", itemType))
			continue
		}
		files[path.Join(dir, itemType+".json")] = group
	}
	for key, raw := range doc {
		if key == "NamedItems" || strings.ContainsAny(key, `/\`) {
			continue
		}
		if trimmed := strings.TrimSpace(string(raw)); !strings.HasPrefix(trimmed, "{") {
			continue
		}
		files[key+".json"] = raw
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out, err := json.MarshalIndent(files[name], "", "  ")
		if err != nil {
			return res, fmt.Errorf("encode %s: %w", name, err)
		}
		if err := dst.Write(ctx, name, out); err != nil {
			return res, fmt.Errorf("write %s: %w", name, err)
		}
		res.Files = append(res.Files, name)
		log.Debug("Wrote split file", zap.String("name", name))
	}
	return res, nil
}

// SplitArtifact writes the per-type view of the assets document. Split files
// are always replaced.
type SplitArtifact struct {
	opts Options
}

// NewSplitArtifact returns a split artifact. Options.Path names the item
// directory.
func NewSplitArtifact(opts Options) *SplitArtifact {
	return &SplitArtifact{opts: opts.withDefaults(DefaultSplitDir)}
}

func (a *SplitArtifact) Name() string { return a.opts.Path }

func (a *SplitArtifact) Generate(ctx context.Context, ds *output.Dataset) error {
	data, err := json.Marshal(NewAssetsDocument(ds))
	if err != nil {
		return fmt.Errorf("encode assets document: %w", err)
	}
	res, err := Split(ctx, data, a.opts.Sink, a.opts.Path, a.opts.Logger)
	if err != nil {
		return err
	}
	a.opts.Logger.Info("Wrote split artifact", zap.Int("items", res.Items), zap.Int("files", len(res.Files)))
	return nil
}

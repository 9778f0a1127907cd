package artifacts

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"asset-exporter/core/models"
	"asset-exporter/core/output"
)

// DefaultAssetsPath is the default sink name of the assets artifact.
const DefaultAssetsPath = "assets.json"

//go:embed schema/assets.schema.json
var assetsSchemaJSON []byte

const assetsSchemaURL = "assets.schema.json"

// AssetsDocument is the layout of assets.json.
type AssetsDocument struct {
	NamedItems  map[string]models.ItemData `json:"NamedItems"`
	ItemRatings map[string]int             `json:"ItemRatings,omitempty"`
	HeroStats   *models.StatTable          `json:"HeroStats,omitempty"`
}

type rawAssetsDocument struct {
	NamedItems  map[string]json.RawMessage `json:"NamedItems"`
	ItemRatings map[string]int             `json:"ItemRatings"`
	HeroStats   *models.StatTable          `json:"HeroStats"`
}

// NewAssetsDocument builds the document for ds.
func NewAssetsDocument(ds *output.Dataset) *AssetsDocument {
	doc := &AssetsDocument{
		NamedItems:  make(map[string]models.ItemData, ds.Len()),
		ItemRatings: ds.Ratings(),
	}
	for _, id := range ds.TemplateIDs() {
		if item, ok := ds.Item(id); ok {
			doc.NamedItems[id] = item
		}
	}
	if stats := ds.StatTable(); stats.Len() > 0 {
		doc.HeroStats = stats
	}
	return doc
}

// DecodeAssetsDocument decodes assets.json, choosing each item's shape from
// its Type through reg.
func DecodeAssetsDocument(data []byte, reg *models.Registry) (*AssetsDocument, error) {
	var raw rawAssetsDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode assets document: %w", err)
	}
	doc := &AssetsDocument{
		NamedItems:  make(map[string]models.ItemData, len(raw.NamedItems)),
		ItemRatings: raw.ItemRatings,
		HeroStats:   raw.HeroStats,
	}
	for id, msg := range raw.NamedItems {
		item, err := reg.Decode(msg)
		if err != nil {
			return nil, fmt.Errorf("decode item %s: %w", id, err)
		}
		doc.NamedItems[id] = item
	}
	return doc, nil
}

// Overlay merges next over doc. Items and ratings from next win; hero stat
// curves are merged per key.
func (doc *AssetsDocument) Overlay(next *AssetsDocument) *AssetsDocument {
	out := &AssetsDocument{
		NamedItems:  overlay(doc.NamedItems, next.NamedItems),
		ItemRatings: overlay(doc.ItemRatings, next.ItemRatings),
	}
	if doc.HeroStats != nil || next.HeroStats != nil {
		out.HeroStats = models.NewStatTable()
		out.HeroStats.Merge(doc.HeroStats)
		out.HeroStats.Merge(next.HeroStats)
	}
	if len(out.ItemRatings) == 0 {
		out.ItemRatings = nil
	}
	return out
}

// AssetsArtifact writes assets.json and validates it against the embedded
// schema before writing.
type AssetsArtifact struct {
	opts   Options
	schema *jsonschema.Schema
}

func NewAssetsArtifact(opts Options) (*AssetsArtifact, error) {
	schema, err := compileAssetsSchema()
	if err != nil {
		return nil, err
	}
	return &AssetsArtifact{opts: opts.withDefaults(DefaultAssetsPath), schema: schema}, nil
}

func compileAssetsSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(assetsSchemaURL, bytes.NewReader(assetsSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add assets schema: %w", err)
	}
	schema, err := c.Compile(assetsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile assets schema: %w", err)
	}
	return schema, nil
}

func (a *AssetsArtifact) Name() string { return a.opts.Path }

func (a *AssetsArtifact) Generate(ctx context.Context, ds *output.Dataset) error {
	doc := NewAssetsDocument(ds)

	prev, err := a.opts.readPrevious(ctx)
	if err != nil {
		return err
	}
	if prev != nil {
		old, err := DecodeAssetsDocument(prev, a.opts.Registry)
		if err != nil {
			return fmt.Errorf("merge %s: %w", a.opts.Path, err)
		}
		a.opts.Logger.Info("Merging with previous artifact",
			zap.String("path", a.opts.Path),
			zap.Int("previous_items", len(old.NamedItems)),
		)
		doc = old.Overlay(doc)
	}

	if err := a.Validate(doc); err != nil {
		return err
	}
	if _, err := a.opts.write(ctx, doc); err != nil {
		return err
	}
	a.opts.Logger.Info("Wrote artifact", zap.String("path", a.opts.Path), zap.Int("items", len(doc.NamedItems)))
	return nil
}

// Validate checks doc against the assets schema.
func (a *AssetsArtifact) Validate(doc *AssetsDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.opts.Path, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode %s: %w", a.opts.Path, err)
	}
	if err := a.schema.Validate(v); err != nil {
		return fmt.Errorf("validate %s: %w", a.opts.Path, err)
	}
	return nil
}

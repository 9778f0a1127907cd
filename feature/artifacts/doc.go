// Package artifacts serializes the merged dataset.
//
// Every artifact writes one or more named blobs through a sink.Sink. With the
// merge policy an artifact first reads its previous output and overlays the
// new run on it: keys from the new run win, case-insensitively, and keys only
// present in the previous output are kept.
//
//	assets.json      NamedItems, ItemRatings and HeroStats
//	schematics.json  crafting recipes with display names resolved
//	NamedItems/*.json one file per item type (optional)
package artifacts

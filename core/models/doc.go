// Package models defines the records produced by an export run.
//
// Items are addressed by a template key of the form "{Type}:{Name}", compared
// case-insensitively. Every item shares the NamedItemData base; subtypes are
// chosen from the Type discriminator through a Registry that is built once at
// start-up and rejects duplicate or missing discriminators.
//
// # Records
//
//   - NamedItemData / SchematicItemData: exported items.
//   - ItemRecipe: tier-up, rarity-up and recycle recipes attached to items.
//   - ExportedRecipe: crafting recipes keyed by the crafted template key.
//   - ImageRef: a reference from an item to a texture asset, by image kind.
//   - StatTable: per-subtype, per-tier stat curves.
package models

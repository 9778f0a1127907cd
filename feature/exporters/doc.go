// Package exporters contains the extraction units of an export run.
//
// Each unit is offered every eligible path of the file index once, keeps the
// paths it is interested in, and later turns them into records written to
// its own output.Buffer. Item units share ItemExporter, which loads each path
// with bounded parallelism, builds the common item fields, resolves recipes
// through a per-unit recipe table cache and hands the result to a per-type
// hook. Table units (hero stats, homebase ratings, crafting recipes) read one
// table each.
//
// A path that fails to load or convert is recorded in the unit's failed set
// and skipped; it never stops the unit.
//
// All returns the built-in units in dependency order.
package exporters

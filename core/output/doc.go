// Package output holds the in-memory results of an export run.
//
// A Buffer is owned by a single extraction unit while it runs and is safe for
// the unit's own workers to write concurrently. After the unit finishes the
// orchestrator copies it once into the run's Dataset and drops it.
//
// The Dataset is shared by every refinement unit. Additive operations may run
// concurrently; mutations of an existing item go through UpdateItem, which
// holds that item's lock for the duration of the callback.
//
// Template keys are compared case-insensitively everywhere in this package.
package output

// Package postexporters contains refinement units. They run after the merge,
// in parallel with each other, and may only amend items that already exist
// in the dataset.
package postexporters

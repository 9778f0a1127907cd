// Package unique assigns collision-free keys to values derived from
// independent inputs.
//
// A Resolver derives a key from each new input with a transform function.
// When the derived key is already owned by a different input, a mutate
// function is applied repeatedly until a free key is found. The mapping is
// then remembered, so resolving the same input again returns the same key.
//
// # Usage
//
//	r := unique.New(path.Base, func(s string) string { return s + "_" })
//	name, isNew := r.Resolve("Game/UI/Icons/T_Icon.uasset")
package unique

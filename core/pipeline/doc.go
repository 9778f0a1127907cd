// Package pipeline runs an export: it provisions the asset source, lets every
// extraction unit declare interest in the file index, runs the units in
// parallel against private buffers, merges the buffers in registration order,
// runs the refinement units and writes the artifacts.
//
// # Stages
//
// Each stage starts only after the previous one has finished:
//
//  1. Provision keys and mappings. Failure ends the run with StatusFatal.
//  2. Offer every eligible path to every extraction unit.
//  3. Run the selected extraction units concurrently, one buffer each.
//  4. Merge buffers into the Dataset, then apply display-name corrections.
//  5. Run refinement units concurrently against the Dataset.
//  6. Generate artifacts in order.
//  7. Log the sorted union of failed assets.
//
// A unit that fails or panics is logged and contributes an empty buffer;
// other units are unaffected. Cancelling the context ends the run with
// StatusCancelled; with Options.Staging set, artifacts generated before the
// cancellation are discarded instead of committed.
//
// # Usage
//
//	result := pipeline.New(pipeline.Options{
//		Logger:        log,
//		Source:        src,
//		Provisioner:   provision.NewServiceFromConfig(log, cfg.Provision),
//		Exporters:     exporters.All(ectx),
//		PostExporters: postexporters,
//		Artifacts:     artifacts,
//	}).Run(ctx)
//	os.Exit(result.ExitCode())
package pipeline

// Package config provides configuration management for the exporter.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional .env file and an optional config.yaml. Defaults come from the
// `default` struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Log, Tracing: observability
//   - Storage, Database: object store and run ledger connections
//   - Game, Provision: where assets come from and how they are unlocked
//   - Performance, Scope: per-unit parallelism, unit selection and limits
//   - Images, Output: refinement and artifact destinations
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Performance.MaxParallelism)
package config

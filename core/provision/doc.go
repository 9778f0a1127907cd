// Package provision obtains the decryption keys and type mappings an asset
// source needs before any package can be read.
//
// Key providers are tried in order and the first one that answers wins; a
// successful answer is written to an optional KeyCache so later runs can use
// it offline. If keys or mappings cannot be obtained, the whole attempt is
// retried once after a fixed delay. A second failure is reported as
// ErrUnavailable, which the orchestrator treats as fatal.
//
// # Usage
//
//	svc := provision.NewService(log, provision.Options{
//		KeyProviders: []provision.KeyProvider{
//			provision.NewHTTPKeyProvider("https://example.invalid/v2/aes", 10*time.Second),
//			provision.NewFileKeyProvider("keys.yaml"),
//		},
//		Cache:      provision.NewFileKeyCache("keys.yaml"),
//		Mappings:   provision.NewFileMappingsProvider("mappings.yaml"),
//		RetryDelay: 5 * time.Second,
//	})
//	bundle, err := svc.Acquire(ctx)
package provision

package assets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"asset-exporter/core/provision"
)

// Source is a read-only asset store.
type Source interface {
	// Files returns every indexed asset path in lexical order.
	Files() []string
	// Has reports whether path is indexed.
	Has(path string) bool
	// Load reads and decodes the package at path.
	Load(ctx context.Context, path string) (*Package, error)
}

// Stats are load counters reported by caching sources.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// index maps normalized paths to their original spelling.
type index struct {
	files []string
	byKey map[string]string
}

func newIndex(paths []string) index {
	ix := index{byKey: make(map[string]string, len(paths))}
	for _, p := range paths {
		key := NormalizePath(p)
		if _, dup := ix.byKey[key]; dup {
			continue
		}
		ix.byKey[key] = p
		ix.files = append(ix.files, p)
	}
	sort.Strings(ix.files)
	return ix
}

func (ix index) Files() []string {
	return append([]string(nil), ix.files...)
}

func (ix index) Has(path string) bool {
	_, ok := ix.byKey[NormalizePath(path)]
	return ok
}

func (ix index) lookup(path string) (string, error) {
	p, ok := ix.byKey[NormalizePath(path)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return p, nil
}

// keyring tracks mounted decryption keys.
type keyring struct {
	mu   sync.RWMutex
	keys map[string]string
}

// Mount registers the keys of a provisioning bundle.
func (k *keyring) Mount(b *provision.Bundle) error {
	if b == nil || b.Keys == nil {
		return fmt.Errorf("mount: bundle has no keys")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys == nil {
		k.keys = make(map[string]string)
	}
	for guid, key := range b.Keys.ByGUID() {
		k.keys[guid] = key
	}
	return nil
}

func (k *keyring) check(pkg *Package) error {
	if pkg.EncryptionKeyGuid == "" {
		return nil
	}
	guid := provision.NormalizeGUID(pkg.EncryptionKeyGuid)
	k.mu.RLock()
	_, ok := k.keys[guid]
	k.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s needs key %s", ErrEncrypted, pkg.Path, pkg.EncryptionKeyGuid)
	}
	return nil
}

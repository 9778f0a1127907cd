package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads package documents from a directory tree.
type DirSource struct {
	keyring
	root string
	ix   index
}

// NewDirSource indexes every asset file under root.
func NewDirSource(root string) (*DirSource, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAssetFile(p) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", root, err)
	}
	return &DirSource{root: root, ix: newIndex(paths)}, nil
}

func (s *DirSource) Files() []string { return s.ix.Files() }

func (s *DirSource) Has(path string) bool { return s.ix.Has(path) }

func (s *DirSource) Load(ctx context.Context, path string) (*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := s.ix.lookup(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	pkg, err := decodePackage(data, rel)
	if err != nil {
		return nil, err
	}
	if err := s.check(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

type archiveDoc struct {
	Files map[string]json.RawMessage `json:"files"`
}

// ArchiveSource serves packages from a zstd-compressed bundle held in memory.
type ArchiveSource struct {
	keyring
	ix    index
	files map[string]json.RawMessage
}

// OpenArchive reads the bundle at path.
func OpenArchive(path string) (*ArchiveSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()
	return ReadArchive(f)
}

// ReadArchive decodes a bundle from r.
func ReadArchive(r io.Reader) (*ArchiveSource, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var doc archiveDoc
	if err := json.NewDecoder(dec).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}

	paths := make([]string, 0, len(doc.Files))
	for p := range doc.Files {
		if IsAssetFile(p) {
			paths = append(paths, p)
		}
	}
	return &ArchiveSource{ix: newIndex(paths), files: doc.Files}, nil
}

func (s *ArchiveSource) Files() []string { return s.ix.Files() }

func (s *ArchiveSource) Has(path string) bool { return s.ix.Has(path) }

func (s *ArchiveSource) Load(ctx context.Context, path string) (*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.ix.lookup(path)
	if err != nil {
		return nil, err
	}
	pkg, err := decodePackage(s.files[p], p)
	if err != nil {
		return nil, err
	}
	if err := s.check(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// WriteArchive writes files (path -> package document) as a bundle.
func WriteArchive(w io.Writer, files map[string][]byte) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	doc := archiveDoc{Files: make(map[string]json.RawMessage, len(files))}
	for p, data := range files {
		if !json.Valid(data) {
			enc.Close()
			return fmt.Errorf("package %s is not valid JSON", p)
		}
		doc.Files[p] = data
	}
	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return enc.Close()
}

// PackDir bundles every asset file under dir into w and returns the number
// of packages written.
func PackDir(ctx context.Context, dir string, w io.Writer) (int, error) {
	src, err := NewDirSource(dir)
	if err != nil {
		return 0, err
	}
	files := make(map[string][]byte)
	for _, p := range src.Files() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files[p] = data
	}
	if err := WriteArchive(w, files); err != nil {
		return 0, err
	}
	return len(files), nil
}

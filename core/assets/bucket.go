package assets

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"asset-exporter/core/storage"
)

// BucketSource reads package documents stored as objects under a prefix.
type BucketSource struct {
	keyring
	client storage.Client
	bucket string
	prefix string
	ix     index
}

// NewBucketSource lists every asset object under prefix.
func NewBucketSource(ctx context.Context, client storage.Client, bucket, prefix string) (*BucketSource, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var paths []string
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, obj.Err)
		}
		rel := strings.TrimPrefix(obj.Key, prefix)
		if IsAssetFile(rel) {
			paths = append(paths, rel)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &BucketSource{client: client, bucket: bucket, prefix: prefix, ix: newIndex(paths)}, nil
}

func (s *BucketSource) Files() []string { return s.ix.Files() }

func (s *BucketSource) Has(path string) bool { return s.ix.Has(path) }

func (s *BucketSource) Load(ctx context.Context, path string) (*Package, error) {
	rel, err := s.ix.lookup(path)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.prefix+rel, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(err, rel)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, notFound(err, rel)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
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

func notFound(err error, path string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("failed to fetch %s: %w", path, err)
}

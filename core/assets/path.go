package assets

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Recognized container extensions.
const (
	ExtAsset = ".uasset"
	ExtBin   = ".bin"
)

// IsAssetFile reports whether p has a recognized container extension.
func IsAssetFile(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ExtAsset || ext == ExtBin
}

// NormalizePath converts p to the slash-separated, case-folded form used for
// index lookups.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.ToLower(strings.TrimPrefix(p, "/"))
}

// TrimExtension removes the file extension of p.
func TrimExtension(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// NameWithoutExtension returns the base name of p without its extension.
func NameWithoutExtension(p string) string {
	return TrimExtension(path.Base(strings.ReplaceAll(p, "\\", "/")))
}

// SplitObjectPath splits an object reference such as
// "/Game/UI/Icons/T_Icon.T_Icon" into its package path and object name. When
// the reference has no object part the package base name is used.
func SplitObjectPath(ref string) (pkgPath, objectName string) {
	ref = strings.TrimPrefix(strings.ReplaceAll(ref, "\\", "/"), "/")
	dir, base := path.Split(ref)
	if name, obj, ok := strings.Cut(base, "."); ok && !IsAssetFile(base) {
		return dir + name, obj
	}
	pkgPath = TrimExtension(ref)
	return pkgPath, path.Base(pkgPath)
}

// ResolvePath finds the indexed file for an object reference, trying the
// reference as is, then with each recognized extension.
func ResolvePath(src Source, ref string) (string, bool) {
	pkgPath, _ := SplitObjectPath(ref)
	for _, candidate := range []string{ref, pkgPath, pkgPath + ExtAsset, pkgPath + ExtBin} {
		if src.Has(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// LoadObject loads the package behind ref and returns the referenced export.
func LoadObject(ctx context.Context, src Source, ref string) (*Object, error) {
	p, ok := ResolvePath(src, ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	pkg, err := src.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	_, objectName := SplitObjectPath(ref)
	obj, ok := pkg.Export(objectName)
	if !ok {
		return nil, fmt.Errorf("%w: export %s in %s", ErrNotFound, objectName, p)
	}
	return obj, nil
}

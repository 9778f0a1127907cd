package artifacts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ImageMode controls what CopyImages does with exported image files.
type ImageMode string

const (
	ImagesIgnore ImageMode = "ignore"
	ImagesCopy   ImageMode = "copy"
	ImagesMove   ImageMode = "move"
)

// ParseImageMode validates an image mode name.
func ParseImageMode(s string) (ImageMode, error) {
	switch m := ImageMode(s); m {
	case ImagesIgnore, ImagesCopy, ImagesMove:
		return m, nil
	}
	return "", fmt.Errorf("unknown image mode %q (want ignore, copy or move)", s)
}

// CopyImages copies or moves the files of srcDir into dstDir. A destination
// file that is at least as new as its source is left alone. It returns the
// number of files transferred.
func CopyImages(srcDir, dstDir string, mode ImageMode, log *zap.Logger) (int, error) {
	if mode == ImagesIgnore {
		return 0, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(srcDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		dst := filepath.Join(dstDir, e.Name())

		srcInfo, err := e.Info()
		if err != nil {
			return n, err
		}
		if dstInfo, err := os.Stat(dst); err == nil {
			if !dstInfo.ModTime().Before(srcInfo.ModTime()) {
				continue
			}
			if err := os.Remove(dst); err != nil {
				return n, err
			}
		}

		if mode == ImagesMove {
			err = os.Rename(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return n, fmt.Errorf("%s %s: %w", mode, e.Name(), err)
		}
		log.Debug("Transferred image", zap.String("mode", string(mode)), zap.String("file", e.Name()))
		n++
	}
	return n, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

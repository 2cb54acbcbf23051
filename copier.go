package copyexamplegen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sync"

	"github.com/bcongdon/copyexamplegen/internal/pkg/corfs"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// ErrDestinationExists is returned under ErrorOnExisting when a copy would
// replace a file
var ErrDestinationExists = errors.New("destination file already exists")

// resolver returns the FileSystem that serves location
type resolver func(location string) (corfs.FileSystem, error)

// newCachingResolver infers file systems from location schemes and reuses
// one instance per FileSystemType, so copies within S3 stay server-side.
func newCachingResolver() resolver {
	var mu sync.Mutex
	fileSystems := make(map[corfs.FileSystemType]corfs.FileSystem)

	return func(location string) (corfs.FileSystem, error) {
		fsType := corfs.InferFilesystemType(location)

		mu.Lock()
		defer mu.Unlock()
		if fileSys, ok := fileSystems[fsType]; ok {
			return fileSys, nil
		}
		fileSys, err := corfs.InitFilesystem(fsType)
		if err != nil {
			return nil, err
		}
		fileSystems[fsType] = fileSys
		return fileSys, nil
	}
}

// copier copies the example files of one split location into another
type copier struct {
	suffix    string
	overwrite OverwritePolicy
	resolve   resolver
	log       log.FieldLogger
}

// copyResult summarizes a copyExamples call
type copyResult struct {
	Copied  int
	Skipped int
	Bytes   int64
}

func baseName(name string) string {
	return path.Base(filepath.ToSlash(name))
}

// samePath reports whether a and b name the same file. Local paths are
// compared in absolute form.
func samePath(a, b string) bool {
	if corfs.InferFilesystemType(a) == corfs.Local {
		if abs, err := filepath.Abs(a); err == nil {
			a = abs
		}
		if abs, err := filepath.Abs(b); err == nil {
			b = abs
		}
	}
	return path.Clean(filepath.ToSlash(a)) == path.Clean(filepath.ToSlash(b))
}

// copyExamples copies every file directly inside srcURI whose name ends in
// the copier's suffix into dstURI, keeping file names. A source without
// matching files is logged and is not an error.
func (c *copier) copyExamples(ctx context.Context, srcURI, dstURI string) (copyResult, error) {
	var result copyResult

	srcFS, err := c.resolve(srcURI)
	if err != nil {
		return result, err
	}
	dstFS, err := c.resolve(dstURI)
	if err != nil {
		return result, err
	}

	files, err := srcFS.ListFiles(srcFS.Join(srcURI, "*"+c.suffix))
	if err != nil {
		return result, fmt.Errorf("listing %s: %w", srcURI, err)
	}
	if len(files) == 0 {
		c.log.Warnf("Directory %s does not contain files with %s suffix.", srcURI, c.suffix)
		return result, nil
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		dst := dstFS.Join(dstURI, baseName(file.Name))
		// Copying a file onto itself would truncate it before it is read.
		if srcFS == dstFS && samePath(file.Name, dst) {
			c.log.Infof("Leaving %s in place, source and destination are the same file", file.Name)
			result.Skipped++
			continue
		}
		if c.overwrite != OverwriteExisting {
			_, err := dstFS.Stat(dst)
			switch {
			case err == nil && c.overwrite == SkipExisting:
				c.log.Debugf("Skipping %s, %s already exists", file.Name, dst)
				result.Skipped++
				continue
			case err == nil:
				return result, fmt.Errorf("copying %s: %w: %s", file.Name, ErrDestinationExists, dst)
			case !errors.Is(err, fs.ErrNotExist):
				return result, fmt.Errorf("checking %s: %w", dst, err)
			}
		}

		n, err := corfs.Copy(srcFS, file.Name, dstFS, dst)
		if err != nil {
			return result, fmt.Errorf("copying %s to %s: %w", file.Name, dst, err)
		}
		c.log.Debugf("Copied %s to %s", file.Name, dst)
		result.Copied++
		result.Bytes += n
	}

	c.log.Infof("Copied %d files (%s) from %s to %s", result.Copied, humanize.Bytes(uint64(result.Bytes)), srcURI, dstURI)
	if result.Skipped > 0 {
		c.log.Infof("Skipped %d existing files in %s", result.Skipped, dstURI)
	}
	return result, nil
}

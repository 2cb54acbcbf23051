package corfs

import (
	"fmt"
	"io"
	"strings"
)

// FileSystemType is an identifier for supported FileSystems
type FileSystemType int

// Identifiers for supported FileSystemTypes
const (
	Local FileSystemType = iota
	S3
)

// FileSystem provides the storage backend for example copies.
// Split sources are listed and read from a file system, and the output
// artifact is written to one.
// This is abstracted to allow remote filesystems like S3 to be supported.
type FileSystem interface {
	ListFiles(pathGlob string) ([]FileInfo, error)
	Stat(filePath string) (FileInfo, error)
	OpenReader(filePath string, startAt int64) (io.ReadCloser, error)
	OpenWriter(filePath string) (io.WriteCloser, error)
	MkdirAll(dirPath string) error
	Delete(filePath string) error
	Join(elem ...string) string
	Init() error
}

// FileInfo provides information about a file
type FileInfo struct {
	Name string // file path
	Size int64  // file size in bytes
}

// aborter is implemented by writers that can discard what was written
// instead of publishing it on Close.
type aborter interface {
	Abort() error
}

// serverSideCopier is implemented by file systems that can copy between
// two of their own paths without streaming the data through this process.
type serverSideCopier interface {
	copyObject(srcPath, dstPath string) (int64, error)
}

// InitFilesystem intializes a filesystem of the given type
func InitFilesystem(fsType FileSystemType) (FileSystem, error) {
	var fs FileSystem
	switch fsType {
	case Local:
		fs = &LocalFileSystem{}
	case S3:
		fs = &S3FileSystem{}
	default:
		return nil, fmt.Errorf("unknown filesystem type: %d", fsType)
	}

	if err := fs.Init(); err != nil {
		return nil, err
	}
	return fs, nil
}

// InferFilesystemType returns the FileSystemType that serves location
func InferFilesystemType(location string) FileSystemType {
	if strings.HasPrefix(location, "s3://") {
		return S3
	}
	return Local
}

// Copy copies srcPath on src to dstPath on dst and returns the number of
// bytes copied. An existing destination is truncated. If reading or writing
// fails, no partial file is left at dstPath.
func Copy(src FileSystem, srcPath string, dst FileSystem, dstPath string) (int64, error) {
	if src == dst {
		if c, ok := src.(serverSideCopier); ok {
			return c.copyObject(srcPath, dstPath)
		}
	}

	reader, err := src.OpenReader(srcPath, 0)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	writer, err := dst.OpenWriter(dstPath)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(writer, reader)
	if err != nil {
		discardPartial(dst, dstPath, writer)
		return n, err
	}
	// Remote writers flush on close, so its error is the upload error.
	return n, writer.Close()
}

func discardPartial(dst FileSystem, dstPath string, writer io.WriteCloser) {
	if a, ok := writer.(aborter); ok {
		a.Abort()
		return
	}
	writer.Close()
	dst.Delete(dstPath)
}

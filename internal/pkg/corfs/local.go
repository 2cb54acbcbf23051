package corfs

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// LocalFileSystem is a FileSystem backed by the local disk
type LocalFileSystem struct{}

// ListFiles returns the regular files matching pathGlob. If pathGlob names a
// directory, the files directly inside it are returned. Subdirectories are
// never descended into.
func (l *LocalFileSystem) ListFiles(pathGlob string) ([]FileInfo, error) {
	if fInfo, err := os.Stat(pathGlob); err == nil && fInfo.IsDir() {
		pathGlob = filepath.Join(pathGlob, "*")
	}

	globbedFiles, err := filepath.Glob(pathGlob)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(globbedFiles))
	for _, fileName := range globbedFiles {
		fInfo, err := os.Stat(fileName)
		if err != nil {
			log.Error(err)
			continue
		}
		if fInfo.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Name: fileName,
			Size: fInfo.Size(),
		})
	}

	return files, nil
}

func (l *LocalFileSystem) OpenReader(filePath string, startAt int64) (io.ReadCloser, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0600)
	if err != nil {
		return nil, err
	}
	if _, err = file.Seek(startAt, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// OpenWriter truncates or creates filePath, creating missing parent directories
func (l *LocalFileSystem) OpenWriter(filePath string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

func (l *LocalFileSystem) Stat(filePath string) (FileInfo, error) {
	fInfo, err := os.Stat(filePath)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name: filePath,
		Size: fInfo.Size(),
	}, nil
}

func (l *LocalFileSystem) MkdirAll(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

func (l *LocalFileSystem) Delete(filePath string) error {
	return os.Remove(filePath)
}

func (l *LocalFileSystem) Init() error {
	return nil
}

func (l *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

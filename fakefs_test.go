package copyexamplegen

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bcongdon/copyexamplegen/internal/pkg/corfs"
)

// memFileSystem is an in-memory corfs.FileSystem. Writes under a path in
// failWrites fail with the mapped error.
type memFileSystem struct {
	mu         sync.Mutex
	files      map[string][]byte
	dirs       map[string]bool
	failWrites map[string]error
}

func newMemFileSystem() *memFileSystem {
	return &memFileSystem{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		failWrites: make(map[string]error),
	}
}

func (m *memFileSystem) put(name, contents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = []byte(contents)
}

func (m *memFileSystem) contents(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.files[name]
	return string(body), ok
}

func (m *memFileSystem) filesUnder(dir string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0)
	for name := range m.files {
		if strings.HasPrefix(name, dir+"/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *memFileSystem) ListFiles(pathGlob string) ([]corfs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]corfs.FileInfo, 0)
	for name, body := range m.files {
		matched, err := path.Match(pathGlob, name)
		if err != nil {
			return nil, err
		}
		if matched {
			files = append(files, corfs.FileInfo{Name: name, Size: int64(len(body))})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (m *memFileSystem) Stat(filePath string) (corfs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.files[filePath]
	if !ok {
		return corfs.FileInfo{}, fmt.Errorf("%s: %w", filePath, fs.ErrNotExist)
	}
	return corfs.FileInfo{Name: filePath, Size: int64(len(body))}, nil
}

func (m *memFileSystem) OpenReader(filePath string, startAt int64) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.files[filePath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filePath, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(body[startAt:])), nil
}

func (m *memFileSystem) OpenWriter(filePath string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for prefix, err := range m.failWrites {
		if strings.HasPrefix(filePath, prefix) {
			return nil, err
		}
	}
	return &memWriter{fs: m, name: filePath}, nil
}

func (m *memFileSystem) MkdirAll(dirPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[dirPath] = true
	return nil
}

func (m *memFileSystem) Delete(filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filePath)
	return nil
}

func (m *memFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

func (m *memFileSystem) Init() error {
	return nil
}

type memWriter struct {
	fs   *memFileSystem
	name string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.fs.put(w.name, w.buf.String())
	return nil
}

package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage. It is symlink-aware
// (Lstat reports links, Stat follows one level) and supports per-path error
// injection for failure tests.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*fileNode

	// Error injection: operations touching these paths fail
	errorPaths map[string]error
}

// fileNode represents a file, directory or symlink in memory
type fileNode struct {
	mode     fs.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
}

// NewMemoryFS creates a new in-memory filesystem with a root directory
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: map[string]*fileNode{
			"/": {mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true},
		},
		errorPaths: make(map[string]error),
	}
}

// InjectError makes any operation on path fail with err
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
}

func (m *MemoryFS) checkError(path string) error {
	if err, ok := m.errorPaths[filepath.Clean(path)]; ok {
		return err
	}
	return nil
}

func notExist(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

// memFileInfo adapts fileNode to fs.FileInfo
type memFileInfo struct {
	name string
	node *fileNode
}

func (i *memFileInfo) Name() string { return i.name }
func (i *memFileInfo) Size() int64  { return int64(len(i.node.content)) }
func (i *memFileInfo) Mode() fs.FileMode {
	if i.node.isLink {
		return i.node.mode | fs.ModeSymlink
	}
	return i.node.mode
}
func (i *memFileInfo) ModTime() time.Time { return i.node.modTime }
func (i *memFileInfo) IsDir() bool        { return i.node.isDir }
func (i *memFileInfo) Sys() interface{}   { return nil }

func (m *MemoryFS) get(path string) (*fileNode, bool) {
	node, ok := m.files[filepath.Clean(path)]
	return node, ok
}

// resolve follows symlinks up to a small depth
func (m *MemoryFS) resolve(path string) (*fileNode, bool) {
	path = filepath.Clean(path)
	for depth := 0; depth < 8; depth++ {
		node, ok := m.files[path]
		if !ok {
			return nil, false
		}
		if !node.isLink {
			return node, true
		}
		path = filepath.Clean(node.linkDest)
	}
	return nil, false
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(name); err != nil {
		return nil, err
	}
	node, ok := m.resolve(name)
	if !ok {
		return nil, notExist("stat", name)
	}
	return &memFileInfo{name: filepath.Base(name), node: node}, nil
}

func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(name); err != nil {
		return nil, err
	}
	node, ok := m.get(name)
	if !ok {
		return nil, notExist("lstat", name)
	}
	return &memFileInfo{name: filepath.Base(name), node: node}, nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(name); err != nil {
		return nil, err
	}
	node, ok := m.resolve(name)
	if !ok {
		return nil, notExist("open", name)
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(name); err != nil {
		return err
	}
	name = filepath.Clean(name)
	if parent, ok := m.files[filepath.Dir(name)]; !ok || !parent.isDir {
		return notExist("open", name)
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &fileNode{mode: perm, modTime: time.Now(), content: content}
	return nil
}

func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(path); err != nil {
		return err
	}
	path = filepath.Clean(path)
	var dirs []string
	for p := path; ; p = filepath.Dir(p) {
		dirs = append([]string{p}, dirs...)
		if p == filepath.Dir(p) {
			break
		}
	}
	for _, dir := range dirs {
		if node, ok := m.files[dir]; ok {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: dir, Err: fs.ErrExist}
			}
			continue
		}
		m.files[dir] = &fileNode{mode: perm | fs.ModeDir, modTime: time.Now(), isDir: true}
	}
	return nil
}

func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(newname); err != nil {
		return err
	}
	newname = filepath.Clean(newname)
	if _, ok := m.files[newname]; ok {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	if parent, ok := m.files[filepath.Dir(newname)]; !ok || !parent.isDir {
		return notExist("symlink", newname)
	}
	m.files[newname] = &fileNode{mode: 0777, modTime: time.Now(), isLink: true, linkDest: oldname}
	return nil
}

func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.get(name)
	if !ok {
		return "", notExist("readlink", name)
	}
	if !node.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return node.linkDest, nil
}

func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(name); err != nil {
		return err
	}
	name = filepath.Clean(name)
	node, ok := m.files[name]
	if !ok {
		return notExist("remove", name)
	}
	if node.isDir {
		prefix := name + string(filepath.Separator)
		for p := range m.files {
			if strings.HasPrefix(p, prefix) {
				return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
			}
		}
	}
	delete(m.files, name)
	return nil
}

func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(oldpath); err != nil {
		return err
	}
	if err := m.checkError(newpath); err != nil {
		return err
	}
	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	node, ok := m.files[oldpath]
	if !ok {
		return notExist("rename", oldpath)
	}
	if parent, ok := m.files[filepath.Dir(newpath)]; !ok || !parent.isDir {
		return notExist("rename", newpath)
	}
	delete(m.files, oldpath)
	m.files[newpath] = node
	return nil
}

func (m *MemoryFS) CreateExclusive(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(name); err != nil {
		return err
	}
	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	}
	if parent, ok := m.files[filepath.Dir(name)]; !ok || !parent.isDir {
		return notExist("open", name)
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &fileNode{mode: 0644, modTime: time.Now(), content: content}
	return nil
}

// Paths returns all paths currently in the filesystem, sorted. Handy for
// asserting no unexpected side effects in tests.
func (m *MemoryFS) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Exists reports whether a path exists (without following links)
func (m *MemoryFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.get(path)
	return ok
}

// IsLink reports whether path is a symlink and, if so, its destination
func (m *MemoryFS) IsLink(path string) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.get(path)
	if !ok || !node.isLink {
		return false, ""
	}
	return true, node.linkDest
}

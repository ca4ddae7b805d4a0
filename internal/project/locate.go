package project

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Locator searches a directory's ancestry for the config file.
type Locator struct {
	// Fs is the filesystem searched. Nil means the OS filesystem.
	Fs afero.Fs
	// Name is the config file name. Empty means DefaultFileName.
	Name string
	// IsMount reports whether dir is a mount point; the search never
	// crosses one. Nil means IsMountPoint.
	IsMount func(dir string) bool
}

// NewLocator returns a Locator over the OS filesystem.
func NewLocator(name string) Locator {
	return Locator{Fs: afero.NewOsFs(), Name: name, IsMount: IsMountPoint}
}

func (l Locator) fs() afero.Fs {
	if l.Fs == nil {
		return afero.NewOsFs()
	}
	return l.Fs
}

func (l Locator) name() string {
	if l.Name == "" {
		return DefaultFileName
	}
	return l.Name
}

// Locate returns the config file in startDir or its nearest ancestor.
// The walk ends at the first mount point (checked after the directory
// itself) or at the filesystem root.
func (l Locator) Locate(startDir string) (string, bool) {
	fs := l.fs()
	isMount := l.IsMount
	if isMount == nil {
		isMount = IsMountPoint
	}

	dir := filepath.Clean(startDir)
	for {
		candidate := filepath.Join(dir, l.name())
		if info, err := fs.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		if isMount(dir) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Loaded is a parsed config together with where it came from.
type Loaded struct {
	Path       string
	Config     *Config
	WorkingDir string
}

// Load reads and parses the config file at path.
func (l Locator) Load(path string) (*Loaded, error) {
	data, err := afero.ReadFile(l.fs(), path)
	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, newParseError(path, err)
	}
	return &Loaded{
		Path:       path,
		Config:     cfg,
		WorkingDir: WorkingDir(path, cfg.Cwd),
	}, nil
}

// Find locates and loads the config for startDir. It returns ErrNotFound
// when no file exists.
func (l Locator) Find(startDir string) (*Loaded, error) {
	path, ok := l.Locate(startDir)
	if !ok {
		return nil, ErrNotFound
	}
	return l.Load(path)
}

// WorkingDir is the config file's directory, joined with cwd when set. An
// absolute cwd replaces the directory.
func WorkingDir(configPath, cwd string) string {
	dir := filepath.Dir(configPath)
	if cwd == "" {
		return dir
	}
	if filepath.IsAbs(cwd) {
		return filepath.Clean(cwd)
	}
	return filepath.Join(dir, cwd)
}

// StartDir picks where the search begins: the buffer's directory, or the
// first project folder when the buffer has no file.
func StartDir(filePath string, folders []string) (string, bool) {
	if filePath != "" {
		return filepath.Dir(filePath), true
	}
	if len(folders) > 0 && folders[0] != "" {
		return folders[0], true
	}
	return "", false
}

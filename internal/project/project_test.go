package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func neverMount(string) bool { return false }

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "json literal",
			doc:  `{"session": "dev", "cwd": "src", "tabs": {"build": {"cmd": ["make", "make test"]}, "serve": {"cmd": ["npm start"]}}, "send": {"Python": "repl"}}`,
		},
		{
			name: "single quoted literal",
			doc:  `{'session': 'dev', 'cwd': 'src', 'tabs': {'build': {'cmd': ['make', 'make test']}, 'serve': {'cmd': ['npm start']}}, 'send': {'Python': 'repl'}}`,
		},
		{
			name: "block yaml",
			doc: `session: dev
cwd: src
tabs:
  build:
    cmd:
      - make
      - make test
  serve:
    cmd: ["npm start"]
send:
  Python: repl
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cfg.Session != "dev" {
				t.Errorf("Session = %q, want dev", cfg.Session)
			}
			if cfg.Cwd != "src" {
				t.Errorf("Cwd = %q, want src", cfg.Cwd)
			}
			if got := cfg.Tabs.Names(); !reflect.DeepEqual(got, []string{"build", "serve"}) {
				t.Errorf("task order = %q, want [build serve]", got)
			}
			build, ok := cfg.Tabs.Find("build")
			if !ok || !reflect.DeepEqual(build.Cmd, []string{"make", "make test"}) {
				t.Errorf("build task = %+v, %v", build, ok)
			}
			if cfg.Send["Python"] != "repl" {
				t.Errorf("Send[Python] = %q, want repl", cfg.Send["Python"])
			}
		})
	}
}

func TestParse_OnlySession(t *testing.T) {
	cfg, err := Parse([]byte(`{"session": "dev"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Tabs) != 0 || cfg.Send != nil || cfg.Cwd != "" {
		t.Errorf("expected optional fields empty, got %+v", cfg)
	}
	if _, ok := cfg.Tabs.Find("build"); ok {
		t.Error("Find on empty tasks should fail")
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"missing session", `{"tabs": {}}`},
		{"empty session", `{"session": ""}`},
		{"unknown key", `{"session": "dev", "tab": {}}`},
		{"syntax error", `{"session": "dev"`},
		{"tabs not mapping", `{"session": "dev", "tabs": ["build"]}`},
		{"cmd not list", `{"session": "dev", "tabs": {"build": {"cmd": {"a": 1}}}}`},
		{"duplicate task", "session: dev\ntabs:\n  build: {cmd: [a]}\n  build: {cmd: [b]}\n"},
		{"empty send target", `{"session": "dev", "send": {"Python": ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v does not match ErrMalformed", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Stack() == "" {
				t.Error("expected a captured stack")
			}
		})
	}
}

func TestLocate_NearestAncestorInclusive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/home/u/proj/.subl-zellij", `{"session": "outer"}`)
	writeFile(t, fs, "/home/u/proj/sub/.subl-zellij", `{"session": "inner"}`)
	if err := fs.MkdirAll("/home/u/proj/sub/deep/er", 0o755); err != nil {
		t.Fatal(err)
	}

	l := Locator{Fs: fs, IsMount: neverMount}
	tests := []struct {
		start string
		want  string
	}{
		{"/home/u/proj/sub/deep/er", "/home/u/proj/sub/.subl-zellij"},
		{"/home/u/proj/sub", "/home/u/proj/sub/.subl-zellij"},
		{"/home/u/proj", "/home/u/proj/.subl-zellij"},
	}
	for _, tt := range tests {
		got, ok := l.Locate(tt.start)
		if !ok || got != tt.want {
			t.Errorf("Locate(%q) = %q, %v; want %q", tt.start, got, ok, tt.want)
		}
	}
}

func TestLocate_NoneTerminatesAtRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/a/b/c", 0o755); err != nil {
		t.Fatal(err)
	}
	l := Locator{Fs: fs, IsMount: neverMount}

	for _, start := range []string{"/a/b/c", "/", "."} {
		if got, ok := l.Locate(start); ok {
			t.Errorf("Locate(%q) = %q, want not found", start, got)
		}
	}
}

func TestLocate_StopsAtMountBoundary(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/.subl-zellij", `{"session": "root"}`)
	if err := fs.MkdirAll("/mnt/data/proj", 0o755); err != nil {
		t.Fatal(err)
	}

	var visited []string
	l := Locator{Fs: fs, IsMount: func(dir string) bool {
		visited = append(visited, dir)
		return dir == "/mnt/data"
	}}

	if got, ok := l.Locate("/mnt/data/proj"); ok {
		t.Fatalf("Locate crossed the mount boundary and found %q", got)
	}
	if want := []string{"/mnt/data/proj", "/mnt/data"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %q, want %q", visited, want)
	}
}

func TestLocate_FileAtMountPointIsFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/mnt/data/.subl-zellij", `{"session": "m"}`)
	if err := fs.MkdirAll("/mnt/data/proj", 0o755); err != nil {
		t.Fatal(err)
	}
	l := Locator{Fs: fs, IsMount: func(dir string) bool { return dir == "/mnt/data" }}

	got, ok := l.Locate("/mnt/data/proj")
	if !ok || got != "/mnt/data/.subl-zellij" {
		t.Errorf("Locate = %q, %v", got, ok)
	}
}

func TestLocate_IgnoresDirectoryWithConfigName(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/p/.subl-zellij", 0o755); err != nil {
		t.Fatal(err)
	}
	l := Locator{Fs: fs, IsMount: neverMount}
	if _, ok := l.Locate("/p"); ok {
		t.Error("a directory named like the config must not match")
	}
}

func TestLocate_CustomName(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/.zj-link.yaml", `session: dev`)
	l := Locator{Fs: fs, Name: ".zj-link.yaml", IsMount: neverMount}
	if got, ok := l.Locate("/p"); !ok || got != "/p/.zj-link.yaml" {
		t.Errorf("Locate = %q, %v", got, ok)
	}
}

func TestLocate_RealFilesystem(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(cfgPath, []byte(`{"session": "tmp"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := NewLocator("").Locate(nested)
	if !ok || got != cfgPath {
		t.Errorf("Locate = %q, %v; want %q", got, ok, cfgPath)
	}
}

func TestLoad_WorkingDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/.subl-zellij", `{"session": "dev", "cwd": "backend"}`)
	writeFile(t, fs, "/q/.subl-zellij", `{"session": "dev"}`)
	l := Locator{Fs: fs, IsMount: neverMount}

	loaded, err := l.Find("/p")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if loaded.WorkingDir != "/p/backend" {
		t.Errorf("WorkingDir = %q, want /p/backend", loaded.WorkingDir)
	}
	if loaded.Path != "/p/.subl-zellij" {
		t.Errorf("Path = %q", loaded.Path)
	}

	loaded, err = l.Find("/q")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if loaded.WorkingDir != "/q" {
		t.Errorf("WorkingDir = %q, want /q", loaded.WorkingDir)
	}
}

func TestFind_NotFoundAndMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/bad/.subl-zellij", `{"cwd": "x"}`)
	if err := fs.MkdirAll("/empty", 0o755); err != nil {
		t.Fatal(err)
	}
	l := Locator{Fs: fs, IsMount: neverMount}

	if _, err := l.Find("/empty"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(/empty) error = %v, want ErrNotFound", err)
	}
	_, err := l.Find("/bad")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Find(/bad) error = %v, want ErrMalformed", err)
	}
	if !strings.Contains(err.Error(), "/bad/.subl-zellij") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestWorkingDir(t *testing.T) {
	tests := []struct {
		path, cwd, want string
	}{
		{"/p/.subl-zellij", "", "/p"},
		{"/p/.subl-zellij", "src", "/p/src"},
		{"/p/.subl-zellij", "../other", "/other"},
		{"/p/.subl-zellij", "/abs", "/abs"},
	}
	for _, tt := range tests {
		if got := WorkingDir(tt.path, tt.cwd); got != tt.want {
			t.Errorf("WorkingDir(%q, %q) = %q, want %q", tt.path, tt.cwd, got, tt.want)
		}
	}
}

func TestStartDir(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		folders []string
		want    string
		ok      bool
	}{
		{"file wins", "/p/src/main.go", []string{"/q"}, "/p/src", true},
		{"first folder", "", []string{"/q", "/r"}, "/q", true},
		{"nothing", "", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StartDir(tt.file, tt.folders)
			if got != tt.want || ok != tt.ok {
				t.Errorf("StartDir = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsMountPoint_Root(t *testing.T) {
	if !IsMountPoint("/") {
		t.Error("expected / to be a mount point")
	}
}

// Package project finds and parses the per-project zj-link config file.
//
// The file (".subl-zellij" by default) is a YAML document. YAML flow syntax
// is a superset of JSON, so literal dictionaries such as
//
//	{"session": "dev", "cwd": "src", "tabs": {"build": {"cmd": ["make"]}}, "send": {"Python": "repl"}}
//
// parse as-is, as do single-quoted keys and block-style YAML.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goerrors "github.com/go-errors/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in each ancestor directory.
const DefaultFileName = ".subl-zellij"

var (
	// ErrMalformed matches any parse or schema failure.
	ErrMalformed = errors.New("malformed project config")
	// ErrNotFound is returned when no config file exists up to the mount root.
	ErrNotFound = errors.New("project config not found")
)

// Config is a parsed project config.
type Config struct {
	// Session is the zellij session to activate. Required.
	Session string `yaml:"session"`
	// Cwd is joined with the config file's directory to form the task
	// working directory.
	Cwd string `yaml:"cwd"`
	// Tabs are the runnable tasks, in document order.
	Tabs Tasks `yaml:"tabs"`
	// Send maps an editor syntax name to the tab that receives its text.
	Send map[string]string `yaml:"send"`
}

// Task is a named list of shell command lines.
type Task struct {
	Name string
	Cmd  []string
}

// Tasks keeps document order, which a Go map would lose.
type Tasks []Task

type taskSpec struct {
	Cmd []string `yaml:"cmd"`
}

// UnmarshalYAML decodes a mapping of task name to {cmd: [...]}.
func (t *Tasks) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tabs must be a mapping of task name to {cmd: [...]}", value.Line)
	}
	tasks := make(Tasks, 0, len(value.Content)/2)
	seen := make(map[string]bool, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("line %d: duplicate task %q", value.Content[i].Line, name)
		}
		seen[name] = true

		var spec taskSpec
		if err := value.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("task %q: %w", name, err)
		}
		tasks = append(tasks, Task{Name: name, Cmd: spec.Cmd})
	}
	*t = tasks
	return nil
}

// Names returns the task names in order.
func (t Tasks) Names() []string {
	names := make([]string, len(t))
	for i, task := range t {
		names[i] = task.Name
	}
	return names
}

// Find returns the task with the given name.
func (t Tasks) Find(name string) (Task, bool) {
	for _, task := range t {
		if task.Name == name {
			return task, true
		}
	}
	return Task{}, false
}

// ParseError reports a malformed config. It matches ErrMalformed and keeps
// the stack of the point where parsing failed.
type ParseError struct {
	Path string
	err  *goerrors.Error
}

func newParseError(path string, err error) *ParseError {
	return &ParseError{Path: path, err: goerrors.Wrap(err, 2)}
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrMalformed, e.err.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrMalformed, e.Path, e.err.Err)
}

func (e *ParseError) Unwrap() error { return e.err.Err }

// Is makes errors.Is(err, ErrMalformed) true.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// Stack returns the formatted stack trace captured at the failure.
func (e *ParseError) Stack() string { return string(e.err.Stack()) }

// Parse decodes and validates a config document.
func Parse(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, newParseError("", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the schema rules YAML decoding cannot express.
func (c *Config) Validate() error {
	if c.Session == "" {
		return errors.New(`"session" is required`)
	}
	for _, task := range c.Tabs {
		if task.Name == "" {
			return errors.New("task names must not be empty")
		}
	}
	for syntax, tab := range c.Send {
		if tab == "" {
			return fmt.Errorf("send rule for %q has an empty tab name", syntax)
		}
	}
	return nil
}

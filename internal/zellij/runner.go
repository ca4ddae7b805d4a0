// Package zellij drives a zellij server through its command-line interface.
//
// The zellij argument grammar is treated as a fixed external protocol: this
// package only builds argument vectors and reads back newline-delimited
// text. Each call spawns one process and blocks until it exits.
package zellij

import (
	"bytes"
	"context"
	"os/exec"
)

// DefaultBinary is the executable name used when none is configured.
const DefaultBinary = "zellij"

// Runner executes the multiplexer binary with the given arguments.
// err is non-nil only when the process could not be run or exited non-zero;
// stdout and stderr are returned in both cases.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs the real zellij binary.
type ExecRunner struct {
	// Binary is the executable name or path. Empty means DefaultBinary.
	Binary string
}

// NewExecRunner returns a runner for the given binary.
func NewExecRunner(binary string) *ExecRunner {
	return &ExecRunner{Binary: binary}
}

// Run spawns the binary synchronously. There is no timeout beyond what ctx
// carries.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Package command runs external tools and reports their failures as
// wwan.ExternalToolErrors.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/mdlayher/wwan"
	"github.com/sirupsen/logrus"
)

// A Runner runs an external tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// A RunFunc adapts a function to a Runner.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run implements Runner.
func (fn RunFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return fn(ctx, name, args...)
}

// Exec is a Runner which executes processes on the local system.
type Exec struct {
	// Log receives a debug message for every invocation. Nil disables
	// logging.
	Log logrus.FieldLogger
}

var _ Runner = &Exec{}

// Run executes name with args and waits for it to exit. A non-zero exit
// status produces a *wwan.ExternalToolError carrying the process's standard
// error.
func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.Log != nil {
		e.Log.WithFields(logrus.Fields{
			"tool": name,
			"args": strings.Join(args, " "),
		}).Debug("running external tool")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &wwan.ExternalToolError{
			Tool:   name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

package wwan

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Errors returned when a Binding or a connection cannot be established.
var (
	// ErrNoNetworkPort indicates a modem exposes no network data port.
	ErrNoNetworkPort = errors.New("modem has no network data port")

	// ErrInterfaceNotFound indicates no kernel interface matches a modem's
	// network data port.
	ErrInterfaceNotFound = errors.New("no kernel interface matches network port")

	// ErrNoBearerAfterConnect indicates ModemManager reported a successful
	// connection but the modem holds no bearer.
	ErrNoBearerAfterConnect = errors.New("modem has no bearer after connect")

	// ErrBearerNotConnected indicates the bearer created by a connection is
	// not reported as connected.
	ErrBearerNotConnected = errors.New("bearer is not connected")

	// ErrNoBearerAddress indicates a connected bearer carries no IPv4 address.
	ErrNoBearerAddress = errors.New("bearer has no IPv4 address")

	// ErrAlreadyConnected indicates a connection was requested for a modem
	// which is already connected.
	ErrAlreadyConnected = errors.New("modem is already connected")

	// ErrInvalidInput indicates a request combines mutually exclusive options
	// or omits a required one.
	ErrInvalidInput = errors.New("invalid input")
)

// An ExternalToolError is returned when querying or commanding an external
// system fails, or when its output cannot be parsed.
type ExternalToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	s := e.Tool
	if len(e.Args) > 0 {
		s += " " + strings.Join(e.Args, " ")
	}
	s += ": " + e.Err.Error()
	if e.Stderr != "" {
		s += ": " + e.Stderr
	}

	return s
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// An OpError annotates an error returned by a Client operation with the
// operation's name and the selector it was invoked with.
type OpError struct {
	Op       string
	Selector string
	Err      error
}

func (e *OpError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %q: %v", e.Op, e.Selector, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// SelectorNotFound returns an error compatible with 'errors.Is(err,
// os.ErrNotExist)' which reports that no object of kind matches selector.
func SelectorNotFound(kind, selector string) error {
	return fmt.Errorf("%s %q not found: %w", kind, selector, os.ErrNotExist)
}

// PermissionDenied returns an error compatible with 'errors.Is(err,
// os.ErrPermission)' which reports that op requires elevated privileges.
func PermissionDenied(op string) error {
	return fmt.Errorf("%s requires root privileges: %w", op, os.ErrPermission)
}

// invalidInput wraps ErrInvalidInput with an explanation.
func invalidInput(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

// opError wraps err in an OpError unless err is nil.
func opError(op, selector string, err error) error {
	if err == nil {
		return nil
	}

	return &OpError{Op: op, Selector: selector, Err: err}
}

// Package mmdbus implements a wwan.Daemon which speaks to ModemManager over
// the D-Bus system bus.
package mmdbus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/mdlayher/wwan"
)

const (
	// Fixed service, object prefix, etc. for communicating with ModemManager.
	service    = "org.freedesktop.ModemManager1"
	baseObject = dbus.ObjectPath("/org/freedesktop/ModemManager1")

	// Well-known method names.
	methodGet               = "org.freedesktop.DBus.Properties.Get"
	methodGetAll            = "org.freedesktop.DBus.Properties.GetAll"
	methodGetManagedObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"

	// Well-known error names which map to Go error types.
	//
	// os.ErrNotExist
	unknownMethodError  = "org.freedesktop.DBus.Error.UnknownMethod"
	unknownObjectError  = "org.freedesktop.DBus.Error.UnknownObject"
	serviceUnknownError = "org.freedesktop.DBus.Error.ServiceUnknown"
	// os.ErrPermission
	unauthorizedError = "org.freedesktop.ModemManager1.Error.Core.Unauthorized"
)

// A Client allows control of ModemManager. It implements wwan.Daemon.
type Client struct {
	Version string

	// Functions which normally manipulate D-Bus but are also swappable for
	// tests.
	close  func() error
	call   callFunc
	get    getFunc
	getAll getAllFunc
}

var _ wwan.Daemon = &Client{}

// Dial dials a D-Bus connection to ModemManager and returns a Client. If the
// ModemManager service does not exist, an error compatible with 'errors.Is(err,
// os.ErrNotExist)' is returned.
func Dial(ctx context.Context) (*Client, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, &wwan.ExternalToolError{Tool: "dbus", Err: err}
	}

	return initClient(ctx, &Client{
		// Wrap the *dbus.Conn completely to abstract away all of the low-level
		// D-Bus logic for ease of unit testing.
		close:  conn.Close,
		call:   makeCall(conn),
		get:    makeGet(conn),
		getAll: makeGetAll(conn),
	})
}

// initClient verifies a Client can speak with ModemManager.
func initClient(ctx context.Context, c *Client) (*Client, error) {
	// See if MM is available on the system bus by querying its version.
	v, err := c.get(ctx, baseObject, interfacePath(), "Version")
	if err != nil {
		// If not, D-Bus indicates service unknown when MM doesn't exist.
		return nil, toNotExist(err, serviceUnknownError)
	}

	vp := newValueParser(v)
	c.Version = vp.String()
	if err := vp.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse ModemManager version: %v", err)
	}

	return c, nil
}

// Close closes the underlying D-Bus connection.
func (c *Client) Close() error { return c.close() }

// Modems returns the object paths of every modem exported by ModemManager,
// ordered by modem index.
func (c *Client) Modems(ctx context.Context) ([]string, error) {
	var objs map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := c.call(ctx, methodGetManagedObjects, baseObject, &objs); err != nil {
		return nil, toNotExist(err, serviceUnknownError)
	}

	modemIface := interfacePath("Modem")

	ids := make([]string, 0, len(objs))
	for op, ifaces := range objs {
		if _, ok := ifaces[modemIface]; !ok {
			continue
		}

		ids = append(ids, string(op))
	}

	// Map iteration order is random; present modems in index order.
	sort.Slice(ids, func(i, j int) bool {
		return pathLess(ids[i], ids[j])
	})

	return ids, nil
}

// pathLess orders object paths by their numeric index, falling back to
// lexical order.
func pathLess(a, b string) bool {
	ia, erra := strconv.Atoi(path.Base(a))
	ib, errb := strconv.Atoi(path.Base(b))
	if erra != nil || errb != nil || ia == ib {
		return a < b
	}

	return ia < ib
}

// resolvePath converts a modem or bearer identifier into an object path. An
// identifier is either an object path or the numeric index of an object of
// the given kind.
func resolvePath(kind, id string) (dbus.ObjectPath, error) {
	if strings.HasPrefix(id, "/") {
		op := dbus.ObjectPath(id)
		if !op.IsValid() {
			return "", wwan.SelectorNotFound(strings.ToLower(kind), id)
		}

		return op, nil
	}

	if _, err := strconv.Atoi(id); err != nil {
		return "", wwan.SelectorNotFound(strings.ToLower(kind), id)
	}

	return objectPath(kind, id), nil
}

// toNotExist converts a D-Bus error with one of the input names to a wrapped
// error containing os.ErrNotExist. If the error is not a dbus.Error or does
// not have a matching name, it returns the input error.
func toNotExist(err error, names ...string) error {
	var derr dbus.Error
	if !errors.As(err, &derr) {
		return err
	}

	for _, n := range names {
		if derr.Name == n {
			// Also return the input error which may have wrapped the
			// dbus.Error.
			return fmt.Errorf("not found: %v: %w", err, os.ErrNotExist)
		}
	}

	return err
}

// toPermission converts a D-Bus unauthorized error to a wrapped error
// containing os.ErrPermission. If the error is not a dbus.Error or does not
// have a matching name, it returns the input error.
func toPermission(err error) error {
	var derr dbus.Error
	if !errors.As(err, &derr) || derr.Name != unauthorizedError {
		return err
	}

	// Also return the input error which may have wrapped the dbus.Error.
	return fmt.Errorf("permission denied: %v: %w", err, os.ErrPermission)
}

// objectPath prepends its arguments with the base object path for ModemManager.
func objectPath(ss ...string) dbus.ObjectPath {
	p := dbus.ObjectPath(path.Join(
		// Prepend the base and join any further elements into one path.
		append([]string{string(baseObject)}, ss...)...,
	))

	// Since the paths in this program are effectively constant, they should
	// always be valid.
	if !p.IsValid() {
		panicf("mmdbus: bad D-Bus object path: %q", p)
	}

	return p
}

// interfacePath prepends its arguments with the base interface path for
// ModemManager.
func interfacePath(ss ...string) string {
	return strings.Join(append([]string{service}, ss...), ".")
}

// A callFunc is a function which calls a D-Bus method on an object. If out is
// nil, any return value is discarded.
type callFunc func(ctx context.Context, method string, op dbus.ObjectPath, out interface{}, args ...interface{}) error

// A getFunc is a function which fetches a D-Bus property from an object.
type getFunc func(ctx context.Context, op dbus.ObjectPath, iface, prop string) (dbus.Variant, error)

// A getAllFunc is a function which fetches all of an object's D-Bus properties.
type getAllFunc func(ctx context.Context, op dbus.ObjectPath, iface string) (map[string]dbus.Variant, error)

// makeCall produces a callFunc which call's a D-Bus method on an object.
func makeCall(c *dbus.Conn) callFunc {
	return func(ctx context.Context, method string, op dbus.ObjectPath, out interface{}, args ...interface{}) error {
		call := c.Object(service, op).CallWithContext(ctx, method, 0, args...)

		err := call.Err
		if err == nil && out != nil {
			err = call.Store(out)
		}
		if err != nil {
			return toolError(method, op, err)
		}

		return nil
	}
}

// makeGet produces a getFunc which can fetch an object's property from a D-Bus
// interface.
func makeGet(c *dbus.Conn) getFunc {
	// Adapt a getFunc using the more generic callFunc.
	call := makeCall(c)
	return func(ctx context.Context, op dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
		var out dbus.Variant
		if err := call(ctx, methodGet, op, &out, iface, prop); err != nil {
			return dbus.Variant{}, fmt.Errorf("failed to get property %q for %q: %w",
				prop, iface, err)
		}

		return out, nil
	}
}

// makeGetAll produces a getAllFunc which fetches all of an object's properties
// from a D-Bus interface.
func makeGetAll(c *dbus.Conn) getAllFunc {
	call := makeCall(c)
	return func(ctx context.Context, op dbus.ObjectPath, iface string) (map[string]dbus.Variant, error) {
		var out map[string]dbus.Variant
		if err := call(ctx, methodGetAll, op, &out, iface); err != nil {
			return nil, fmt.Errorf("failed to get all properties for %q: %w",
				iface, err)
		}

		return out, nil
	}
}

// toolError annotates a failed D-Bus call so callers can report which method
// and object failed. The dbus.Error remains reachable through errors.As.
func toolError(method string, op dbus.ObjectPath, err error) error {
	return &wwan.ExternalToolError{
		Tool: "dbus",
		Args: []string{method, string(op)},
		Err:  err,
	}
}

func panicf(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}

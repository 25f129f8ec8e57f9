package mmdbus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
	"github.com/mdlayher/wwan"
)

// Modem fetches a snapshot of the modem identified by an object path or
// index. If the modem does not exist, an error compatible with
// 'errors.Is(err, os.ErrNotExist)' is returned.
func (c *Client) Modem(ctx context.Context, id string) (*wwan.Modem, error) {
	op, err := resolvePath("Modem", id)
	if err != nil {
		return nil, err
	}

	// Fetch all the modem's properties from the base Modem interface.
	ps, err := c.getAll(ctx, op, interfacePath("Modem"))
	if err != nil {
		// Unknown method indicates that the modem doesn't exist.
		return nil, toNotExist(err, unknownMethodError, unknownObjectError)
	}

	m := &wwan.Modem{ID: string(op)}
	if err := parseModem(m, ps); err != nil {
		return nil, &wwan.ExternalToolError{
			Tool: "dbus",
			Args: []string{methodGetAll, string(op)},
			Err:  err,
		}
	}

	return m, nil
}

// Connect requests a data connection for the modem identified by id using
// apn. If permission is denied by D-Bus, an error compatible with
// 'errors.Is(err, os.ErrPermission)' is returned.
func (c *Client) Connect(ctx context.Context, id, apn string) error {
	op, err := resolvePath("Modem", id)
	if err != nil {
		return err
	}

	// The new bearer's path is returned, but callers re-read the modem to
	// observe it.
	var bearer dbus.ObjectPath
	err = c.call(
		ctx,
		interfacePath("Modem", "Simple", "Connect"),
		op,
		&bearer,
		map[string]dbus.Variant{"apn": dbus.MakeVariant(apn)},
	)
	if err != nil {
		return toPermission(toNotExist(err, unknownMethodError, unknownObjectError))
	}

	return nil
}

// Disconnect tears down every data connection of the modem identified by
// id. If permission is denied by D-Bus, an error compatible with
// 'errors.Is(err, os.ErrPermission)' is returned.
func (c *Client) Disconnect(ctx context.Context, id string) error {
	op, err := resolvePath("Modem", id)
	if err != nil {
		return err
	}

	err = c.call(
		ctx,
		interfacePath("Modem", "Simple", "Disconnect"),
		op,
		// No output, "/" selects all bearers.
		nil,
		dbus.ObjectPath("/"),
	)
	if err != nil {
		return toPermission(toNotExist(err, unknownMethodError, unknownObjectError))
	}

	return nil
}

// parseModem parses a properties map into the Modem's fields.
func parseModem(m *wwan.Modem, ps map[string]dbus.Variant) error {
	for k, v := range ps {
		// Parse every dbus.Variant as a well-typed value, or return an error
		// with vp.Err if the types don't match as expected.
		vp := newValueParser(v)
		switch k {
		case "Bearers":
			ops := vp.ObjectPaths()
			m.Bearers = make([]string, 0, len(ops))
			for _, op := range ops {
				m.Bearers = append(m.Bearers, string(op))
			}
		case "Device":
			m.Device = vp.String()
		case "Manufacturer":
			m.Manufacturer = vp.String()
		case "Model":
			m.Model = vp.String()
		case "Ports":
			ports := vp.Ports()
			m.Ports = make([]string, 0, len(ports))
			for _, p := range ports {
				m.Ports = append(m.Ports, p.String())
			}
		case "PrimaryPort":
			m.PrimaryPort = vp.String()
		case "State":
			raw := vp.Int()
			m.State = wwan.StateFromInt(raw)
			if m.State == wwan.StateUnrecognized {
				m.RawState = strconv.Itoa(raw)
			}
		}

		if err := vp.Err(); err != nil {
			return fmt.Errorf("error parsing %q: %v", k, err)
		}
	}

	return nil
}

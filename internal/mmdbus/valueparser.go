package mmdbus

import (
	"errors"
	"fmt"
	"net"

	"github.com/godbus/dbus/v5"
	"github.com/mdlayher/wwan"
)

// A valueParser parses well-typed values from an empty interface value.
//
// After each parsing operation, the caller must invoke the Err method to
// determine if any input could not be parsed as the specified type.
type valueParser struct {
	v   interface{}
	err error
}

// newValueParser constructs a valueParser from a dbus.Variant value.
func newValueParser(v dbus.Variant) *valueParser {
	return &valueParser{v: v.Value()}
}

// Err returns the current parsing error, if there is one.
func (vp *valueParser) Err() error { return vp.err }

// Bool parses the value as a bool.
func (vp *valueParser) Bool() bool {
	if vp.err != nil {
		return false
	}

	b, ok := vp.v.(bool)
	if !ok {
		vp.err = errors.New("value is not of type bool")
		return false
	}

	return b
}

// Int parses the value as an int. Any D-Bus integer type is accepted.
func (vp *valueParser) Int() int {
	if vp.err != nil {
		return 0
	}

	switch v := vp.v.(type) {
	case uint8:
		return int(v)
	case int16:
		return int(v)
	case uint16:
		return int(v)
	case int32:
		return int(v)
	case uint32:
		return int(v)
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case int:
		return v
	default:
		vp.err = fmt.Errorf("value of type %T is not an integer", vp.v)
		return 0
	}
}

// String parses the value as a string.
func (vp *valueParser) String() string {
	if vp.err != nil {
		return ""
	}

	s, ok := vp.v.(string)
	if !ok {
		vp.err = errors.New("value is not of type string")
		return ""
	}

	return s
}

// IP parses the value as a textual IP address.
func (vp *valueParser) IP() net.IP {
	s := vp.String()
	if vp.err != nil {
		return nil
	}

	ip := net.ParseIP(s)
	if ip == nil {
		vp.err = fmt.Errorf("value %q is not an IP address", s)
		return nil
	}

	return ip
}

// Mask parses the value as a prefix length for an address of the given
// number of bits.
func (vp *valueParser) Mask(bits int) net.IPMask {
	n := vp.Int()
	if vp.err != nil {
		return nil
	}

	m := net.CIDRMask(n, bits)
	if m == nil {
		vp.err = fmt.Errorf("value %d is not a valid /%d prefix length", n, bits)
		return nil
	}

	return m
}

// ObjectPaths parses the value as a slice of D-Bus object paths.
func (vp *valueParser) ObjectPaths() []dbus.ObjectPath {
	if vp.err != nil {
		return nil
	}

	ops, ok := vp.v.([]dbus.ObjectPath)
	if !ok {
		vp.err = errors.New("value is not of type []dbus.ObjectPath")
		return nil
	}

	return ops
}

// Ports parses the value as a slice of (name, type) modem ports.
func (vp *valueParser) Ports() []wwan.Port {
	if vp.err != nil {
		return nil
	}

	// Ports are a D-Bus array of structures, each holding a string name and
	// a uint32 type.
	vs, ok := vp.v.([][]interface{})
	if !ok {
		vp.err = errors.New("ports value is not of type [][]interface{}")
		return nil
	}

	ps := make([]wwan.Port, 0, len(vs))
	for _, v := range vs {
		if len(v) != 2 {
			vp.err = fmt.Errorf("port structure must have 2 elements, but got %d", len(v))
			return nil
		}

		name, ok := v[0].(string)
		if !ok {
			vp.err = errors.New("port name is not of type string")
			return nil
		}

		typ, ok := v[1].(uint32)
		if !ok {
			vp.err = errors.New("port type is not of type uint32")
			return nil
		}

		ps = append(ps, wwan.Port{
			Name: name,
			Type: wwan.PortTypeFromInt(int(typ)),
		})
	}

	return ps
}

// Properties parses the value as a D-Bus properties map.
func (vp *valueParser) Properties() map[string]dbus.Variant {
	if vp.err != nil {
		return nil
	}

	ps, ok := vp.v.(map[string]dbus.Variant)
	if !ok {
		vp.err = errors.New("value is not of type map[string]dbus.Variant")
		return nil
	}

	return ps
}

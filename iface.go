package wwan

import (
	"net"
	"strconv"
	"strings"
)

// An Interface is a point-in-time snapshot of a kernel network interface.
// Snapshots are not updated by mutating operations: fetch a new one to
// observe their effect.
type Interface struct {
	Index        int
	Name         string
	OperState    OperState
	LinkType     string
	HardwareAddr net.HardwareAddr
	MTU          int
	Addresses    []Address
}

// An Address is an IP address assigned to an Interface.
type Address struct {
	// Family is "inet" or "inet6".
	Family       string
	IP           net.IP
	PrefixLength int
}

// String returns the address in CIDR notation.
func (a Address) String() string {
	return a.IP.String() + "/" + strconv.Itoa(a.PrefixLength)
}

// FormatAddresses joins the addresses of an interface for display.
func (ifi *Interface) FormatAddresses() string {
	ss := make([]string, 0, len(ifi.Addresses))
	for _, a := range ifi.Addresses {
		ss = append(ss, a.String())
	}

	return strings.Join(ss, ", ")
}

// Interfaces is a snapshot of kernel network interfaces, in kernel
// enumeration order.
type Interfaces []Interface

// ByName returns the interface with the given name. An empty name never
// matches.
func (ifs Interfaces) ByName(name string) (*Interface, bool) {
	if name == "" {
		return nil, false
	}

	for i := range ifs {
		if ifs[i].Name == name {
			return &ifs[i], true
		}
	}

	return nil, false
}

// ByIndex returns the interface with the given index.
func (ifs Interfaces) ByIndex(index int) (*Interface, bool) {
	for i := range ifs {
		if ifs[i].Index == index {
			return &ifs[i], true
		}
	}

	return nil, false
}

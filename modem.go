package wwan

import (
	"net"
	"path"
	"strconv"
)

// A Modem is a point-in-time snapshot of a device controlled by ModemManager.
type Modem struct {
	// ID is the modem's D-Bus object path, such as
	// "/org/freedesktop/ModemManager1/Modem/0".
	ID string

	State State
	// RawState holds the state string as reported by ModemManager when State
	// is StateUnrecognized.
	RawState string

	Manufacturer string
	Model        string
	PrimaryPort  string
	Device       string

	// Bearers holds the D-Bus object paths of the modem's bearers.
	Bearers []string

	// Ports holds raw port descriptors such as "wwan0 (net)". Use ParsePorts
	// to classify them.
	Ports []string
}

// Index returns the numeric index of the modem, taken from the last element
// of its ID. It returns -1 if the ID carries no index.
func (m *Modem) Index() int {
	return pathIndex(m.ID)
}

// Connected reports whether the modem is connected.
func (m *Modem) Connected() bool { return m.State == StateConnected }

// NetName returns the name of the modem's network data port, or the empty
// string if it has none.
func (m *Modem) NetName() string { return ParsePorts(m.Ports).NetName() }

// A Bearer is a point-in-time snapshot of a modem's data session.
type Bearer struct {
	// ID is the bearer's D-Bus object path, such as
	// "/org/freedesktop/ModemManager1/Bearer/0".
	ID string

	Status BearerStatus
	// RawStatus holds the connection status as reported by ModemManager when
	// Status is BearerUnrecognized.
	RawStatus string

	// Interface is the kernel interface the bearer is bound to.
	Interface string

	IPv4 *IPConfig
}

// Index returns the numeric index of the bearer, taken from the last element
// of its ID. It returns -1 if the ID carries no index.
func (b *Bearer) Index() int {
	return pathIndex(b.ID)
}

// Connected reports whether the bearer is connected.
func (b *Bearer) Connected() bool { return b.Status == BearerConnected }

// A BearerIPMethod is the method a Bearer must use to obtain IP address
// configuration.
type BearerIPMethod int

// Possible BearerIPMethod values, taken from:
// https://www.freedesktop.org/software/ModemManager/api/latest/ModemManager-Flags-and-Enumerations.html#MMBearerIpMethod.
const (
	BearerIPMethodUnknown BearerIPMethod = iota
	BearerIPMethodPPP
	BearerIPMethodStatic
	BearerIPMethodDHCP
)

func (m BearerIPMethod) String() string {
	switch m {
	case BearerIPMethodPPP:
		return "ppp"
	case BearerIPMethodStatic:
		return "static"
	case BearerIPMethodDHCP:
		return "dhcp"
	default:
		return "unknown"
	}
}

// ParseBearerIPMethod parses an IP method as printed by mmcli.
func ParseBearerIPMethod(s string) BearerIPMethod {
	switch s {
	case "ppp":
		return BearerIPMethodPPP
	case "static":
		return BearerIPMethodStatic
	case "dhcp":
		return BearerIPMethodDHCP
	default:
		return BearerIPMethodUnknown
	}
}

// An IPConfig is a Bearer's IPv4 configuration.
type IPConfig struct {
	Address *net.IPNet
	DNS     []net.IP
	Gateway net.IP
	Method  BearerIPMethod
	MTU     int
}

// HostCIDR returns the configured address as a single-host prefix, such as
// "10.0.0.5/32", or the empty string if no address is configured.
func (c *IPConfig) HostCIDR() string {
	if c == nil || c.Address == nil || c.Address.IP == nil {
		return ""
	}

	ip := c.Address.IP
	bits := 128
	if ip4 := ip.To4(); ip4 != nil {
		ip, bits = ip4, 32
	}

	return (&net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}).String()
}

// pathIndex parses the last element of a D-Bus object path as an integer.
func pathIndex(p string) int {
	i, err := strconv.Atoi(path.Base(p))
	if err != nil {
		return -1
	}

	return i
}

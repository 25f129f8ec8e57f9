package wwan

import (
	"strconv"
	"strings"
)

// A PortType is the type of a modem port.
type PortType int

// Possible PortType values, taken from:
// https://www.freedesktop.org/software/ModemManager/api/latest/ModemManager-Flags-and-Enumerations.html#MMModemPortType.
const (
	PortTypeUnknown PortType = iota + 1
	PortTypeNet
	PortTypeAT
	PortTypeQCDM
	PortTypeGPS
	PortTypeQMI
	PortTypeMBIM
	PortTypeAudio
)

var portTypeNames = map[PortType]string{
	PortTypeUnknown: "unknown",
	PortTypeNet:     "net",
	PortTypeAT:      "at",
	PortTypeQCDM:    "qcdm",
	PortTypeGPS:     "gps",
	PortTypeQMI:     "qmi",
	PortTypeMBIM:    "mbim",
	PortTypeAudio:   "audio",
}

func (t PortType) String() string {
	if n, ok := portTypeNames[t]; ok {
		return n
	}

	return "PortType(" + strconv.Itoa(int(t)) + ")"
}

// PortTypeFromInt converts a raw ModemManager port type integer into a
// PortType.
func PortTypeFromInt(v int) PortType {
	t := PortType(v)
	if _, ok := portTypeNames[t]; !ok {
		return PortTypeUnknown
	}

	return t
}

// A PortClass is the role a port plays for network binding.
type PortClass int

// Possible PortClass values.
const (
	PortClassUnknown PortClass = iota
	PortClassNetworkData
	PortClassControlChannel
)

func (c PortClass) String() string {
	switch c {
	case PortClassNetworkData:
		return "network-data"
	case PortClassControlChannel:
		return "control-channel"
	default:
		return "unknown"
	}
}

// A Port is a modem port.
type Port struct {
	Name string
	Type PortType
}

// Class returns the port's classification.
func (p Port) Class() PortClass {
	switch p.Type {
	case PortTypeNet:
		return PortClassNetworkData
	case PortTypeAT, PortTypeQCDM, PortTypeQMI, PortTypeMBIM:
		return PortClassControlChannel
	default:
		return PortClassUnknown
	}
}

// String returns the port in descriptor form, such as "wwan0 (net)".
func (p Port) String() string {
	return p.Name + " (" + p.Type.String() + ")"
}

// ParsePort parses a port descriptor such as "wwan0 (net)". Unrecognized or
// missing kinds produce a port of PortTypeUnknown. ok is false if s holds no
// port name at all.
func ParsePort(s string) (p Port, ok bool) {
	fs := strings.Fields(s)
	if len(fs) == 0 {
		return Port{}, false
	}

	p = Port{Name: fs[0], Type: PortTypeUnknown}
	if len(fs) < 2 {
		return p, true
	}

	kind := fs[1]
	if !strings.HasPrefix(kind, "(") || !strings.HasSuffix(kind, ")") {
		return p, true
	}

	kind = kind[1 : len(kind)-1]
	for t, n := range portTypeNames {
		if n == kind {
			p.Type = t
			break
		}
	}

	return p, true
}

// Ports is an ordered list of modem ports.
type Ports []Port

// ParsePorts parses port descriptors in order, skipping blank entries.
func ParsePorts(ss []string) Ports {
	ps := make(Ports, 0, len(ss))
	for _, s := range ss {
		if p, ok := ParsePort(s); ok {
			ps = append(ps, p)
		}
	}

	return ps
}

// NetPort returns the first network data port.
func (ps Ports) NetPort() (Port, bool) {
	for _, p := range ps {
		if p.Class() == PortClassNetworkData {
			return p, true
		}
	}

	return Port{}, false
}

// NetName returns the name of the first network data port, or the empty
// string if there is none. Callers must check for the empty string before
// using the result as an interface selector.
func (ps Ports) NetName() string {
	p, _ := ps.NetPort()
	return p.Name
}

// ControlName returns the name of the port used to control the modem: the
// first MBIM or QMI port, or else the first control channel. It returns the
// empty string if there is none.
func (ps Ports) ControlName() string {
	var first string
	for _, p := range ps {
		if p.Type == PortTypeMBIM || p.Type == PortTypeQMI {
			return p.Name
		}
		if first == "" && p.Class() == PortClassControlChannel {
			first = p.Name
		}
	}

	return first
}

package wwan

// A ModemFilter selects Devices. Nil fields match any Device; set fields
// must all match.
type ModemFilter struct {
	// ID matches the index of the bound interface. Devices without a
	// Binding never match an ID.
	ID *int
	// Name matches the name of the bound interface.
	Name *string
	// State matches "connected" or "disconnected". Any other value matches
	// nothing.
	State *string
}

// Match reports whether d satisfies every criterion of f.
func (f ModemFilter) Match(d *Device) bool {
	if f.ID != nil && (d.Index == 0 || d.Index != *f.ID) {
		return false
	}
	if f.Name != nil && d.Name != *f.Name {
		return false
	}
	if f.State != nil {
		switch *f.State {
		case "connected":
			return d.Connected
		case "disconnected":
			return !d.Connected
		default:
			return false
		}
	}

	return true
}

// Filter returns the Devices matching f, in their original order.
func (f ModemFilter) Filter(ds []*Device) []*Device {
	out := make([]*Device, 0, len(ds))
	for _, d := range ds {
		if f.Match(d) {
			out = append(out, d)
		}
	}

	return out
}

// An InterfaceFilter selects Interfaces. Nil fields match any Interface; set
// fields must all match.
type InterfaceFilter struct {
	Index    *int
	Name     *string
	LinkType *string
}

// Match reports whether ifi satisfies every criterion of f.
func (f InterfaceFilter) Match(ifi *Interface) bool {
	if f.Index != nil && ifi.Index != *f.Index {
		return false
	}
	if f.Name != nil && ifi.Name != *f.Name {
		return false
	}
	if f.LinkType != nil && ifi.LinkType != *f.LinkType {
		return false
	}

	return true
}

// Filter returns the Interfaces matching f, in their original order.
func (f InterfaceFilter) Filter(ifs Interfaces) Interfaces {
	out := make(Interfaces, 0, len(ifs))
	for i := range ifs {
		if f.Match(&ifs[i]) {
			out = append(out, ifs[i])
		}
	}

	return out
}

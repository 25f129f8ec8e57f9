package wwan

import "fmt"

// A Binding associates a Modem with the kernel network interface driven by
// its network data port. Bindings are derived on demand and never stored.
type Binding struct {
	Modem     Modem
	Port      Port
	Interface Interface
}

// Resolve derives the Binding for m from a snapshot of kernel interfaces.
// Resolve does not perform any I/O.
//
// If m has no network data port, an error compatible with 'errors.Is(err,
// ErrNoNetworkPort)' is returned. If no interface matches that port's name,
// an error compatible with 'errors.Is(err, ErrInterfaceNotFound)' is
// returned.
func Resolve(m *Modem, ifs Interfaces) (*Binding, error) {
	port, ok := ParsePorts(m.Ports).NetPort()
	if !ok || port.Name == "" {
		return nil, fmt.Errorf("modem %s: %w", m.ID, ErrNoNetworkPort)
	}

	var match *Interface
	for i := range ifs {
		if ifs[i].Name != port.Name {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("port %q matches more than one interface: %w",
				port.Name, ErrInterfaceNotFound)
		}
		match = &ifs[i]
	}
	if match == nil {
		return nil, fmt.Errorf("port %q: %w", port.Name, ErrInterfaceNotFound)
	}

	return &Binding{
		Modem:     *m,
		Port:      port,
		Interface: *match,
	}, nil
}

package wwan

import (
	"context"
	"net"
)

// A Device is a modem joined with the kernel interface it is bound to, as
// shown by modem listings.
type Device struct {
	Modem Modem

	// Index and Name identify the bound kernel interface. Index is zero if
	// the modem has no Binding.
	Index int
	Name  string

	// Control is the name of the port used to control the modem.
	Control string

	// Addresses are assigned to the bound interface.
	Addresses []Address

	// SIMAddress is the IPv4 address the network assigned to the modem's
	// bearer, if any.
	SIMAddress net.IP

	Connected bool
}

// Devices fetches every modem known to ModemManager and joins each with its
// bound kernel interface. Modems without a Binding are listed with a zero
// Index.
func (c *Client) Devices(ctx context.Context) ([]*Device, error) {
	ds, err := c.devices(ctx)
	return ds, opError("list devices", "", err)
}

func (c *Client) devices(ctx context.Context) ([]*Device, error) {
	ms, err := c.modems(ctx)
	if err != nil {
		return nil, err
	}

	ifs, err := c.k.Interfaces(ctx)
	if err != nil {
		return nil, err
	}

	ds := make([]*Device, 0, len(ms))
	for _, m := range ms {
		d, err := c.device(ctx, m, ifs)
		if err != nil {
			return nil, err
		}

		ds = append(ds, d)
	}

	return ds, nil
}

// device builds a Device for m from a snapshot of kernel interfaces.
func (c *Client) device(ctx context.Context, m *Modem, ifs Interfaces) (*Device, error) {
	ports := ParsePorts(m.Ports)
	d := &Device{
		Modem:     *m,
		Name:      ports.NetName(),
		Control:   ports.ControlName(),
		Connected: m.Connected(),
	}

	if b, err := Resolve(m, ifs); err == nil {
		d.Index = b.Interface.Index
		d.Addresses = b.Interface.Addresses
	} else {
		c.log.WithError(err).WithField("modem", m.ID).Warn("modem has no binding")
	}

	for _, id := range m.Bearers {
		b, err := c.d.Bearer(ctx, id)
		if err != nil {
			return nil, err
		}

		if b.IPv4 != nil && b.IPv4.Address != nil && d.SIMAddress == nil {
			d.SIMAddress = b.IPv4.Address.IP
		}
	}

	return d, nil
}

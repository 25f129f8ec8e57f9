package wwan

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// A Request asks a Client to connect or disconnect a modem.
type Request struct {
	Connect    bool
	Disconnect bool

	// Modem selects the target modem. See Client.Connect.
	Modem string
	APN   string
}

// Validate reports an error compatible with 'errors.Is(err, ErrInvalidInput)'
// unless exactly one of r.Connect and r.Disconnect is set.
func (r Request) Validate() error {
	switch {
	case r.Connect && r.Disconnect:
		return opError("lte", r.Modem,
			invalidInput("cannot connect and disconnect at the same time"))
	case !r.Connect && !r.Disconnect:
		return opError("lte", r.Modem,
			invalidInput("one of connect or disconnect is required"))
	default:
		return nil
	}
}

// Run validates r and then connects or disconnects the selected modem. An
// invalid request is rejected before any other action is taken.
func (c *Client) Run(ctx context.Context, r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.Connect {
		return c.Connect(ctx, r.Modem, r.APN)
	}

	return c.Disconnect(ctx, r.Modem)
}

// Connect connects the modem identified by selector using apn, then assigns
// the bearer's IPv4 address to the bound interface, brings the interface up
// and installs a default route through it.
//
// The selector may be a modem object path, "0" or empty for modem 0, or the
// index or name of a modem's bound interface. Other numbers always select by
// interface index, matching the IDs shown by Client.Devices. If apn is
// empty, the Client's default APN is used.
//
// Connect requires root privileges; otherwise an error compatible with
// 'errors.Is(err, os.ErrPermission)' is returned before any action is taken.
// A modem which is already connected is refused with ErrAlreadyConnected.
// Steps already applied are not rolled back when a later step fails.
func (c *Client) Connect(ctx context.Context, selector, apn string) error {
	return opError("connect", selector, c.connect(ctx, selector, apn))
}

func (c *Client) connect(ctx context.Context, selector, apn string) error {
	if err := c.checkPrivilege("connect"); err != nil {
		return err
	}
	if apn == "" {
		apn = c.apn
	}

	m, err := c.modem(ctx, selector)
	if err != nil {
		return err
	}
	if m.Connected() {
		return fmt.Errorf("modem %s: %w", m.ID, ErrAlreadyConnected)
	}

	log := c.log.WithField("modem", m.ID)
	log.WithField("apn", apn).Debug("connecting modem")

	if err := c.d.Connect(ctx, m.ID, apn); err != nil {
		return fmt.Errorf("failed to connect modem: %w", err)
	}

	// Only trust the addressing of a bearer the daemon reports as connected.
	m, err = c.d.Modem(ctx, m.ID)
	if err != nil {
		return err
	}
	if len(m.Bearers) == 0 {
		return fmt.Errorf("modem %s: %w", m.ID, ErrNoBearerAfterConnect)
	}

	b, err := c.d.Bearer(ctx, m.Bearers[0])
	if err != nil {
		return err
	}
	if !b.Connected() {
		return fmt.Errorf("bearer %s: %w", b.ID, ErrBearerNotConnected)
	}

	cidr := b.IPv4.HostCIDR()
	if cidr == "" {
		return fmt.Errorf("bearer %s: %w", b.ID, ErrNoBearerAddress)
	}

	name := b.Interface
	if name == "" {
		name = m.NetName()
	}

	ifi, err := c.iface(ctx, name)
	if err != nil {
		return err
	}

	log = log.WithField("interface", ifi.Name)
	steps := []struct {
		name string
		fn   func() error
	}{
		{"flush addresses", func() error { return c.k.FlushAddresses(ctx, ifi.Name) }},
		{"add address " + cidr, func() error { return c.k.AddAddress(ctx, ifi.Name, cidr) }},
		{"set link up", func() error { return c.k.SetLinkState(ctx, ifi.Name, LinkUp) }},
		{"add default route", func() error { return c.k.AddDefaultRoute(ctx, ifi.Name, c.metric) }},
	}

	for _, s := range steps {
		log.WithField("step", s.name).Debug("configuring interface")
		if err := s.fn(); err != nil {
			return fmt.Errorf("failed to %s on %s: %w", s.name, ifi.Name, err)
		}
	}

	log.WithField("address", cidr).Info("modem connected")
	return nil
}

// Disconnect disconnects the modem identified by selector, then removes the
// default route and addresses from the bound interface and brings it down.
// Disconnecting a modem which is already disconnected is not an error, and a
// default route which is already absent is ignored.
//
// Disconnect requires root privileges; otherwise an error compatible with
// 'errors.Is(err, os.ErrPermission)' is returned before any action is taken.
func (c *Client) Disconnect(ctx context.Context, selector string) error {
	return opError("disconnect", selector, c.disconnect(ctx, selector))
}

func (c *Client) disconnect(ctx context.Context, selector string) error {
	if err := c.checkPrivilege("disconnect"); err != nil {
		return err
	}

	m, err := c.modem(ctx, selector)
	if err != nil {
		return err
	}

	log := c.log.WithField("modem", m.ID)
	log.Debug("disconnecting modem")

	if err := c.d.Disconnect(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to disconnect modem: %w", err)
	}

	// ModemManager may already have dropped the bearer, so the interface is
	// derived from the ports of the snapshot taken before disconnecting.
	ifi, err := c.iface(ctx, m.NetName())
	if err != nil {
		return err
	}

	log = log.WithField("interface", ifi.Name)

	log.WithField("step", "delete default route").Debug("tearing down interface")
	err = c.k.DeleteDefaultRoute(ctx, ifi.Name, c.metric)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug("default route already absent")
	case err != nil:
		return fmt.Errorf("failed to delete default route on %s: %w", ifi.Name, err)
	}

	log.WithField("step", "flush addresses").Debug("tearing down interface")
	if err := c.k.FlushAddresses(ctx, ifi.Name); err != nil {
		return fmt.Errorf("failed to flush addresses on %s: %w", ifi.Name, err)
	}

	log.WithField("step", "set link down").Debug("tearing down interface")
	if err := c.k.SetLinkState(ctx, ifi.Name, LinkDown); err != nil {
		return fmt.Errorf("failed to set link down on %s: %w", ifi.Name, err)
	}

	log.Info("modem disconnected")
	return nil
}

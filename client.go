package wwan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	// DefaultAPN is the access point name used when a connection request
	// does not name one.
	DefaultAPN = "cmnet"

	// DefaultRouteMetric is the metric of the default route installed
	// through a cellular interface. It is high enough not to preempt an
	// existing default route.
	DefaultRouteMetric = 200
)

// A Daemon queries and commands ModemManager. Modem and bearer identifiers
// are D-Bus object paths or their numeric indices.
type Daemon interface {
	Modems(ctx context.Context) ([]string, error)
	Modem(ctx context.Context, id string) (*Modem, error)
	Bearer(ctx context.Context, id string) (*Bearer, error)
	Connect(ctx context.Context, id, apn string) error
	Disconnect(ctx context.Context, id string) error
}

// A Kernel queries and commands kernel network interfaces. Implementations
// return errors compatible with 'errors.Is(err, os.ErrNotExist)' when an
// interface or route does not exist.
type Kernel interface {
	Interfaces(ctx context.Context) (Interfaces, error)
	Interface(ctx context.Context, name string) (*Interface, error)
	FlushAddresses(ctx context.Context, name string) error
	AddAddress(ctx context.Context, name, cidr string) error
	SetLinkState(ctx context.Context, name string, state LinkState) error
	AddDefaultRoute(ctx context.Context, name string, metric int) error
	DeleteDefaultRoute(ctx context.Context, name string, metric int) error
}

// Config configures a Client. The zero value is valid.
type Config struct {
	// APN is used when a connection request names none. Defaults to
	// DefaultAPN.
	APN string

	// RouteMetric is the metric of the default route installed on connect.
	// Defaults to DefaultRouteMetric.
	RouteMetric int

	// Logger receives progress messages. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger
}

// A Client binds modems to kernel interfaces and orchestrates their
// connections.
type Client struct {
	d      Daemon
	k      Kernel
	apn    string
	metric int
	log    logrus.FieldLogger

	// Swappable for tests.
	geteuid func() int
}

// NewClient creates a Client which queries ModemManager through d and the
// kernel through k.
func NewClient(d Daemon, k Kernel, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Client{
		d:       d,
		k:       k,
		apn:     cfg.APN,
		metric:  cfg.RouteMetric,
		log:     cfg.Logger,
		geteuid: unix.Geteuid,
	}

	if c.apn == "" {
		c.apn = DefaultAPN
	}
	if c.metric == 0 {
		c.metric = DefaultRouteMetric
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}

	return c
}

// Modems fetches a snapshot of every modem known to ModemManager, in
// enumeration order.
func (c *Client) Modems(ctx context.Context) ([]*Modem, error) {
	ms, err := c.modems(ctx)
	return ms, opError("list modems", "", err)
}

// Interfaces fetches a snapshot of every kernel network interface.
func (c *Client) Interfaces(ctx context.Context) (Interfaces, error) {
	ifs, err := c.k.Interfaces(ctx)
	return ifs, opError("list interfaces", "", err)
}

// Binding resolves the Binding of the modem identified by selector. See
// Connect for the accepted selectors.
func (c *Client) Binding(ctx context.Context, selector string) (*Binding, error) {
	b, err := c.binding(ctx, selector)
	return b, opError("resolve binding", selector, err)
}

func (c *Client) binding(ctx context.Context, selector string) (*Binding, error) {
	m, err := c.modem(ctx, selector)
	if err != nil {
		return nil, err
	}

	ifs, err := c.k.Interfaces(ctx)
	if err != nil {
		return nil, err
	}

	return Resolve(m, ifs)
}

func (c *Client) modems(ctx context.Context) ([]*Modem, error) {
	ids, err := c.d.Modems(ctx)
	if err != nil {
		return nil, err
	}

	ms := make([]*Modem, 0, len(ids))
	for _, id := range ids {
		m, err := c.d.Modem(ctx, id)
		if err != nil {
			return nil, err
		}

		ms = append(ms, m)
	}

	return ms, nil
}

// modem fetches the modem identified by selector:
//   - an empty selector or "0" selects modem 0
//   - a modem object path selects that modem
//   - any other number selects the modem bound to the interface with that
//     index, as shown by modem listings
//   - anything else selects the modem bound to the interface with that name
func (c *Client) modem(ctx context.Context, selector string) (*Modem, error) {
	if selector == "" {
		selector = "0"
	}

	ids, err := c.d.Modems(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if id == selector || (selector == "0" && path.Base(id) == selector) {
			return c.d.Modem(ctx, id)
		}
	}
	if selector == "0" || strings.HasPrefix(selector, "/") {
		return nil, SelectorNotFound("modem", selector)
	}

	// Not a modem identifier; look for a modem bound to a matching
	// interface instead.
	ms := make([]*Modem, 0, len(ids))
	for _, id := range ids {
		m, err := c.d.Modem(ctx, id)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}

	ifs, err := c.k.Interfaces(ctx)
	if err != nil {
		return nil, err
	}

	index, err := strconv.Atoi(selector)
	numeric := err == nil

	for _, m := range ms {
		b, err := Resolve(m, ifs)
		if err != nil {
			continue
		}

		if (numeric && b.Interface.Index == index) || (!numeric && b.Interface.Name == selector) {
			return m, nil
		}
	}

	return nil, SelectorNotFound("modem", selector)
}

// iface fetches the kernel interface named name, mapping a missing interface
// to ErrInterfaceNotFound.
func (c *Client) iface(ctx context.Context, name string) (*Interface, error) {
	if name == "" {
		return nil, ErrNoNetworkPort
	}

	ifi, err := c.k.Interface(ctx, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInterfaceNotFound, err)
		}

		return nil, err
	}

	return ifi, nil
}

// checkPrivilege verifies the caller may mutate kernel interfaces.
func (c *Client) checkPrivilege(op string) error {
	if c.geteuid() != 0 {
		return PermissionDenied(op)
	}

	return nil
}

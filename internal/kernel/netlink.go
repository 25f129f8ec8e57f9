// Package kernel implements wwan.Kernel backends which query and configure
// Linux network interfaces.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mdlayher/wwan"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// A netlinker abstracts the rtnetlink calls made by Netlink so they can be
// replaced in tests.
type netlinker interface {
	LinkList() ([]netlink.Link, error)
	LinkByName(name string) (netlink.Link, error)
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrAdd(link netlink.Link, addr *netlink.Addr) error
	AddrDel(link netlink.Link, addr *netlink.Addr) error
	RouteAdd(route *netlink.Route) error
	RouteDel(route *netlink.Route) error
}

// realNetlinker calls into the netlink package.
type realNetlinker struct{}

func (realNetlinker) LinkList() ([]netlink.Link, error)            { return netlink.LinkList() }
func (realNetlinker) LinkByName(name string) (netlink.Link, error) { return netlink.LinkByName(name) }
func (realNetlinker) LinkSetUp(link netlink.Link) error            { return netlink.LinkSetUp(link) }
func (realNetlinker) LinkSetDown(link netlink.Link) error          { return netlink.LinkSetDown(link) }
func (realNetlinker) RouteAdd(route *netlink.Route) error          { return netlink.RouteAdd(route) }
func (realNetlinker) RouteDel(route *netlink.Route) error          { return netlink.RouteDel(route) }

func (realNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return netlink.AddrList(link, family)
}

func (realNetlinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrAdd(link, addr)
}

func (realNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrDel(link, addr)
}

// Netlink is a wwan.Kernel which speaks rtnetlink directly.
type Netlink struct {
	nl  netlinker
	log logrus.FieldLogger
}

var _ wwan.Kernel = &Netlink{}

// NewNetlink creates a Netlink backend. A nil logger selects the logrus
// standard logger.
func NewNetlink(log logrus.FieldLogger) *Netlink {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Netlink{nl: realNetlinker{}, log: log}
}

// Interfaces lists every kernel network interface with its addresses.
func (n *Netlink) Interfaces(ctx context.Context) (wwan.Interfaces, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	links, err := n.nl.LinkList()
	if err != nil {
		return nil, toolError("link list", "", err)
	}

	ifs := make(wwan.Interfaces, 0, len(links))
	for _, l := range links {
		ifi, err := n.toInterface(l)
		if err != nil {
			return nil, err
		}

		ifs = append(ifs, *ifi)
	}

	return ifs, nil
}

// Interface fetches the interface named name. If it does not exist, an
// error compatible with 'errors.Is(err, os.ErrNotExist)' is returned.
func (n *Netlink) Interface(ctx context.Context, name string) (*wwan.Interface, error) {
	l, err := n.link(ctx, name)
	if err != nil {
		return nil, err
	}

	return n.toInterface(l)
}

// FlushAddresses removes every address assigned to the interface.
func (n *Netlink) FlushAddresses(ctx context.Context, name string) error {
	l, err := n.link(ctx, name)
	if err != nil {
		return err
	}

	addrs, err := n.nl.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return toolError("address list", name, err)
	}

	for i := range addrs {
		if err := n.nl.AddrDel(l, &addrs[i]); err != nil {
			// The kernel drops dependent addresses on its own.
			if errors.Is(err, unix.EADDRNOTAVAIL) {
				continue
			}

			return toolError("address del "+addrs[i].IPNet.String(), name, err)
		}
	}

	return nil
}

// AddAddress assigns an address in CIDR notation to the interface.
func (n *Netlink) AddAddress(ctx context.Context, name, cidr string) error {
	l, err := n.link(ctx, name)
	if err != nil {
		return err
	}

	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return toolError("address add "+cidr, name, err)
	}

	if err := n.nl.AddrAdd(l, addr); err != nil {
		return toolError("address add "+cidr, name, err)
	}

	return nil
}

// SetLinkState brings the interface up or down.
func (n *Netlink) SetLinkState(ctx context.Context, name string, state wwan.LinkState) error {
	l, err := n.link(ctx, name)
	if err != nil {
		return err
	}

	set := n.nl.LinkSetDown
	if state == wwan.LinkUp {
		set = n.nl.LinkSetUp
	}

	if err := set(l); err != nil {
		return toolError("link set "+state.String(), name, err)
	}

	return nil
}

// AddDefaultRoute installs an IPv4 default route through the interface.
func (n *Netlink) AddDefaultRoute(ctx context.Context, name string, metric int) error {
	l, err := n.link(ctx, name)
	if err != nil {
		return err
	}

	if err := n.nl.RouteAdd(defaultRoute(l, metric)); err != nil {
		return toolError(fmt.Sprintf("route add default metric %d", metric), name, err)
	}

	return nil
}

// DeleteDefaultRoute removes the IPv4 default route through the interface.
// If no such route exists, an error compatible with 'errors.Is(err,
// os.ErrNotExist)' is returned.
func (n *Netlink) DeleteDefaultRoute(ctx context.Context, name string, metric int) error {
	l, err := n.link(ctx, name)
	if err != nil {
		return err
	}

	if err := n.nl.RouteDel(defaultRoute(l, metric)); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("%w: %v", wwan.SelectorNotFound("default route via", name), err)
		}

		return toolError(fmt.Sprintf("route del default metric %d", metric), name, err)
	}

	return nil
}

// link looks up a link by name, mapping a missing link to
// wwan.SelectorNotFound.
func (n *Netlink) link(ctx context.Context, name string) (netlink.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, err := n.nl.LinkByName(name)
	if err != nil {
		var lnf netlink.LinkNotFoundError
		if errors.As(err, &lnf) || errors.Is(err, unix.ENODEV) {
			return nil, wwan.SelectorNotFound("interface", name)
		}

		return nil, toolError("link show", name, err)
	}

	return l, nil
}

// toInterface converts a netlink.Link and its addresses into a
// wwan.Interface.
func (n *Netlink) toInterface(l netlink.Link) (*wwan.Interface, error) {
	attrs := l.Attrs()

	addrs, err := n.nl.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return nil, toolError("address list", attrs.Name, err)
	}

	ifi := &wwan.Interface{
		Index:        attrs.Index,
		Name:         attrs.Name,
		OperState:    operState(attrs.OperState),
		LinkType:     attrs.EncapType,
		HardwareAddr: attrs.HardwareAddr,
		MTU:          attrs.MTU,
		Addresses:    make([]wwan.Address, 0, len(addrs)),
	}

	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}

		family := "inet6"
		if a.IP.To4() != nil {
			family = "inet"
		}

		ones, _ := a.Mask.Size()
		ifi.Addresses = append(ifi.Addresses, wwan.Address{
			Family:       family,
			IP:           a.IP,
			PrefixLength: ones,
		})
	}

	n.log.WithFields(logrus.Fields{
		"interface": ifi.Name,
		"index":     ifi.Index,
	}).Trace("read interface")

	return ifi, nil
}

// defaultRoute builds the IPv4 default route through l with the given
// metric.
func defaultRoute(l netlink.Link, metric int) *netlink.Route {
	return &netlink.Route{
		LinkIndex: l.Attrs().Index,
		Dst: &net.IPNet{
			IP:   net.IPv4zero,
			Mask: net.CIDRMask(0, 32),
		},
		Scope:    netlink.SCOPE_LINK,
		Priority: metric,
	}
}

func operState(s netlink.LinkOperState) wwan.OperState {
	switch s {
	case netlink.OperUp:
		return wwan.OperUp
	case netlink.OperDown, netlink.OperLowerLayerDown:
		return wwan.OperDown
	default:
		return wwan.OperUnknown
	}
}

// toolError annotates a failed rtnetlink operation.
func toolError(op, name string, err error) error {
	args := []string{op}
	if name != "" {
		args = append(args, "dev", name)
	}

	return &wwan.ExternalToolError{
		Tool: "netlink",
		Args: args,
		Err:  err,
	}
}

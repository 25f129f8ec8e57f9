package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/mdlayher/wwan"
	"github.com/mdlayher/wwan/internal/command"
)

// IPRoute2 is a wwan.Kernel which runs the ip tool from iproute2.
type IPRoute2 struct {
	path string
	r    command.Runner
}

var _ wwan.Kernel = &IPRoute2{}

// NewIPRoute2 creates an IPRoute2 backend which runs the ip binary at path
// using r. An empty path selects "ip" from $PATH.
func NewIPRoute2(path string, r command.Runner) *IPRoute2 {
	if path == "" {
		path = "ip"
	}

	return &IPRoute2{path: path, r: r}
}

// An ipLink is one element of the output of 'ip -j address show'.
type ipLink struct {
	IfIndex   int    `json:"ifindex"`
	IfName    string `json:"ifname"`
	MTU       int    `json:"mtu"`
	OperState string `json:"operstate"`
	LinkType  string `json:"link_type"`
	Address   string `json:"address"`
	AddrInfo  []struct {
		Family    string `json:"family"`
		Local     string `json:"local"`
		PrefixLen int    `json:"prefixlen"`
	} `json:"addr_info"`
}

// Interfaces lists every kernel network interface with its addresses.
func (ip *IPRoute2) Interfaces(ctx context.Context) (wwan.Interfaces, error) {
	return ip.show(ctx, "-j", "address", "show")
}

// Interface fetches the interface named name. If it does not exist, an
// error compatible with 'errors.Is(err, os.ErrNotExist)' is returned.
func (ip *IPRoute2) Interface(ctx context.Context, name string) (*wwan.Interface, error) {
	ifs, err := ip.show(ctx, "-j", "address", "show", "dev", name)
	if err != nil {
		return nil, notFound(err, "interface", name)
	}

	ifi, ok := ifs.ByName(name)
	if !ok {
		return nil, wwan.SelectorNotFound("interface", name)
	}

	return ifi, nil
}

// FlushAddresses removes every address assigned to the interface.
func (ip *IPRoute2) FlushAddresses(ctx context.Context, name string) error {
	return ip.run(ctx, "interface", name, "address", "flush", "dev", name)
}

// AddAddress assigns an address in CIDR notation to the interface.
func (ip *IPRoute2) AddAddress(ctx context.Context, name, cidr string) error {
	return ip.run(ctx, "interface", name, "address", "add", cidr, "dev", name)
}

// SetLinkState brings the interface up or down.
func (ip *IPRoute2) SetLinkState(ctx context.Context, name string, state wwan.LinkState) error {
	return ip.run(ctx, "interface", name, "link", "set", name, state.String())
}

// AddDefaultRoute installs an IPv4 default route through the interface.
func (ip *IPRoute2) AddDefaultRoute(ctx context.Context, name string, metric int) error {
	return ip.run(ctx, "interface", name,
		"route", "add", "default", "dev", name, "metric", strconv.Itoa(metric))
}

// DeleteDefaultRoute removes the IPv4 default route through the interface.
// If no such route exists, an error compatible with 'errors.Is(err,
// os.ErrNotExist)' is returned.
func (ip *IPRoute2) DeleteDefaultRoute(ctx context.Context, name string, metric int) error {
	return ip.run(ctx, "default route via", name,
		"route", "del", "default", "dev", name, "metric", strconv.Itoa(metric))
}

// run runs ip with args, mapping "not found" failures to
// wwan.SelectorNotFound for the given kind and name.
func (ip *IPRoute2) run(ctx context.Context, kind, name string, args ...string) error {
	_, err := ip.r.Run(ctx, ip.path, args...)
	return notFound(err, kind, name)
}

// show runs an 'ip -j address show' variant and parses its output.
func (ip *IPRoute2) show(ctx context.Context, args ...string) (wwan.Interfaces, error) {
	out, err := ip.r.Run(ctx, ip.path, args...)
	if err != nil {
		return nil, err
	}

	ifs, err := parseLinks(out)
	if err != nil {
		return nil, &wwan.ExternalToolError{Tool: ip.path, Args: args, Err: err}
	}

	return ifs, nil
}

// parseLinks parses the JSON output of 'ip -j address show'.
func parseLinks(b []byte) (wwan.Interfaces, error) {
	var links []ipLink
	if err := json.Unmarshal(b, &links); err != nil {
		return nil, fmt.Errorf("malformed output: %w", err)
	}

	ifs := make(wwan.Interfaces, 0, len(links))
	for _, l := range links {
		ifi := wwan.Interface{
			Index:     l.IfIndex,
			Name:      l.IfName,
			OperState: wwan.ParseOperState(l.OperState),
			LinkType:  l.LinkType,
			MTU:       l.MTU,
			Addresses: make([]wwan.Address, 0, len(l.AddrInfo)),
		}

		// Point-to-point and raw IP links carry no hardware address.
		if l.Address != "" {
			if mac, err := net.ParseMAC(l.Address); err == nil {
				ifi.HardwareAddr = mac
			}
		}

		for _, a := range l.AddrInfo {
			addr := net.ParseIP(a.Local)
			if addr == nil {
				return nil, fmt.Errorf("interface %q: bad address %q", l.IfName, a.Local)
			}

			ifi.Addresses = append(ifi.Addresses, wwan.Address{
				Family:       a.Family,
				IP:           addr,
				PrefixLength: a.PrefixLen,
			})
		}

		ifs = append(ifs, ifi)
	}

	return ifs, nil
}

// notFound converts an ip failure reporting a missing device or route into a
// wwan.SelectorNotFound error while preserving the tool error.
func notFound(err error, kind, name string) error {
	if err == nil {
		return nil
	}

	var terr *wwan.ExternalToolError
	if !errors.As(err, &terr) {
		return err
	}

	for _, s := range []string{"does not exist", "Cannot find device", "No such process", "No such device"} {
		if strings.Contains(terr.Stderr, s) {
			return fmt.Errorf("%w: %w", wwan.SelectorNotFound(kind, name), err)
		}
	}

	return err
}

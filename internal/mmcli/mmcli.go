// Package mmcli implements a wwan.Daemon which drives ModemManager through
// the JSON output of the mmcli tool.
package mmcli

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

// empty is printed by mmcli for absent values.
const empty = "--"

// A Client runs mmcli. It implements wwan.Daemon.
type Client struct {
	path string
	r    command.Runner
}

var _ wwan.Daemon = &Client{}

// New creates a Client which runs the mmcli binary at path using r. An empty
// path selects "mmcli" from $PATH.
func New(path string, r command.Runner) *Client {
	if path == "" {
		path = "mmcli"
	}

	return &Client{path: path, r: r}
}

type modemList struct {
	ModemList []string `json:"modem-list"`
}

type modemInfo struct {
	Modem struct {
		DBusPath string `json:"dbus-path"`
		Generic  struct {
			Bearers      []string `json:"bearers"`
			Device       string   `json:"device"`
			Manufacturer string   `json:"manufacturer"`
			Model        string   `json:"model"`
			Ports        []string `json:"ports"`
			PrimaryPort  string   `json:"primary-port"`
			State        string   `json:"state"`
		} `json:"generic"`
	} `json:"modem"`
}

type bearerInfo struct {
	Bearer struct {
		DBusPath string `json:"dbus-path"`
		Status   struct {
			Connected string `json:"connected"`
			Interface string `json:"interface"`
		} `json:"status"`
		IPv4Config struct {
			Address string   `json:"address"`
			DNS     []string `json:"dns"`
			Gateway string   `json:"gateway"`
			Method  string   `json:"method"`
			MTU     string   `json:"mtu"`
			Prefix  string   `json:"prefix"`
		} `json:"ipv4-config"`
	} `json:"bearer"`
}

// Modems returns the object paths of every modem listed by 'mmcli -L'.
func (c *Client) Modems(ctx context.Context) ([]string, error) {
	var ml modemList
	if err := c.query(ctx, &ml, "-L", "-J"); err != nil {
		return nil, err
	}

	if ml.ModemList == nil {
		return []string{}, nil
	}

	return ml.ModemList, nil
}

// Modem fetches a snapshot of the modem identified by an object path or
// index.
func (c *Client) Modem(ctx context.Context, id string) (*wwan.Modem, error) {
	var mi modemInfo
	if err := c.query(ctx, &mi, "-m", id, "-J"); err != nil {
		return nil, notFound(err, "modem", id)
	}

	g := mi.Modem.Generic
	m := &wwan.Modem{
		ID:           mi.Modem.DBusPath,
		State:        wwan.ParseState(g.State),
		Manufacturer: value(g.Manufacturer),
		Model:        value(g.Model),
		PrimaryPort:  value(g.PrimaryPort),
		Device:       value(g.Device),
		Bearers:      nonNil(g.Bearers),
		Ports:        nonNil(g.Ports),
	}
	if m.State == wwan.StateUnrecognized {
		m.RawState = g.State
	}

	return m, nil
}

// Bearer fetches a snapshot of the bearer identified by an object path or
// index.
func (c *Client) Bearer(ctx context.Context, id string) (*wwan.Bearer, error) {
	var bi bearerInfo
	args := []string{"-b", id, "-J"}
	if err := c.query(ctx, &bi, args...); err != nil {
		return nil, notFound(err, "bearer", id)
	}

	st := bi.Bearer.Status
	b := &wwan.Bearer{
		ID:        bi.Bearer.DBusPath,
		Status:    wwan.ParseBearerStatus(st.Connected),
		Interface: value(st.Interface),
	}
	if b.Status == wwan.BearerUnrecognized {
		b.RawStatus = st.Connected
	}

	ipc := bi.Bearer.IPv4Config
	if value(ipc.Address) == "" {
		return b, nil
	}

	cfg, err := parseIPConfig(ipc.Address, ipc.Prefix, ipc.Gateway, ipc.Method, ipc.MTU, ipc.DNS)
	if err != nil {
		return nil, &wwan.ExternalToolError{Tool: c.path, Args: args, Err: err}
	}
	b.IPv4 = cfg

	return b, nil
}

// Connect runs 'mmcli --simple-connect' for the modem identified by id.
func (c *Client) Connect(ctx context.Context, id, apn string) error {
	_, err := c.r.Run(ctx, c.path, "-m", id, "--simple-connect=apn="+apn)
	return notFound(err, "modem", id)
}

// Disconnect runs 'mmcli --simple-disconnect' for the modem identified by id.
func (c *Client) Disconnect(ctx context.Context, id string) error {
	_, err := c.r.Run(ctx, c.path, "-m", id, "--simple-disconnect")
	return notFound(err, "modem", id)
}

// query runs mmcli with args and decodes its JSON output into v.
func (c *Client) query(ctx context.Context, v interface{}, args ...string) error {
	out, err := c.r.Run(ctx, c.path, args...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(out, v); err != nil {
		return &wwan.ExternalToolError{
			Tool: c.path,
			Args: args,
			Err:  fmt.Errorf("malformed output: %w", err),
		}
	}

	return nil
}

// notFound converts an mmcli lookup failure into a wwan.SelectorNotFound
// error while preserving the tool error.
func notFound(err error, kind, id string) error {
	if err == nil {
		return nil
	}

	var terr *wwan.ExternalToolError
	if !errors.As(err, &terr) || !strings.Contains(terr.Stderr, "couldn't find") {
		return err
	}

	return fmt.Errorf("%w: %w", wwan.SelectorNotFound(kind, id), err)
}

// parseIPConfig parses the textual IPv4 configuration printed by mmcli.
func parseIPConfig(addr, prefix, gw, method, mtu string, dns []string) (*wwan.IPConfig, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("bad IPv4 address %q", addr)
	}

	c := &wwan.IPConfig{
		Address: &net.IPNet{IP: ip},
		Method:  wwan.ParseBearerIPMethod(value(method)),
	}

	if p := value(prefix); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad IPv4 prefix %q: %v", p, err)
		}

		c.Address.Mask = net.CIDRMask(n, 32)
		if c.Address.Mask == nil {
			return nil, fmt.Errorf("bad IPv4 prefix %q", p)
		}
	}

	if g := value(gw); g != "" {
		if c.Gateway = net.ParseIP(g); c.Gateway == nil {
			return nil, fmt.Errorf("bad IPv4 gateway %q", g)
		}
	}

	if m := value(mtu); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("bad MTU %q: %v", m, err)
		}
		c.MTU = n
	}

	for _, s := range dns {
		d := net.ParseIP(s)
		if d == nil {
			return nil, fmt.Errorf("bad DNS server %q", s)
		}
		c.DNS = append(c.DNS, d)
	}

	return c, nil
}

// value maps mmcli's placeholder for absent values to the empty string.
func value(s string) string {
	if s == empty {
		return ""
	}

	return s
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}

	return ss
}

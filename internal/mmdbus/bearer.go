package mmdbus

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/mdlayher/wwan"
)

// Bearer fetches a snapshot of the bearer identified by an object path or
// index. If the bearer does not exist, an error compatible with
// 'errors.Is(err, os.ErrNotExist)' is returned.
func (c *Client) Bearer(ctx context.Context, id string) (*wwan.Bearer, error) {
	op, err := resolvePath("Bearer", id)
	if err != nil {
		return nil, err
	}

	ps, err := c.getAll(ctx, op, interfacePath("Bearer"))
	if err != nil {
		return nil, toNotExist(err, unknownMethodError, unknownObjectError)
	}

	// A bearer which was never connected reports no status at all.
	b := &wwan.Bearer{
		ID:     string(op),
		Status: wwan.BearerDisconnected,
	}

	if err := parseBearer(b, ps); err != nil {
		return nil, &wwan.ExternalToolError{
			Tool: "dbus",
			Args: []string{methodGetAll, string(op)},
			Err:  err,
		}
	}

	return b, nil
}

// parseBearer parses a properties map into the Bearer's fields.
func parseBearer(b *wwan.Bearer, ps map[string]dbus.Variant) error {
	for k, v := range ps {
		vp := newValueParser(v)
		switch k {
		case "Connected":
			if vp.Bool() {
				b.Status = wwan.BearerConnected
			} else {
				b.Status = wwan.BearerDisconnected
			}
		case "Interface":
			b.Interface = vp.String()
		case "Ip4Config":
			c, err := parseIPConfig(vp.Properties())
			if err != nil {
				return fmt.Errorf("error parsing IPv4 config: %v", err)
			}
			b.IPv4 = c
		}

		if err := vp.Err(); err != nil {
			return fmt.Errorf("error parsing %q: %v", k, err)
		}
	}

	return nil
}

// parseIPConfig parses IPv4 configuration from a properties map. An empty
// map produces a nil IPConfig.
func parseIPConfig(ps map[string]dbus.Variant) (*wwan.IPConfig, error) {
	if len(ps) == 0 {
		return nil, nil
	}

	var c wwan.IPConfig
	for k, v := range ps {
		vp := newValueParser(v)
		switch k {
		case "address":
			if c.Address == nil {
				c.Address = &net.IPNet{}
			}

			c.Address.IP = vp.IP()
		case "dns1", "dns2", "dns3":
			c.DNS = append(c.DNS, vp.IP())
		case "gateway":
			c.Gateway = vp.IP()
		case "method":
			c.Method = wwan.BearerIPMethod(vp.Int())
		case "mtu":
			c.MTU = vp.Int()
		case "prefix":
			if c.Address == nil {
				c.Address = &net.IPNet{}
			}

			c.Address.Mask = vp.Mask(32)
		}

		if err := vp.Err(); err != nil {
			return nil, fmt.Errorf("error parsing %q: %v", k, err)
		}
	}

	// Sort DNS addresses for consistency.
	sort.SliceStable(c.DNS, func(i, j int) bool {
		return bytes.Compare(c.DNS[i], c.DNS[j]) == -1
	})

	return &c, nil
}

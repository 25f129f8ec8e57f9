package wwan

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClientConnectOK(t *testing.T) {
	d, k := connectFixture()

	if err := testClient(d, k).Connect(context.Background(), "0", "internet"); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	if diff := cmp.Diff([]string{"connect " + modem0 + " internet"}, d.calls); diff != "" {
		t.Fatalf("unexpected daemon calls (-want +got):\n%s", diff)
	}

	want := []string{
		"flush wwan0",
		"add_address wwan0 10.0.0.5/32",
		"set_up wwan0",
		"add_default_route wwan0 200",
	}

	if diff := cmp.Diff(want, k.calls); diff != "" {
		t.Fatalf("unexpected kernel calls (-want +got):\n%s", diff)
	}
}

func TestClientConnectDefaults(t *testing.T) {
	d, k := connectFixture()

	c := testClient(d, k)
	c.metric = 300

	if err := c.Connect(context.Background(), "", ""); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	if diff := cmp.Diff([]string{"connect " + modem0 + " " + DefaultAPN}, d.calls); diff != "" {
		t.Fatalf("unexpected daemon calls (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("add_default_route wwan0 300", k.calls[len(k.calls)-1]); diff != "" {
		t.Fatalf("unexpected route call (-want +got):\n%s", diff)
	}
}

func TestClientConnectBearerInterfaceFallback(t *testing.T) {
	d, k := connectFixture()
	d.bearers[bearer0].Interface = ""

	if err := testClient(d, k).Connect(context.Background(), "0", ""); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	if diff := cmp.Diff("flush wwan0", k.calls[0]); diff != "" {
		t.Fatalf("unexpected first kernel call (-want +got):\n%s", diff)
	}
}

func TestClientConnectErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *fakeDaemon, k *fakeKernel)
		is    error
		// Number of daemon connect calls expected.
		connects int
	}{
		{
			name: "already connected",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.modems[modem0].State = StateConnected
			},
			is: ErrAlreadyConnected,
		},
		{
			name: "no bearer after connect",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.onConnect = nil
			},
			is:       ErrNoBearerAfterConnect,
			connects: 1,
		},
		{
			name: "bearer not connected",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.bearers[bearer0].Status = BearerDisconnected
			},
			is:       ErrBearerNotConnected,
			connects: 1,
		},
		{
			name: "bearer status unrecognized",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.bearers[bearer0].Status = BearerUnrecognized
				d.bearers[bearer0].RawStatus = "maybe"
			},
			is:       ErrBearerNotConnected,
			connects: 1,
		},
		{
			name: "no bearer address",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.bearers[bearer0].IPv4 = nil
			},
			is:       ErrNoBearerAddress,
			connects: 1,
		},
		{
			name: "interface not found",
			setup: func(_ *fakeDaemon, k *fakeKernel) {
				k.ifs = k.ifs[:2]
			},
			is:       ErrInterfaceNotFound,
			connects: 1,
		},
		{
			name: "daemon rejects",
			setup: func(d *fakeDaemon, _ *fakeKernel) {
				d.onConnect = func(_ *fakeDaemon, _, _ string) error {
					return &ExternalToolError{Tool: "mmcli", Err: errors.New("exit status 1")}
				}
			},
			is:       nil,
			connects: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, k := connectFixture()
			tt.setup(d, k)

			err := testClient(d, k).Connect(context.Background(), "0", "")
			if err == nil {
				t.Fatal("expected an error, but none occurred")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, but got: %v", tt.is, err)
			}

			if diff := cmp.Diff(tt.connects, len(d.calls)); diff != "" {
				t.Fatalf("unexpected number of daemon calls (-want +got):\n%s", diff)
			}

			// None of these failures may touch the interface.
			if diff := cmp.Diff(0, len(k.calls)); diff != "" {
				t.Fatalf("unexpected kernel calls (-want +got):\n%s\ncalls: %v", diff, k.calls)
			}

			t.Logf("err: %v", err)
		})
	}
}

func TestClientConnectStepFailure(t *testing.T) {
	d, k := connectFixture()
	k.failOn = "set_up"

	err := testClient(d, k).Connect(context.Background(), "0", "")
	if err == nil {
		t.Fatal("expected an error, but none occurred")
	}

	// Steps applied before the failure are not rolled back, and no later
	// step runs.
	want := []string{
		"flush wwan0",
		"add_address wwan0 10.0.0.5/32",
		"set_up wwan0",
	}

	if diff := cmp.Diff(want, k.calls); diff != "" {
		t.Fatalf("unexpected kernel calls (-want +got):\n%s", diff)
	}

	t.Logf("err: %v", err)
}

func TestClientConnectPermissionDenied(t *testing.T) {
	d, k := connectFixture()
	c := testClient(d, k)
	c.geteuid = func() int { return 1000 }

	err := c.Connect(context.Background(), "0", "")
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, but got: %v", err)
	}

	if len(d.calls) != 0 || len(k.calls) != 0 {
		t.Fatalf("expected no side effects, but got daemon: %v, kernel: %v", d.calls, k.calls)
	}
}

func TestClientDisconnectOK(t *testing.T) {
	d, k := disconnectFixture()

	if err := testClient(d, k).Disconnect(context.Background(), "wwan0"); err != nil {
		t.Fatalf("failed to disconnect: %v", err)
	}

	if diff := cmp.Diff([]string{"disconnect " + modem0}, d.calls); diff != "" {
		t.Fatalf("unexpected daemon calls (-want +got):\n%s", diff)
	}

	want := []string{
		"del_default_route wwan0 200",
		"flush wwan0",
		"set_down wwan0",
	}

	if diff := cmp.Diff(want, k.calls); diff != "" {
		t.Fatalf("unexpected kernel calls (-want +got):\n%s", diff)
	}
}

func TestClientDisconnectIdempotent(t *testing.T) {
	d, k := disconnectFixture()
	d.modems[modem0].State = StateRegistered
	d.modems[modem0].Bearers = nil
	k.routeErr = SelectorNotFound("route", "default")

	c := testClient(d, k)
	for i := 0; i < 2; i++ {
		if err := c.Disconnect(context.Background(), "0"); err != nil {
			t.Fatalf("failed to disconnect %d: %v", i, err)
		}
	}

	if diff := cmp.Diff(6, len(k.calls)); diff != "" {
		t.Fatalf("unexpected number of kernel calls (-want +got):\n%s", diff)
	}
}

func TestClientDisconnectRouteError(t *testing.T) {
	d, k := disconnectFixture()
	k.failOn = "del_default_route"

	err := testClient(d, k).Disconnect(context.Background(), "0")
	if err == nil {
		t.Fatal("expected an error, but none occurred")
	}

	if diff := cmp.Diff([]string{"del_default_route wwan0 200"}, k.calls); diff != "" {
		t.Fatalf("unexpected kernel calls (-want +got):\n%s", diff)
	}
}

func TestClientDisconnectNoNetworkPort(t *testing.T) {
	d, k := disconnectFixture()
	d.modems[modem0].Ports = []string{"cdc-wdm0 (mbim)"}

	err := testClient(d, k).Disconnect(context.Background(), "0")
	if !errors.Is(err, ErrNoNetworkPort) {
		t.Fatalf("expected no network port error, but got: %v", err)
	}

	if len(k.calls) != 0 {
		t.Fatalf("expected no kernel calls, but got: %v", k.calls)
	}
}

func TestClientRunInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		r    Request
	}{
		{
			name: "connect and disconnect",
			r:    Request{Connect: true, Disconnect: true, APN: "internet"},
		},
		{
			name: "neither",
			r:    Request{Modem: "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, k := connectFixture()
			c := testClient(d, k)
			// Input validation happens before the privilege check.
			c.geteuid = func() int { return 1000 }

			err := c.Run(context.Background(), tt.r)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input error, but got: %v", err)
			}

			if diff := cmp.Diff(0, len(d.calls)+len(k.calls)); diff != "" {
				t.Fatalf("unexpected number of mutations (-want +got):\n%s", diff)
			}

			t.Logf("err: %v", err)
		})
	}
}

func TestClientRunDispatch(t *testing.T) {
	d, k := connectFixture()
	c := testClient(d, k)

	if err := c.Run(context.Background(), Request{Connect: true, Modem: "0"}); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := c.Run(context.Background(), Request{Disconnect: true, Modem: "0"}); err != nil {
		t.Fatalf("failed to disconnect: %v", err)
	}

	want := []string{
		"connect " + modem0 + " " + DefaultAPN,
		"disconnect " + modem0,
	}

	if diff := cmp.Diff(want, d.calls); diff != "" {
		t.Fatalf("unexpected daemon calls (-want +got):\n%s", diff)
	}
}

// connectFixture returns a disconnected modem 0 whose daemon produces a
// connected bearer on wwan0 when asked to connect.
func connectFixture() (*fakeDaemon, *fakeKernel) {
	d := newFakeDaemon(&Modem{
		ID:    modem0,
		State: StateRegistered,
		Ports: []string{"wwan0 (net)", "cdc-wdm0 (mbim)"},
	})

	d.bearers[bearer0] = &Bearer{
		ID:        bearer0,
		Status:    BearerConnected,
		Interface: "wwan0",
		IPv4: &IPConfig{
			Address: &net.IPNet{IP: net.ParseIP("10.0.0.5"), Mask: net.CIDRMask(30, 32)},
			Gateway: net.ParseIP("10.0.0.6"),
			Method:  BearerIPMethodStatic,
		},
	}

	d.onConnect = func(d *fakeDaemon, id, _ string) error {
		m := *d.modems[id]
		m.State = StateConnected
		m.Bearers = []string{bearer0}
		d.modems[id] = &m
		return nil
	}

	d.onDisconnect = func(d *fakeDaemon, id string) error {
		m := *d.modems[id]
		m.State = StateRegistered
		m.Bearers = nil
		d.modems[id] = &m
		return nil
	}

	return d, &fakeKernel{ifs: testInterfaces()}
}

// disconnectFixture returns a connected modem 0 bound to wwan0.
func disconnectFixture() (*fakeDaemon, *fakeKernel) {
	d, k := connectFixture()
	d.modems[modem0].State = StateConnected
	d.modems[modem0].Bearers = []string{bearer0}

	return d, k
}

func TestClientDisconnectNumericSelectsInterfaceIndex(t *testing.T) {
	const modem3 = "/org/freedesktop/ModemManager1/Modem/3"

	tests := []struct {
		name, selector, modem, iface string
	}{
		{name: "wwan0", selector: "3", modem: modem0, iface: "wwan0"},
		{name: "wwan1", selector: "4", modem: modem3, iface: "wwan1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Modem 3 shares its index with the interface bound to modem 0.
			d := newFakeDaemon(
				&Modem{ID: modem0, State: StateConnected, Ports: []string{"wwan0 (net)"}},
				&Modem{ID: modem3, State: StateConnected, Ports: []string{"wwan1 (net)"}},
			)
			k := &fakeKernel{ifs: append(testInterfaces(), Interface{Index: 4, Name: "wwan1", LinkType: "none"})}

			if err := testClient(d, k).Disconnect(context.Background(), tt.selector); err != nil {
				t.Fatalf("failed to disconnect: %v", err)
			}

			if diff := cmp.Diff([]string{"disconnect " + tt.modem}, d.calls); diff != "" {
				t.Fatalf("unexpected daemon calls (-want +got):\n%s", diff)
			}

			want := []string{
				"del_default_route " + tt.iface + " 200",
				"flush " + tt.iface,
				"set_down " + tt.iface,
			}

			if diff := cmp.Diff(want, k.calls); diff != "" {
				t.Fatalf("unexpected kernel calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		r    Request
		ok   bool
	}{
		{name: "connect", r: Request{Connect: true}, ok: true},
		{name: "disconnect", r: Request{Disconnect: true}, ok: true},
		{name: "both", r: Request{Connect: true, Disconnect: true}},
		{name: "neither", r: Request{Modem: "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.ok && err != nil {
				t.Fatalf("failed to validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input error, but got: %v", err)
			}
		})
	}
}

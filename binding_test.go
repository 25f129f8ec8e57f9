package wwan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveOK(t *testing.T) {
	m := &Modem{
		ID:    modem0,
		State: StateConnected,
		Ports: []string{"wwan0 (net)", "cdc-wdm0 (mbim)"},
	}

	b, err := Resolve(m, testInterfaces())
	if err != nil {
		t.Fatalf("failed to resolve binding: %v", err)
	}

	if diff := cmp.Diff(3, b.Interface.Index); diff != "" {
		t.Fatalf("unexpected interface index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("wwan0", b.Interface.Name); diff != "" {
		t.Fatalf("unexpected interface name (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Port{Name: "wwan0", Type: PortTypeNet}, b.Port); diff != "" {
		t.Fatalf("unexpected port (-want +got):\n%s", diff)
	}
}

func TestResolveIdempotent(t *testing.T) {
	m := &Modem{ID: modem0, Ports: []string{"cdc-wdm0 (mbim)", "wwan0 (net)"}}
	ifs := testInterfaces()

	b1, err := Resolve(m, ifs)
	if err != nil {
		t.Fatalf("failed to resolve first binding: %v", err)
	}

	b2, err := Resolve(m, ifs)
	if err != nil {
		t.Fatalf("failed to resolve second binding: %v", err)
	}

	if diff := cmp.Diff(b1, b2); diff != "" {
		t.Fatalf("bindings differ (-first +second):\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		ifs   Interfaces
		is    error
	}{
		{
			name:  "no network port",
			ports: []string{"cdc-wdm0 (mbim)"},
			ifs:   testInterfaces(),
			is:    ErrNoNetworkPort,
		},
		{
			name:  "interface not found",
			ports: []string{"wwan1 (net)"},
			ifs:   testInterfaces(),
			is:    ErrInterfaceNotFound,
		},
		{
			name:  "no interfaces",
			ports: []string{"wwan0 (net)"},
			is:    ErrInterfaceNotFound,
		},
		{
			name:  "ambiguous interface",
			ports: []string{"wwan0 (net)"},
			ifs:   Interfaces{{Index: 3, Name: "wwan0"}, {Index: 4, Name: "wwan0"}},
			is:    ErrInterfaceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(&Modem{ID: modem0, Ports: tt.ports}, tt.ifs)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, but got: %v", tt.is, err)
			}

			t.Logf("err: %v", err)
		})
	}
}

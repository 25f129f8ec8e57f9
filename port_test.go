package wwan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePorts(t *testing.T) {
	got := ParsePorts([]string{
		"cdc-wdm0 (mbim)",
		"ttyUSB0 (qcdm)",
		"ttyUSB2 (at)",
		"wwan0 (net)",
		"ttyUSB1 (gps)",
		"ttyUSB3 (ignored)",
		"",
		"   ",
		"wwan1",
	})

	want := Ports{
		{Name: "cdc-wdm0", Type: PortTypeMBIM},
		{Name: "ttyUSB0", Type: PortTypeQCDM},
		{Name: "ttyUSB2", Type: PortTypeAT},
		{Name: "wwan0", Type: PortTypeNet},
		{Name: "ttyUSB1", Type: PortTypeGPS},
		{Name: "ttyUSB3", Type: PortTypeUnknown},
		{Name: "wwan1", Type: PortTypeUnknown},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected ports (-want +got):\n%s", diff)
	}
}

func TestPortClass(t *testing.T) {
	tests := []struct {
		t    PortType
		want PortClass
	}{
		{t: PortTypeNet, want: PortClassNetworkData},
		{t: PortTypeAT, want: PortClassControlChannel},
		{t: PortTypeQCDM, want: PortClassControlChannel},
		{t: PortTypeQMI, want: PortClassControlChannel},
		{t: PortTypeMBIM, want: PortClassControlChannel},
		{t: PortTypeGPS, want: PortClassUnknown},
		{t: PortTypeAudio, want: PortClassUnknown},
		{t: PortTypeUnknown, want: PortClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.t.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Port{Name: "x", Type: tt.t}.Class()); diff != "" {
				t.Fatalf("unexpected class (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPortsNetNameNone(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
	}{
		{name: "nil"},
		{name: "empty", ports: []string{}},
		{name: "control only", ports: []string{"cdc-wdm0 (mbim)", "ttyUSB2 (at)"}},
		{name: "unknown kinds", ports: []string{"wwan0 (nett)", "wwan0", "wwan0 net"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff("", ParsePorts(tt.ports).NetName()); diff != "" {
				t.Fatalf("unexpected net name (-want +got):\n%s", diff)
			}

			_, err := Resolve(&Modem{ID: modem0, Ports: tt.ports}, testInterfaces())
			if !errors.Is(err, ErrNoNetworkPort) {
				t.Fatalf("expected no network port error, but got: %v", err)
			}
		})
	}
}

func TestPortsNetNameAnyPosition(t *testing.T) {
	others := []string{"cdc-wdm0 (mbim)", "ttyUSB0 (qcdm)", "ttyUSB1 (gps)"}

	for i := 0; i <= len(others); i++ {
		ports := append(append(append([]string{}, others[:i]...), "wwan0 (net)"), others[i:]...)
		if diff := cmp.Diff("wwan0", ParsePorts(ports).NetName()); diff != "" {
			t.Fatalf("unexpected net name for %v (-want +got):\n%s", ports, diff)
		}
	}
}

func TestPortsControlName(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		want  string
	}{
		{name: "none", ports: []string{"wwan0 (net)"}},
		{name: "mbim", ports: []string{"ttyUSB2 (at)", "cdc-wdm0 (mbim)"}, want: "cdc-wdm0"},
		{name: "qmi", ports: []string{"ttyUSB2 (at)", "cdc-wdm1 (qmi)"}, want: "cdc-wdm1"},
		{name: "first control", ports: []string{"ttyUSB1 (gps)", "ttyUSB0 (qcdm)", "ttyUSB2 (at)"}, want: "ttyUSB0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParsePorts(tt.ports).ControlName()); diff != "" {
				t.Fatalf("unexpected control name (-want +got):\n%s", diff)
			}
		})
	}
}

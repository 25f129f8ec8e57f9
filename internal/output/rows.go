package output

import (
	"strings"
	"time"

	"github.com/mdlayher/wwan"
	"github.com/mdlayher/wwan/internal/journal"
)

// A ModemRow is one line of a modem listing.
type ModemRow struct {
	ID       int    `json:"device_id" yaml:"device_id" table:"ID"`
	Name     string `json:"name" yaml:"name" table:"NAME"`
	Hardware string `json:"hardware_name" yaml:"hardware_name" table:"HARDWARE"`
	NetIP    string `json:"net_ip" yaml:"net_ip" table:"NET IP"`
	SIMIP    string `json:"sim_ip" yaml:"sim_ip" table:"SIM IP"`
	State    string `json:"state" yaml:"state" table:"STATE"`
	Modem    string `json:"modem" yaml:"modem" table:"MODEM"`
}

// Modems converts Devices into rows.
func Modems(ds []*wwan.Device) []ModemRow {
	rows := make([]ModemRow, 0, len(ds))
	for _, d := range ds {
		state := "disconnected"
		if d.Connected {
			state = "connected"
		}

		var sim string
		if d.SIMAddress != nil {
			sim = d.SIMAddress.String()
		}

		rows = append(rows, ModemRow{
			ID:       d.Index,
			Name:     d.Name,
			Hardware: d.Control,
			NetIP:    joinAddresses(d.Addresses),
			SIMIP:    sim,
			State:    state,
			Modem:    d.Modem.ID,
		})
	}

	return rows
}

// A DeviceRow is one line of a kernel interface listing.
type DeviceRow struct {
	ID        int    `json:"id" yaml:"id" table:"ID"`
	Name      string `json:"name" yaml:"name" table:"NAME"`
	LinkType  string `json:"link_type" yaml:"link_type" table:"TYPE"`
	State     string `json:"state" yaml:"state" table:"STATE"`
	MAC       string `json:"mac,omitempty" yaml:"mac,omitempty" table:"MAC"`
	Addresses string `json:"addresses" yaml:"addresses" table:"ADDRESSES"`
}

// Devices converts Interfaces into rows.
func Devices(ifs wwan.Interfaces) []DeviceRow {
	rows := make([]DeviceRow, 0, len(ifs))
	for i := range ifs {
		ifi := &ifs[i]

		var mac string
		if len(ifi.HardwareAddr) > 0 {
			mac = ifi.HardwareAddr.String()
		}

		rows = append(rows, DeviceRow{
			ID:        ifi.Index,
			Name:      ifi.Name,
			LinkType:  ifi.LinkType,
			State:     ifi.OperState.String(),
			MAC:       mac,
			Addresses: ifi.FormatAddresses(),
		})
	}

	return rows
}

// A BindingRow describes a modem and the interface it is bound to.
type BindingRow struct {
	Modem     string `json:"modem" yaml:"modem" table:"MODEM"`
	State     string `json:"state" yaml:"state" table:"STATE"`
	Port      string `json:"port" yaml:"port" table:"PORT"`
	Index     int    `json:"index" yaml:"index" table:"INDEX"`
	Interface string `json:"interface" yaml:"interface" table:"INTERFACE"`
	Addresses string `json:"addresses" yaml:"addresses" table:"ADDRESSES"`
}

// Binding converts a Binding into a row.
func Binding(b *wwan.Binding) BindingRow {
	return BindingRow{
		Modem:     b.Modem.ID,
		State:     modemState(&b.Modem),
		Port:      b.Port.String(),
		Index:     b.Interface.Index,
		Interface: b.Interface.Name,
		Addresses: b.Interface.FormatAddresses(),
	}
}

// A HistoryRow is one journal entry.
type HistoryRow struct {
	Time      string `json:"time" yaml:"time" table:"TIME"`
	Op        string `json:"op" yaml:"op" table:"OP"`
	Modem     string `json:"modem" yaml:"modem" table:"MODEM"`
	APN       string `json:"apn,omitempty" yaml:"apn,omitempty" table:"APN"`
	Interface string `json:"interface,omitempty" yaml:"interface,omitempty" table:"INTERFACE"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty" table:"ADDRESS"`
	Result    string `json:"result" yaml:"result" table:"RESULT"`
}

// History converts journal entries into rows.
func History(es []journal.Entry) []HistoryRow {
	rows := make([]HistoryRow, 0, len(es))
	for _, e := range es {
		result := "ok"
		if e.Error != "" {
			result = truncate(e.Error, 60)
		}

		rows = append(rows, HistoryRow{
			Time:      e.Time.Local().Format(time.RFC3339),
			Op:        e.Op,
			Modem:     e.Modem,
			APN:       e.APN,
			Interface: e.Interface,
			Address:   e.Address,
			Result:    result,
		})
	}

	return rows
}

func modemState(m *wwan.Modem) string {
	if m.State == wwan.StateUnrecognized && m.RawState != "" {
		return m.RawState
	}

	return m.State.String()
}

func joinAddresses(as []wwan.Address) string {
	ss := make([]string, 0, len(as))
	for _, a := range as {
		ss = append(ss, a.String())
	}

	return strings.Join(ss, ", ")
}

// truncate shortens s to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

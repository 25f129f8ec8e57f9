package wwan

import "strconv"

// A State is the state of a modem.
type State int

// Possible State values, taken from:
// https://www.freedesktop.org/software/ModemManager/api/latest/ModemManager-Flags-and-Enumerations.html#MMModemState.
//
// StateUnrecognized is never reported by ModemManager; it marks a state this
// package does not know about.
const (
	StateUnrecognized State = iota - 2
	StateFailed
	StateUnknown
	StateInitializing
	StateLocked
	StateDisabled
	StateDisabling
	StateEnabling
	StateEnabled
	StateSearching
	StateRegistered
	StateDisconnecting
	StateConnecting
	StateConnected
)

var stateNames = map[State]string{
	StateUnrecognized:  "unrecognized",
	StateFailed:        "failed",
	StateUnknown:       "unknown",
	StateInitializing:  "initializing",
	StateLocked:        "locked",
	StateDisabled:      "disabled",
	StateDisabling:     "disabling",
	StateEnabling:      "enabling",
	StateEnabled:       "enabled",
	StateSearching:     "searching",
	StateRegistered:    "registered",
	StateDisconnecting: "disconnecting",
	StateConnecting:    "connecting",
	StateConnected:     "connected",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}

	return "State(" + strconv.Itoa(int(s)) + ")"
}

// ParseState parses a state as printed by mmcli. Unknown names produce
// StateUnrecognized.
func ParseState(s string) State {
	for st, n := range stateNames {
		if st != StateUnrecognized && n == s {
			return st
		}
	}

	return StateUnrecognized
}

// StateFromInt converts a raw ModemManager state integer into a State.
func StateFromInt(v int) State {
	s := State(v)
	if s < StateFailed || s > StateConnected {
		return StateUnrecognized
	}

	return s
}

// A BearerStatus is the connection status of a bearer.
type BearerStatus int

// Possible BearerStatus values.
const (
	BearerUnrecognized BearerStatus = iota
	BearerDisconnected
	BearerConnected
)

func (s BearerStatus) String() string {
	switch s {
	case BearerDisconnected:
		return "no"
	case BearerConnected:
		return "yes"
	default:
		return "unrecognized"
	}
}

// ParseBearerStatus parses a bearer's "connected" status as printed by mmcli.
func ParseBearerStatus(s string) BearerStatus {
	switch s {
	case "yes":
		return BearerConnected
	case "no":
		return BearerDisconnected
	default:
		return BearerUnrecognized
	}
}

// An OperState is the operational state of a kernel interface.
type OperState int

// Possible OperState values.
const (
	OperUnknown OperState = iota
	OperUp
	OperDown
)

func (s OperState) String() string {
	switch s {
	case OperUp:
		return "UP"
	case OperDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// ParseOperState parses an interface operational state as printed by
// iproute2, such as "UP" or "DOWN".
func ParseOperState(s string) OperState {
	switch s {
	case "UP", "up":
		return OperUp
	case "DOWN", "down":
		return OperDown
	default:
		return OperUnknown
	}
}

// A LinkState is the administrative state requested for a kernel interface.
type LinkState bool

// Possible LinkState values.
const (
	LinkDown LinkState = false
	LinkUp   LinkState = true
)

func (s LinkState) String() string {
	if s {
		return "up"
	}

	return "down"
}

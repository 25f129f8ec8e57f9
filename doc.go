// Package wwan binds ModemManager modems to the kernel network interfaces
// they drive, and brings those cellular links up or down for routing traffic.
// MIT Licensed.
//
// Modem and kernel state are never cached: a Client queries its Daemon and
// Kernel afresh at every decision point and threads the resulting snapshots
// explicitly through each operation.
package wwan

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mdlayher/wwan"
	"github.com/mdlayher/wwan/internal/journal"
	"github.com/mdlayher/wwan/internal/output"
	"github.com/spf13/cobra"
)

func (a *app) lteCommand() *cobra.Command {
	r := &a.req

	cmd := &cobra.Command{
		Use:   "lte",
		Short: "Connect or disconnect a modem",
		Long: `Connect or disconnect a modem. Connecting asks ModemManager to bring up a
data session, then assigns the bearer's address to the bound interface, sets
it up and installs a default route through it. Disconnecting reverses this.

Both operations require root privileges.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{
			needsAnnotation: strings.Join([]string{needsRequest, needsBackends, needsJournal}, ","),
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			err := a.client.Run(ctx, *r)
			if jerr := a.record(ctx, *r, err); jerr != nil {
				a.log.WithError(jerr).Warn("failed to record journal entry")
			}
			if err != nil {
				return err
			}

			// Show the resulting binding so the new addressing is visible.
			b, err := a.client.Binding(ctx, r.Modem)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(output.Binding(b)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&r.Connect, "connect", "c", false, "connect the modem")
	cmd.Flags().BoolVarP(&r.Disconnect, "disconnect", "d", false, "disconnect the modem")
	cmd.Flags().StringVarP(&r.Modem, "modem", "m", "", "modem path, 0 for the first modem, or bound interface index or name (default 0)")
	cmd.Flags().StringVarP(&r.APN, "apn", "a", "", "access point name (default from config)")

	return cmd
}

// record appends the outcome of r to the journal, if one is configured.
// Requests rejected as invalid are not recorded.
func (a *app) record(ctx context.Context, r wwan.Request, err error) error {
	if a.journal == nil || r.Validate() != nil {
		return nil
	}

	e := journal.Entry{
		Op:    "disconnect",
		Modem: r.Modem,
	}
	if r.Connect {
		e.Op = "connect"
		e.APN = r.APN
		if e.APN == "" {
			e.APN = a.cfg.APN
		}
	}
	if e.Modem == "" {
		e.Modem = "0"
	}
	if err != nil {
		e.Error = err.Error()
	}

	// Capture the addressing of the binding on a best-effort basis.
	if b, berr := a.client.Binding(ctx, r.Modem); berr == nil {
		e.Interface = b.Interface.Name
		e.Address = b.Interface.FormatAddresses()
	}

	// The journal is written even if the command was interrupted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, jerr := a.journal.Record(ctx, e)
	return jerr
}

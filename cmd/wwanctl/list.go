package main

import (
	"fmt"

	"github.com/mdlayher/wwan"
	"github.com/mdlayher/wwan/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func (a *app) listModemCommand() *cobra.Command {
	var (
		id          int
		name, state string
	)

	cmd := &cobra.Command{
		Use:         "list-modem",
		Aliases:     []string{"modems"},
		Short:       "List modems and their bound interfaces",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsAnnotation: needsBackends},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			f := wwan.ModemFilter{
				ID:    ifChanged(fs, "id", &id),
				Name:  ifChanged(fs, "name", &name),
				State: ifChanged(fs, "state", &state),
			}

			ds, err := a.client.Devices(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(output.Modems(f.Filter(ds))))
			return nil
		},
	}

	cmd.Flags().IntVarP(&id, "id", "i", 0, "only show the modem bound to this interface index")
	cmd.Flags().StringVarP(&name, "name", "n", "", "only show the modem bound to this interface name")
	cmd.Flags().StringVarP(&state, "state", "s", "", "only show modems in this state: connected, disconnected")

	return cmd
}

func (a *app) listDeviceCommand() *cobra.Command {
	var (
		index          int
		name, linkType string
	)

	cmd := &cobra.Command{
		Use:         "list-device",
		Aliases:     []string{"devices"},
		Short:       "List kernel network interfaces",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsAnnotation: needsBackends},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			f := wwan.InterfaceFilter{
				Index:    ifChanged(fs, "id", &index),
				Name:     ifChanged(fs, "name", &name),
				LinkType: ifChanged(fs, "link-type", &linkType),
			}

			ifs, err := a.client.Interfaces(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(output.Devices(f.Filter(ifs))))
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "id", "i", 0, "only show the interface with this index")
	cmd.Flags().StringVarP(&name, "name", "n", "", "only show the interface with this name")
	cmd.Flags().StringVarP(&linkType, "link-type", "l", "", "only show interfaces of this link type, such as ether or none")

	return cmd
}

func (a *app) bindingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "binding [MODEM]",
		Short: "Show the interface a modem is bound to",
		Long: `Show the kernel network interface driven by a modem's network data port.
MODEM may be a modem object path, 0 for the first modem, or the index or name
of the bound interface as shown by list-modem. It defaults to modem 0.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{needsAnnotation: needsBackends},
		RunE: func(cmd *cobra.Command, args []string) error {
			var selector string
			if len(args) > 0 {
				selector = args[0]
			}

			b, err := a.client.Binding(cmd.Context(), selector)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(output.Binding(b)))
			return nil
		},
	}
}

// ifChanged returns v if flag name was set on the command line, so that
// unset flags leave a filter criterion empty.
func ifChanged[T any](fs *pflag.FlagSet, name string, v *T) *T {
	if !fs.Changed(name) {
		return nil
	}

	return v
}

package main

import (
	"errors"
	"fmt"

	"github.com/mdlayher/wwan/internal/output"
	"github.com/spf13/cobra"
)

func (a *app) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:         "history",
		Short:       "Show recorded connect and disconnect attempts",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsAnnotation: needsJournal},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.journal == nil {
				return errors.New("no journal configured: set journal in the config file or WWANCTL_JOURNAL")
			}

			es, err := a.journal.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(output.History(es)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries to show, 0 for all")

	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show wwanctl and ModemManager versions",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsAnnotation: needsBackends},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wwanctl version %s\n", version)

			v := a.be.DaemonVersion
			if v == "" {
				v = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ModemManager: %s (%s backend)\n", v, a.cfg.Daemon)
			return nil
		},
	}
}

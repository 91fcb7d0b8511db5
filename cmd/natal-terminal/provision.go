package main

import (
	"github.com/spf13/cobra"
)

func newProvisionCmd(a *app) *cobra.Command {
	var withTable bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Download and build the local place, time-zone and ephemeris data",
		Long: `Builds the zipcode table used for offline geocoding and the time-zone
boundary table used to resolve a birthplace's zone. The daily ephemeris table
is built when it is the configured source or --ephemeris is given.
Datasets that already exist are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provision(cmd.Context(), nil, withTable); err != nil {
				return err
			}
			cmd.Printf("Data ready in %s\n", a.cfg.DBPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&withTable, "ephemeris", false, "Also build the daily ephemeris table")
	return cmd
}

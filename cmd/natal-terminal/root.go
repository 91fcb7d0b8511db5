package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "natal-terminal",
		Short: "Natal charts in the terminal",
		Long: `natal-terminal calculates natal charts: planetary positions, house cusps,
angles and aspects for a birth date, time and place. Run without a command
to open the terminal viewer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory (overrides NATAL_DATA_DIR)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides NATAL_LOG_LEVEL)")

	root.AddCommand(
		newTUICmd(a),
		newChartCmd(a),
		newServeCmd(a),
		newProvisionCmd(a),
	)
	return root
}

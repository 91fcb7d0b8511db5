package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ngmaloney/natal-terminal/internal/config"
	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/ui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal chart viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

func (a *app) runTUI(ctx context.Context) error {
	needs, err := a.needsProvisioning()
	if err != nil {
		return err
	}

	var provider ephemeris.Provider
	if needs && a.cfg.EphemerisSource == config.SourceTable {
		// The table is filled by the provisioning screen before any chart is drawn
		db, err := database.Open(a.cfg.DBPath())
		if err != nil {
			return err
		}
		provider = ephemeris.NewTable(db)
	} else if provider, err = a.provider(); err != nil {
		return err
	}

	svc, err := a.profileService()
	if err != nil {
		return err
	}

	opts := ui.Options{
		Calculator:    a.calculator(provider),
		Profiles:      svc,
		DefaultSystem: a.cfg.System(),
	}
	if needs {
		opts.Provision = func(ctx context.Context, progress chan<- string) error {
			return a.provision(ctx, progress, false)
		}
	}

	p := tea.NewProgram(ui.NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

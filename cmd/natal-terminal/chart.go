package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
	"github.com/ngmaloney/natal-terminal/internal/ui"
)

type chartFlags struct {
	input   profiles.Input
	profile string
	asJSON  bool
}

func newChartCmd(a *app) *cobra.Command {
	var f chartFlags

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Calculate a natal chart and print it",
		Example: `  natal-terminal chart --date 1990-06-15 --time 14:30 --tz America/New_York --lat 40.7128 --lon -74.006
  natal-terminal chart --date 1990-06-15 --time 14:30 --place "Boston, MA" --save alice
  natal-terminal chart --profile alice --system whole-sign --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChart(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.input.Date, "date", "", "Birth date, YYYY-MM-DD")
	flags.StringVar(&f.input.Time, "time", "12:00", "Birth time, HH:MM[:SS] local to --tz")
	flags.StringVar(&f.input.TimeZone, "tz", "", "IANA zone or UTC offset; looked up from the coordinates when omitted")
	flags.StringVar(&f.input.Latitude, "lat", "", "Latitude, decimal or DMS, north positive")
	flags.StringVar(&f.input.Longitude, "lon", "", "Longitude, decimal or DMS, east positive")
	flags.StringVar(&f.input.Place, "place", "", "Birthplace to geocode when --lat/--lon are omitted")
	flags.StringVar(&f.input.HouseSystem, "system", "", "House system: placidus, koch, porphyry, equal, whole-sign")
	flags.StringVar(&f.input.Name, "save", "", "Save the birth data as a profile with this name")
	flags.StringVar(&f.profile, "profile", "", "Chart a saved profile instead of --date/--time/--place")
	flags.BoolVar(&f.asJSON, "json", false, "Print the chart as JSON")
	cmd.MarkFlagsMutuallyExclusive("profile", "date")
	cmd.MarkFlagsMutuallyExclusive("profile", "save")
	cmd.MarkFlagsOneRequired("profile", "date")

	return cmd
}

func (a *app) runChart(ctx context.Context, out io.Writer, f chartFlags) error {
	svc, err := a.profileService()
	if err != nil {
		return err
	}

	var p *models.Profile
	switch {
	case f.profile != "":
		saved, err := svc.GetProfile(ctx, f.profile)
		if err != nil {
			return err
		}
		p = &saved
	case f.input.Name != "":
		p, err = svc.CreateProfile(ctx, f.input)
	default:
		p, err = svc.Resolve(ctx, f.input)
	}
	if err != nil {
		return err
	}

	system := a.cfg.System()
	name := p.HouseSystem
	if f.input.HouseSystem != "" {
		name = f.input.HouseSystem
	}
	if name != "" {
		if system, err = houses.ParseSystem(name); err != nil {
			return err
		}
	}

	birth, err := p.BirthMoment()
	if err != nil {
		return err
	}
	provider, err := a.provider()
	if err != nil {
		return err
	}

	c, err := a.calculator(provider).Calculate(ctx, birth, system)
	if err != nil {
		return fmt.Errorf("calculating chart (%s): %w", models.CodeOf(err), err)
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Summary())
	}

	if p.Name != "" {
		fmt.Fprintf(out, "%s\n", p.Name)
	}
	if p.Place != "" {
		fmt.Fprintf(out, "%s\n", p.Place)
	}
	_, err = io.WriteString(out, ui.RenderChartText(c))
	return err
}

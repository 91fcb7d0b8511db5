package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/config"
	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/geocoding"
	"github.com/ngmaloney/natal-terminal/internal/logging"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
	"github.com/ngmaloney/natal-terminal/internal/tzlookup"
)

// app carries configuration and the logger shared by every command
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	// flag overrides
	dataDir  string
	logLevel string
}

// load reads the environment, applies flag overrides and builds the logger.
// The TUI logs to a file so it does not draw over the screen.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if cmd.Name() == "tui" || !cmd.HasParent() {
		a.logger, err = logging.NewFile(cfg.LogLevel, cfg.DataDir)
	} else {
		a.logger, err = logging.New(cfg.LogLevel)
	}
	return err
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err := database.CloseAll(); err != nil && a.logger != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
}

// provider returns the configured ephemeris source
func (a *app) provider() (ephemeris.Provider, error) {
	switch a.cfg.EphemerisSource {
	case config.SourceTable:
		return ephemeris.OpenTable(a.cfg.DBPath())
	case config.SourceHTTP:
		return ephemeris.NewHTTPClient(a.cfg.EphemerisURL, a.cfg.EphemerisTimeout()), nil
	default:
		return ephemeris.NewAnalytic(), nil
	}
}

func (a *app) calculator(provider ephemeris.Provider) *chart.Calculator {
	return chart.NewCalculator(provider, chart.Options{
		Policy:  a.cfg.Policy(),
		Aspects: a.cfg.AspectConfig(),
		Timeout: a.cfg.EphemerisTimeout(),
	}).WithLogger(a.logger)
}

// profileService wires storage, geocoding and time-zone lookup over the
// shared database
func (a *app) profileService() (*profiles.Service, error) {
	db, err := database.Open(a.cfg.DBPath())
	if err != nil {
		return nil, err
	}
	repo, err := profiles.NewRepository(db)
	if err != nil {
		return nil, err
	}
	geocoder := geocoding.NewGeocoder(db, geocoding.NewNominatimClient(a.cfg.NominatimURL, 0), a.logger)
	return profiles.NewService(repo, geocoder, tzlookup.NewResolver(db), a.logger), nil
}

// needsProvisioning reports whether any local dataset is missing. The
// ephemeris table only counts when it is the configured source.
func (a *app) needsProvisioning() (bool, error) {
	dbPath := a.cfg.DBPath()
	checks := []func(string) (bool, error){geocoding.NeedsProvisioning, tzlookup.NeedsProvisioning}
	if a.cfg.EphemerisSource == config.SourceTable {
		checks = append(checks, ephemeris.NeedsProvisioning)
	}
	for _, needs := range checks {
		n, err := needs(dbPath)
		if err != nil {
			return false, err
		}
		if n {
			return true, nil
		}
	}
	return false, nil
}

// provision builds every missing dataset. Each step is a no-op when its
// table already exists.
func (a *app) provision(ctx context.Context, progress chan<- string, withTable bool) error {
	dbPath := a.cfg.DBPath()

	if err := geocoding.ProvisionZipcodeDatabase(ctx, dbPath, a.logger, progress); err != nil {
		return fmt.Errorf("provisioning zipcodes: %w", err)
	}
	if err := tzlookup.ProvisionBoundaries(ctx, dbPath, a.logger, progress); err != nil {
		return fmt.Errorf("provisioning time-zone boundaries: %w", err)
	}
	if withTable || a.cfg.EphemerisSource == config.SourceTable {
		if err := ephemeris.ProvisionTable(ctx, dbPath, a.cfg.TableStartYear, a.cfg.TableEndYear, a.logger, progress); err != nil {
			return fmt.Errorf("provisioning ephemeris: %w", err)
		}
	}
	return nil
}

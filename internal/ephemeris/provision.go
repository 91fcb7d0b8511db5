package ephemeris

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/julian"
)

var provisionMu sync.Mutex

// NeedsProvisioning checks if the ephemeris table needs to be provisioned
func NeedsProvisioning(dbPath string) (bool, error) {
	return database.NeedsTable(dbPath, tableName)
}

// ProvisionTable computes daily positions for every body from startYear
// through endYear with the analytic provider and stores them in dbPath
func ProvisionTable(ctx context.Context, dbPath string, startYear, endYear int, logger *zap.Logger, progressChan chan<- string) error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	if endYear < startYear {
		return fmt.Errorf("ephemeris end year %d is before start year %d", endYear, startYear)
	}

	needs, err := NeedsProvisioning(dbPath)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	sendProgress := progressFunc(logger, progressChan)
	sendProgress("Ephemeris table not found, provisioning...")

	db, err := GetDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database for building: %w", err)
	}

	start := julian.FromTime(time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC))
	end := julian.FromTime(time.Date(endYear+1, 1, 1, 0, 0, 0, 0, time.UTC))

	sendProgress(fmt.Sprintf("Computing ephemeris %d-%d...", startYear, endYear))
	if err := buildTable(ctx, db, NewAnalytic(), start, end, sendProgress); err != nil {
		return fmt.Errorf("building ephemeris table: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned ephemeris table at %s", dbPath))
	return nil
}

// progressFunc reports to the TUI channel when present, otherwise to the log
func progressFunc(logger *zap.Logger, progressChan chan<- string) func(string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(msg string) {
		if progressChan != nil {
			progressChan <- msg
		} else {
			logger.Info(msg)
		}
	}
}

// buildTable creates the ephemeris table and fills rows for each day in [start, end]
func buildTable(ctx context.Context, db *sql.DB, src Provider, start, end julian.Day, progress func(string)) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ephemeris (
			jd REAL NOT NULL,
			body TEXT NOT NULL,
			longitude REAL NOT NULL,
			speed REAL NOT NULL,
			PRIMARY KEY (body, jd)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating ephemeris table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on error

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO ephemeris (jd, body, longitude, speed) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	days := 0
	for jd := start; jd <= end; jd++ {
		for _, b := range Bodies() {
			p, err := src.Position(ctx, jd, b)
			if err != nil {
				return fmt.Errorf("computing %s at JD %.1f: %w", b, float64(jd), err)
			}
			if _, err := stmt.ExecContext(ctx, float64(jd), b.Key(), p.Longitude, p.Speed); err != nil {
				return fmt.Errorf("inserting %s at JD %.1f: %w", b, float64(jd), err)
			}
		}
		days++
		if days%3650 == 0 && progress != nil {
			progress(fmt.Sprintf("Computed %d days (through %s)...", days, jd.Time().Format("2006-01-02")))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if progress != nil {
		progress(fmt.Sprintf("Successfully stored %d days of positions", days))
	}
	return nil
}

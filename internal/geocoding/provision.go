package geocoding

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/database"
)

// ZipcodeCSVURL is the free US zipcode gazetteer the table is built from
var ZipcodeCSVURL = "https://raw.githubusercontent.com/midwire/free_zipcode_data/develop/all_us_zipcodes.csv"

// GetDB is a function variable to allow mocking in tests
var GetDB = database.Open

var provisionMu sync.Mutex

// NeedsProvisioning checks if the zipcode table needs to be provisioned
func NeedsProvisioning(dbPath string) (bool, error) {
	return database.NeedsTable(dbPath, tableName)
}

// ProvisionZipcodeDatabase downloads the gazetteer and builds the zipcode table
func ProvisionZipcodeDatabase(ctx context.Context, dbPath string, logger *zap.Logger, progressChan chan<- string) error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	needs, err := NeedsProvisioning(dbPath)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	sendProgress := func(msg string) {
		if progressChan != nil {
			progressChan <- msg
		} else if logger != nil {
			logger.Info(msg)
		}
	}

	sendProgress("Zipcode table not found, provisioning...")

	db, err := GetDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database for building: %w", err)
	}

	sendProgress(fmt.Sprintf("Downloading zipcode data from %s...", ZipcodeCSVURL))
	req, err := http.NewRequestWithContext(ctx, "GET", ZipcodeCSVURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading zipcode CSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading zipcode CSV: HTTP error: %d", resp.StatusCode)
	}

	sendProgress("Building zipcode database...")
	count, err := buildZipcodeTable(ctx, db, resp.Body)
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned %d zipcodes at %s", count, dbPath))
	return nil
}

// buildZipcodeTable creates the zipcodes table from the gazetteer CSV
func buildZipcodeTable(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Rollback on error

	// The table only appears once fully loaded
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS zipcodes (
			zipcode TEXT PRIMARY KEY,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_zipcodes_city_state ON zipcodes(city COLLATE NOCASE, state COLLATE NOCASE);
	`)
	if err != nil {
		return 0, fmt.Errorf("creating table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO zipcodes (zipcode, city, state, latitude, longitude) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue // Skip invalid records
		}

		// CSV format: Zipcode,ZipCodeType,City,State,LocationType,Lat,Long,...
		if len(record) < 7 {
			continue
		}

		lat, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			continue
		}

		if _, err := stmt.ExecContext(ctx, record[0], record[2], record[3], lat, lon); err != nil {
			return count, fmt.Errorf("inserting zipcode %s: %w", record[0], err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

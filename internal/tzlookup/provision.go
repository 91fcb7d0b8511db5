package tzlookup

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/database"
)

// BoundaryURL is the timezone-boundary-builder shapefile release
var BoundaryURL = "https://github.com/evansiroky/timezone-boundary-builder/releases/download/2024a/timezones-with-oceans.shapefile.zip"

// GetDB is a function variable to allow mocking in tests
var GetDB = database.Open

var provisionMu sync.Mutex

// NeedsProvisioning checks if the boundary table needs to be provisioned
func NeedsProvisioning(dbPath string) (bool, error) {
	return database.NeedsTable(dbPath, tableName)
}

// ProvisionBoundaries downloads the boundary shapefile and builds the
// tz_boundaries table in dbPath
func ProvisionBoundaries(ctx context.Context, dbPath string, logger *zap.Logger, progressChan chan<- string) error {
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

	sendProgress("Time-zone boundaries not found, provisioning...")

	db, err := GetDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database for building: %w", err)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(dbPath), "tz-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	zipPath := filepath.Join(workDir, "timezones.zip")
	sendProgress(fmt.Sprintf("Downloading time-zone boundaries from %s...", BoundaryURL))
	if err := downloadFile(ctx, zipPath, BoundaryURL); err != nil {
		return fmt.Errorf("downloading shapefile: %w", err)
	}

	sendProgress("Extracting shapefile...")
	shapefilePath, err := unzipShapefile(zipPath, workDir)
	if err != nil {
		return fmt.Errorf("extracting shapefile: %w", err)
	}

	sendProgress("Building time-zone database...")
	count, err := buildTable(ctx, db, shapefilePath)
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned %d time-zone polygons at %s", count, dbPath))
	return nil
}

// downloadFile downloads a file from a URL to a local path
func downloadFile(ctx context.Context, path, url string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// unzipShapefile extracts src into dest and returns the path of the .shp inside
func unzipShapefile(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	shpPath := ""
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)

		// Check for ZipSlip vulnerability
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return "", err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return "", err
		}
		if err := extractFile(f, fpath); err != nil {
			return "", err
		}
		if strings.EqualFold(filepath.Ext(fpath), ".shp") {
			shpPath = fpath
		}
	}

	if shpPath == "" {
		return "", fmt.Errorf("no .shp file in %s", filepath.Base(src))
	}
	return shpPath, nil
}

func extractFile(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// buildTable loads every polygon of the shapefile into tz_boundaries
func buildTable(ctx context.Context, db *sql.DB, shapefilePath string) (int, error) {
	shape, err := shp.Open(shapefilePath)
	if err != nil {
		return 0, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	tzField := -1
	for i, f := range shape.Fields() {
		if strings.EqualFold(f.String(), "tzid") {
			tzField = i
			break
		}
	}
	if tzField < 0 {
		return 0, fmt.Errorf("shapefile has no tzid field")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Rollback on error

	if err := createTable(ctx, tx); err != nil {
		return 0, err
	}

	count := 0
	for shape.Next() {
		n, p := shape.Shape()

		polygon, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}
		tzid := strings.TrimSpace(shape.ReadAttribute(n, tzField))
		if tzid == "" {
			continue
		}

		if err := insertBoundary(ctx, tx, tzid, polygonRings(polygon)); err != nil {
			return count, fmt.Errorf("inserting %s: %w", tzid, err)
		}
		count++
	}
	if err := shape.Err(); err != nil {
		return count, fmt.Errorf("reading shapefile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

// polygonRings splits a shapefile polygon into its parts; outer rings and
// holes are kept alike
func polygonRings(polygon *shp.Polygon) []ring {
	rings := make([]ring, 0, len(polygon.Parts))
	for partIdx := range polygon.Parts {
		startIdx := int(polygon.Parts[partIdx])
		endIdx := len(polygon.Points)
		if partIdx+1 < len(polygon.Parts) {
			endIdx = int(polygon.Parts[partIdx+1])
		}

		rg := make(ring, 0, endIdx-startIdx)
		for _, pt := range polygon.Points[startIdx:endIdx] {
			rg = append(rg, [2]float64{pt.X, pt.Y})
		}
		rings = append(rings, rg)
	}
	return rings
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createTable(ctx context.Context, db execer) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tz_boundaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tzid TEXT NOT NULL,
			geometry TEXT NOT NULL,
			bbox_min_lat REAL NOT NULL,
			bbox_max_lat REAL NOT NULL,
			bbox_min_lon REAL NOT NULL,
			bbox_max_lon REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tz_bbox ON tz_boundaries(
			bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon
		);
	`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// insertBoundary stores one zone's rings with their bounding box
func insertBoundary(ctx context.Context, db execer, tzid string, rings []ring) error {
	minLat, maxLat := 90.0, -90.0
	minLon, maxLon := 180.0, -180.0
	for _, rg := range rings {
		for _, p := range rg {
			minLon, maxLon = min(minLon, p[0]), max(maxLon, p[0])
			minLat, maxLat = min(minLat, p[1]), max(maxLat, p[1])
		}
	}

	geometryJSON, err := json.Marshal(rings)
	if err != nil {
		return fmt.Errorf("marshaling geometry: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tz_boundaries (
			tzid, geometry, bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon
		) VALUES (?, ?, ?, ?, ?, ?)
	`, tzid, string(geometryJSON), minLat, maxLat, minLon, maxLon)
	return err
}

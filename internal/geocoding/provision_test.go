package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ngmaloney/natal-terminal/internal/database"
)

func TestProvisionZipcodeDatabase(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	oldURL := ZipcodeCSVURL
	ZipcodeCSVURL = server.URL
	defer func() { ZipcodeCSVURL = oldURL }()

	dbPath := filepath.Join(t.TempDir(), database.FileName)
	defer database.CloseAll()

	needs, err := NeedsProvisioning(dbPath)
	if err != nil || !needs {
		t.Fatalf("NeedsProvisioning() = %v, %v; want true, nil", needs, err)
	}

	progress := make(chan string, 16)
	if err := ProvisionZipcodeDatabase(context.Background(), dbPath, nil, progress); err != nil {
		t.Fatalf("ProvisionZipcodeDatabase() error = %v", err)
	}
	close(progress)
	var messages []string
	for msg := range progress {
		messages = append(messages, msg)
	}
	if len(messages) < 2 {
		t.Errorf("progress messages = %v, want several", messages)
	}

	needs, err = NeedsProvisioning(dbPath)
	if err != nil || needs {
		t.Fatalf("NeedsProvisioning() after provisioning = %v, %v; want false, nil", needs, err)
	}

	// Second run is a no-op
	if err := ProvisionZipcodeDatabase(context.Background(), dbPath, nil, nil); err != nil {
		t.Fatalf("second ProvisionZipcodeDatabase() error = %v", err)
	}
	if requests != 1 {
		t.Errorf("downloads = %d, want 1", requests)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	loc, err := NewGeocoder(db, nil, nil).Geocode(context.Background(), "10001")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if loc.Name != "New York, NY 10001" {
		t.Errorf("Geocode().Name = %q", loc.Name)
	}
}

func TestProvisionZipcodeDatabase_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	oldURL := ZipcodeCSVURL
	ZipcodeCSVURL = server.URL
	defer func() { ZipcodeCSVURL = oldURL }()

	dbPath := filepath.Join(t.TempDir(), database.FileName)
	defer database.CloseAll()

	if err := ProvisionZipcodeDatabase(context.Background(), dbPath, nil, nil); err == nil {
		t.Fatal("ProvisionZipcodeDatabase() expected error, got nil")
	}
	needs, err := NeedsProvisioning(dbPath)
	if err != nil || !needs {
		t.Errorf("NeedsProvisioning() after failure = %v, %v; want true, nil", needs, err)
	}
}

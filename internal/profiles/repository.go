// Package profiles stores named birth data and builds it from user input
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/models"
)

// ErrNotFound is returned when no profile has the requested name
var ErrNotFound = errors.New("profile not found")

// Repository handles persistence for saved birth profiles
type Repository struct {
	db *sql.DB
}

// NewRepository ensures the user schema exists in db
func NewRepository(db *sql.DB) (*Repository, error) {
	if err := database.EnsureUserSchema(db); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Save inserts a profile, replacing any existing profile with the same name
func (r *Repository) Save(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO user_profiles (name, birth_date, birth_time, time_zone, place, latitude, longitude, house_system, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			birth_date = excluded.birth_date,
			birth_time = excluded.birth_time,
			time_zone = excluded.time_zone,
			place = excluded.place,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			house_system = excluded.house_system,
			created_at = excluded.created_at
	`

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.BirthDate,
		p.BirthTime,
		p.TimeZone,
		p.Place,
		p.Latitude,
		p.Longitude,
		p.HouseSystem,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	// LastInsertId is unreliable on the update path
	if err := r.db.QueryRowContext(ctx, "SELECT id FROM user_profiles WHERE name = ?", p.Name).Scan(&p.ID); err != nil {
		return fmt.Errorf("reading profile id: %w", err)
	}
	return nil
}

const selectProfile = `SELECT id, name, birth_date, birth_time, time_zone, place, latitude, longitude, house_system, created_at FROM user_profiles`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (models.Profile, error) {
	var p models.Profile
	var place, system sql.NullString // Handle potential nulls
	if err := s.Scan(&p.ID, &p.Name, &p.BirthDate, &p.BirthTime, &p.TimeZone, &place, &p.Latitude, &p.Longitude, &system, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Place = place.String
	p.HouseSystem = system.String
	return p, nil
}

// List retrieves all saved profiles ordered by name
func (r *Repository) List(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfile+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	return profiles, nil
}

// Get retrieves one profile by name
func (r *Repository) Get(ctx context.Context, name string) (models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile+" WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// Delete removes a profile by name
func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_profiles WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

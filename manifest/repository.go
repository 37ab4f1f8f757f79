// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clenio77/rota-facil/spatial"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrManifestNotFound is returned when no manifest has the requested id.
var ErrManifestNotFound = errors.New("manifest not found")

// Repository stores parsed manifests.
type Repository interface {
	// CreateSchema creates the database schema.
	CreateSchema() error
	// SaveManifest stores m, replacing any manifest with the same id. A new
	// id is assigned when m has none.
	SaveManifest(m *Manifest) (string, error)
	// GetManifest returns the manifest with its items in sequence order.
	GetManifest(id string) (*Manifest, error)
	// ListManifests returns a summary of every manifest, newest first.
	ListManifests() ([]*Summary, error)
	// UpdateGeocoding stores the geocoding outcome of the given items.
	UpdateGeocoding(id string, items []*DeliveryItem) error
	// CountManifests returns the number of stored manifests.
	CountManifests() (int, error)
}

// Summary describes a stored manifest without its items.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Header    Header    `json:"header"`
	Items     int       `json:"items"`
	Geocoded  int       `json:"geocoded"`
	Flagged   int       `json:"flagged"`
}

type sqlRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository over a DuckDB connection.
func NewSQLRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS manifests (
			id VARCHAR PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			list_number VARCHAR,
			unit_code VARCHAR,
			unit_name VARCHAR,
			district VARCHAR,
			city VARCHAR,
			state CHAR(2)
		);

		CREATE TABLE IF NOT EXISTS items (
			manifest_id VARCHAR NOT NULL,
			sequence INTEGER NOT NULL,
			list_position INTEGER,
			object_code VARCHAR NOT NULL,
			raw_address_line VARCHAR,
			normalized_address VARCHAR,
			cep VARCHAR NOT NULL,
			ar_required BOOLEAN NOT NULL,
			destination_hint VARCHAR,
			lat DOUBLE,
			lng DOUBLE,
			h3_cell UBIGINT,
			geocoding_error VARCHAR,
			flags VARCHAR[],
			PRIMARY KEY (manifest_id, sequence)
		);
	`)

	return err
}

func nve(v string) any {
	if v == "" {
		return nil
	}

	return v
}

func nz(v int) any {
	if v == 0 {
		return nil
	}

	return v
}

func flagsToStrings(flags []Flag) []string {
	var ret []string
	for _, f := range flags {
		ret = append(ret, string(f))
	}

	return ret
}

func flagsFromAny(v any) []Flag {
	l, ok := v.([]any)
	if !ok {
		return nil
	}

	var ret []Flag

	for _, e := range l {
		if s, ok := e.(string); ok {
			ret = append(ret, Flag(s))
		}
	}

	return ret
}

// pointColumns returns lat, lng and the H3 cell, or NULLs.
func pointColumns(p *spatial.Point) (any, any, any) {
	if p == nil {
		return nil, nil, nil
	}

	return p.Lat, p.Lng, p.Cell(spatial.DefaultCellResolution)
}

func (r *sqlRepository) SaveManifest(m *Manifest) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction for %s: %w", m.ID, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error().Err(err).Str("manifest", m.ID).Msg("rollback failed")
		}
	}()

	for _, q := range []string{
		"DELETE FROM items WHERE manifest_id = ?",
		"DELETE FROM manifests WHERE id = ?",
	} {
		if _, err := tx.Exec(q, m.ID); err != nil {
			return "", fmt.Errorf("deleting manifest %s: %w", m.ID, err)
		}
	}

	h := m.Header
	if _, err := tx.Exec(`
		INSERT INTO manifests (id, created_at, list_number, unit_code, unit_name, district, city, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CreatedAt, nve(h.ListNumber), nve(h.UnitCode), nve(h.UnitName),
		nve(h.District), nve(h.City), nve(h.State),
	); err != nil {
		return "", fmt.Errorf("inserting manifest %s: %w", m.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (
			manifest_id, sequence, list_position, object_code, raw_address_line,
			normalized_address, cep, ar_required, destination_hint,
			lat, lng, h3_cell, geocoding_error, flags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range m.Items {
		lat, lng, cell := pointColumns(item.Coordinates)

		if _, err := stmt.Exec(
			m.ID,
			item.Sequence,
			nz(item.ListPosition),
			item.ObjectCode,
			nve(item.RawAddressLine),
			nve(item.NormalizedAddress),
			item.CEP,
			item.ARRequired,
			nve(item.DestinationHint),
			lat,
			lng,
			cell,
			nve(item.GeocodingError),
			flagsToStrings(item.Flags),
		); err != nil {
			return "", fmt.Errorf("inserting item %d of %s: %w", item.Sequence, m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing %s: %w", m.ID, err)
	}

	return m.ID, nil
}

func (r *sqlRepository) GetManifest(id string) (*Manifest, error) {
	m := &Manifest{ID: id}

	var listNumber, unitCode, unitName, district, city, state sql.NullString

	err := r.db.QueryRow(`
		SELECT created_at, list_number, unit_code, unit_name, district, city, state
		FROM manifests WHERE id = ?`, id,
	).Scan(&m.CreatedAt, &listNumber, &unitCode, &unitName, &district, &city, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("querying manifest %s: %w", id, err)
	}

	m.Header = Header{
		ListNumber: listNumber.String,
		UnitCode:   unitCode.String,
		UnitName:   unitName.String,
		District:   district.String,
		City:       city.String,
		State:      state.String,
	}

	rows, err := r.db.Query(`
		SELECT
			sequence, list_position, object_code, raw_address_line, normalized_address,
			cep, ar_required, destination_hint, lat, lng, geocoding_error, flags
		FROM items
		WHERE manifest_id = ?
		ORDER BY sequence`, id)
	if err != nil {
		return nil, fmt.Errorf("querying items of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                                DeliveryItem
			listPosition                        sql.NullInt64
			raw, normalized, hint, geocodingErr sql.NullString
			lat, lng                            sql.NullFloat64
			flags                               any
		)

		if err := rows.Scan(
			&item.Sequence, &listPosition, &item.ObjectCode, &raw, &normalized,
			&item.CEP, &item.ARRequired, &hint, &lat, &lng, &geocodingErr, &flags,
		); err != nil {
			return nil, fmt.Errorf("scanning item of %s: %w", id, err)
		}

		item.ListPosition = int(listPosition.Int64)
		item.RawAddressLine = raw.String
		item.NormalizedAddress = normalized.String
		item.DestinationHint = hint.String
		item.GeocodingError = geocodingErr.String
		item.Flags = flagsFromAny(flags)

		if lat.Valid && lng.Valid {
			item.Coordinates = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		m.Items = append(m.Items, &item)
	}

	return m, rows.Err()
}

func (r *sqlRepository) ListManifests() ([]*Summary, error) {
	rows, err := r.db.Query(`
		SELECT
			m.id, m.created_at, m.list_number, m.unit_code, m.unit_name, m.district, m.city, m.state,
			COUNT(i.sequence),
			COUNT(i.lat),
			COUNT(i.sequence) FILTER (WHERE len(i.flags) > 0)
		FROM manifests m
		LEFT JOIN items i ON i.manifest_id = m.id
		GROUP BY ALL
		ORDER BY m.created_at DESC, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing manifests: %w", err)
	}
	defer rows.Close()

	var ret []*Summary

	for rows.Next() {
		var (
			s                                                     Summary
			listNumber, unitCode, unitName, district, city, state sql.NullString
		)

		if err := rows.Scan(
			&s.ID, &s.CreatedAt, &listNumber, &unitCode, &unitName, &district, &city, &state,
			&s.Items, &s.Geocoded, &s.Flagged,
		); err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}

		s.Header = Header{
			ListNumber: listNumber.String,
			UnitCode:   unitCode.String,
			UnitName:   unitName.String,
			District:   district.String,
			City:       city.String,
			State:      state.String,
		}
		ret = append(ret, &s)
	}

	return ret, rows.Err()
}

func (r *sqlRepository) UpdateGeocoding(id string, items []*DeliveryItem) error {
	stmt, err := r.db.Prepare(`
		UPDATE items
		SET lat = ?, lng = ?, h3_cell = ?, geocoding_error = ?
		WHERE manifest_id = ? AND sequence = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		lat, lng, cell := pointColumns(item.Coordinates)

		res, err := stmt.Exec(lat, lng, cell, nve(item.GeocodingError), id, item.Sequence)
		if err != nil {
			return fmt.Errorf("updating item %d of %s: %w", item.Sequence, id, err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s item %d", ErrManifestNotFound, id, item.Sequence)
		}
	}

	return nil
}

func (r *sqlRepository) CountManifests() (int, error) {
	var count int

	if err := r.db.QueryRow("SELECT COUNT(*) FROM manifests").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting manifests: %w", err)
	}

	return count, nil
}

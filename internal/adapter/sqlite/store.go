// Package sqlite persists releases, calculation history, and receptors in a
// single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS releases (
	id            TEXT PRIMARY KEY,
	chemical_id   TEXT NOT NULL,
	kind          TEXT NOT NULL,
	latitude      REAL NOT NULL,
	longitude     REAL NOT NULL,
	status        TEXT NOT NULL,
	created_by    TEXT,
	start_time    TIMESTAMP NOT NULL,
	end_time      TIMESTAMP,
	payload       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calculations (
	id            TEXT PRIMARY KEY,
	release_id    TEXT NOT NULL REFERENCES releases(id),
	model         TEXT NOT NULL,
	calculated_at TIMESTAMP NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculations_release
	ON calculations(release_id, calculated_at);

CREATE TABLE IF NOT EXISTS receptor_impacts (
	calculation_id TEXT NOT NULL REFERENCES calculations(id),
	receptor_id    TEXT NOT NULL,
	payload        TEXT NOT NULL,
	PRIMARY KEY (calculation_id, receptor_id)
);

CREATE TABLE IF NOT EXISTS receptors (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	height      REAL NOT NULL DEFAULT 0,
	sensitivity TEXT NOT NULL,
	population  INTEGER NOT NULL DEFAULT 0,
	active      INTEGER NOT NULL DEFAULT 1
);
`

// Store is the SQLite-backed implementation of domain.CalculationStore and
// domain.ReceptorStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and bootstraps the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRelease stores a new release. The full event is kept as JSON
// alongside the indexed columns.
func (s *Store) CreateRelease(ctx context.Context, rel domain.ReleaseEvent) error {
	payload, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("serialize release: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO releases (id, chemical_id, kind, latitude, longitude, status, created_by, start_time, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.ChemicalID, string(rel.Kind), rel.Latitude, rel.Longitude,
		string(rel.Status), rel.CreatedBy, rel.StartTime.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("insert release: %w", err)
	}
	return nil
}

// UpdateReleaseStatus marks a release ended.
func (s *Store) UpdateReleaseStatus(ctx context.Context, releaseID string, status domain.ReleaseStatus, endTime time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE releases SET status = ?, end_time = ? WHERE id = ?`,
		string(status), endTime.UTC(), releaseID)
	if err != nil {
		return fmt.Errorf("update release status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReleaseNotFound, releaseID)
	}
	return nil
}

// PersistCalculation appends one calculation and its receptor impacts in a
// single transaction. Replays of an already-stored result ID are ignored,
// keeping retried writes idempotent.
func (s *Store) PersistCalculation(ctx context.Context, result domain.DispersionResult, impacts []domain.ReceptorImpact) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serialize calculation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO calculations (id, release_id, model, calculated_at, payload)
		VALUES (?, ?, ?, ?, ?)`,
		result.ID, result.ReleaseID, string(result.Model), result.CalculatedAt.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already stored; the impacts were written with it.
		return tx.Commit()
	}

	for _, imp := range impacts {
		impPayload, err := json.Marshal(imp)
		if err != nil {
			return fmt.Errorf("serialize impact: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO receptor_impacts (calculation_id, receptor_id, payload)
			VALUES (?, ?, ?)`,
			result.ID, imp.ReceptorID, string(impPayload)); err != nil {
			return fmt.Errorf("insert impact: %w", err)
		}
	}
	return tx.Commit()
}

// ListActiveReceptorsNear returns the active receptors within radiusM of a
// point. A bounding box narrows the scan; the haversine distance makes the
// final cut.
func (s *Store) ListActiveReceptorsNear(ctx context.Context, lat, lon, radiusM float64) ([]domain.Receptor, error) {
	const metersPerDegLat = 111194.9
	dLat := radiusM / metersPerDegLat
	dLon := radiusM / (metersPerDegLat * math.Max(math.Cos(lat*math.Pi/180), 0.01))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, latitude, longitude, height, sensitivity, population
		FROM receptors
		WHERE active = 1
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?`,
		lat-dLat, lat+dLat, lon-dLon, lon+dLon)
	if err != nil {
		return nil, fmt.Errorf("query receptors: %w", err)
	}
	defer rows.Close()

	var receptors []domain.Receptor
	for rows.Next() {
		var r domain.Receptor
		var rtype, sensitivity string
		if err := rows.Scan(&r.ID, &r.Name, &rtype, &r.Latitude, &r.Longitude, &r.Height, &sensitivity, &r.Population); err != nil {
			return nil, fmt.Errorf("scan receptor: %w", err)
		}
		r.Type = domain.ReceptorType(rtype)
		r.Sensitivity = domain.SensitivityLevel(sensitivity)
		if haversineM(lat, lon, r.Latitude, r.Longitude) <= radiusM {
			receptors = append(receptors, r)
		}
	}
	return receptors, rows.Err()
}

// UpsertReceptor inserts or replaces a receptor definition.
func (s *Store) UpsertReceptor(ctx context.Context, r domain.Receptor, active bool) error {
	activeFlag := 0
	if active {
		activeFlag = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receptors (id, name, type, latitude, longitude, height, sensitivity, population, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, type = excluded.type,
			latitude = excluded.latitude, longitude = excluded.longitude,
			height = excluded.height, sensitivity = excluded.sensitivity,
			population = excluded.population, active = excluded.active`,
		r.ID, r.Name, string(r.Type), r.Latitude, r.Longitude, r.Height,
		string(r.Sensitivity), r.Population, activeFlag)
	if err != nil {
		return fmt.Errorf("upsert receptor: %w", err)
	}
	return nil
}

// CalculationHistory returns up to limit stored calculations for a release,
// newest first.
func (s *Store) CalculationHistory(ctx context.Context, releaseID string, limit int) ([]domain.DispersionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM calculations
		WHERE release_id = ?
		ORDER BY calculated_at DESC
		LIMIT ?`, releaseID, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	var results []domain.DispersionResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		var result domain.DispersionResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("deserialize calculation: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dPhi := rad(lat2 - lat1)
	dLambda := rad(lon2 - lon1)
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

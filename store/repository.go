// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/spatial"
	"github.com/jcodagnone/geodedup/utils"
)

// H3 resolutions stored per point: ~5km², ~0.1km² and ~2000m² hexagons.
var cellResolutions = [...]int{7, 9, 11}

// Record is a stored point.
type Record struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Point     spatial.Point `json:"point"`
	Criterion float64       `json:"criterion"`
	Dropped   bool          `json:"dropped"`
	H3Res7    int64         `json:"-"`
	H3Res9    int64         `json:"-"`
	H3Res11   int64         `json:"-"`
}

func (rec *Record) computeH3() error {
	cells := [len(cellResolutions)]int64{}

	for i, res := range cellResolutions {
		cell, err := rec.Point.Cell(res)
		if err != nil {
			return err
		}

		cells[i] = int64(cell)
	}

	rec.H3Res7, rec.H3Res9, rec.H3Res11 = cells[0], cells[1], cells[2]

	return nil
}

// Run is one resolver execution over the stored points.
type Run struct {
	ID         int       `json:"id"`
	Threshold  float64   `json:"threshold"`
	Points     int       `json:"points"`
	Dropped    int       `json:"dropped"`
	Iterations int       `json:"iterations"`
	CreatedAt  time.Time `json:"created_at"`
}

// Columns names the CSV columns holding each field.
type Columns struct {
	Lat       string
	Lng       string
	Criterion string // empty means every criterion is 0
	Name      string // optional, ignored when absent from the file
}

// DefaultColumns matches the layout of the store scraper exports.
func DefaultColumns() Columns {
	return Columns{
		Lat:       "latitude",
		Lng:       "longitude",
		Criterion: "comments",
		Name:      "name",
	}
}

// PointRepository handles persistence of points and resolver runs.
type PointRepository interface {
	// CreateSchema creates the points, runs and run_drops tables
	CreateSchema() error

	// ImportCSV replaces every stored point (and run) with the rows of a CSV file
	ImportCSV(path string, cols Columns) (int, error)

	// ListPoints returns all points ordered by ID
	ListPoints() ([]*Record, error)

	// SaveRun stores a run with its dropped point IDs and flags those points
	SaveRun(run *Run, drop []int) error

	// ListRuns returns all runs, newest first
	ListRuns() ([]*Run, error)

	// RunDrops returns the dropped point IDs of a run
	RunDrops(runID int) ([]int, error)

	// ExportPointsCSV writes the points with the given IDs to a CSV file,
	// ignoring the dropped flags
	ExportPointsCSV(path string, ids []int) (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlPointRepository struct {
	db *sql.DB
}

// NewPointRepository creates a new point repository.
func NewPointRepository(db *sql.DB) PointRepository {
	return &sqlPointRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlPointRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlPointRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS runs_seq START 1;

		CREATE TABLE IF NOT EXISTS points (
			id INTEGER NOT NULL,
			name VARCHAR NOT NULL DEFAULT '',
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			criterion DOUBLE NOT NULL DEFAULT 0,
			dropped BOOLEAN NOT NULL DEFAULT FALSE,
			h3_res7 BIGINT,
			h3_res9 BIGINT,
			h3_res11 BIGINT
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY DEFAULT nextval('runs_seq'),
			threshold DOUBLE NOT NULL,
			points INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS run_drops (
			run_id INTEGER NOT NULL,
			point_id INTEGER NOT NULL,
			PRIMARY KEY (run_id, point_id)
		);
	`)

	return err
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// header returns the column names DuckDB detects for source.
func (r *sqlPointRepository) header(source string) ([]string, error) {
	rows, err := r.db.Query("SELECT * FROM " + source + " LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows.Columns()
}

func requireColumn(header []string, want, path string) (string, error) {
	col, ok := utils.MatchColumn(header, want)
	if !ok {
		return "", fmt.Errorf("column %q not found in %s (have: %s)", want, path, strings.Join(header, ", "))
	}

	return quoteIdent(col), nil
}

func (r *sqlPointRepository) ImportCSV(path string, cols Columns) (int, error) {
	source := "read_csv_auto(" + quoteLiteral(path) + ")"

	header, err := r.header(source)
	if err != nil {
		return 0, fmt.Errorf("reading header of %s: %w", path, err)
	}

	latExpr, err := requireColumn(header, cols.Lat, path)
	if err != nil {
		return 0, err
	}

	lngExpr, err := requireColumn(header, cols.Lng, path)
	if err != nil {
		return 0, err
	}

	criterionExpr := "0.0"
	if cols.Criterion != "" {
		col, err := requireColumn(header, cols.Criterion, path)
		if err != nil {
			return 0, err
		}

		criterionExpr = fmt.Sprintf("COALESCE(TRY_CAST(%s AS DOUBLE), 0)", col)
	}

	nameExpr := "''"
	if col, ok := utils.MatchColumn(header, cols.Name); cols.Name != "" && ok {
		nameExpr = fmt.Sprintf("COALESCE(CAST(%s AS VARCHAR), '')", quoteIdent(col))
	}

	records, err := r.readSource(source, latExpr, lngExpr, criterionExpr, nameExpr)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := r.replacePoints(records); err != nil {
		return 0, err
	}

	return len(records), nil
}

func (r *sqlPointRepository) readSource(source, latExpr, lngExpr, criterionExpr, nameExpr string) ([]*Record, error) {
	query := fmt.Sprintf(
		"SELECT TRY_CAST(%s AS DOUBLE), TRY_CAST(%s AS DOUBLE), %s, %s FROM %s",
		latExpr, lngExpr, criterionExpr, nameExpr, source,
	)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		var lat, lng sql.NullFloat64

		rec := &Record{ID: len(records)}
		if err := rows.Scan(&lat, &lng, &rec.Criterion, &rec.Name); err != nil {
			return nil, err
		}

		if !lat.Valid || !lng.Valid {
			return nil, &dedup.InputError{
				Type:    dedup.ErrorTypeInvalidCoordinate,
				Index:   rec.ID,
				Message: "missing or non-numeric coordinate",
			}
		}

		rec.Point = spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		if err := rec.Point.Validate(); err != nil {
			return nil, &dedup.InputError{
				Type:    dedup.ErrorTypeInvalidCoordinate,
				Index:   rec.ID,
				Message: "invalid coordinate",
				Err:     err,
			}
		}

		if err := rec.computeH3(); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *sqlPointRepository) replacePoints(records []*Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"run_drops", "runs", "points"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO points (id, name, lat, lng, criterion, h3_res7, h3_res9, h3_res11)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(
			rec.ID,
			rec.Name,
			rec.Point.Lat,
			rec.Point.Lng,
			rec.Criterion,
			rec.H3Res7,
			rec.H3Res9,
			rec.H3Res11,
		); err != nil {
			return fmt.Errorf("inserting point %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

func (r *sqlPointRepository) ListPoints() ([]*Record, error) {
	rows, err := r.db.Query(`
		SELECT id, name, lat, lng, criterion, dropped, h3_res7, h3_res9, h3_res11
		FROM points
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing points: %w", err)
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		var (
			rec         Record
			c7, c9, c11 sql.NullInt64
		)

		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Point.Lat,
			&rec.Point.Lng,
			&rec.Criterion,
			&rec.Dropped,
			&c7,
			&c9,
			&c11,
		); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}

		rec.H3Res7, rec.H3Res9, rec.H3Res11 = c7.Int64, c9.Int64, c11.Int64
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (r *sqlPointRepository) SaveRun(run *Run, drop []int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := tx.QueryRow(`
		INSERT INTO runs (threshold, points, dropped, iterations)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`, run.Threshold, run.Points, run.Dropped, run.Iterations).Scan(&run.ID, &run.CreatedAt); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.Exec("UPDATE points SET dropped = FALSE WHERE dropped"); err != nil {
		return fmt.Errorf("resetting dropped flags: %w", err)
	}

	insert, err := tx.Prepare("INSERT INTO run_drops (run_id, point_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing drop insert: %w", err)
	}
	defer insert.Close()

	mark, err := tx.Prepare("UPDATE points SET dropped = TRUE WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing drop update: %w", err)
	}
	defer mark.Close()

	for _, id := range drop {
		if _, err := insert.Exec(run.ID, id); err != nil {
			return fmt.Errorf("inserting drop %d: %w", id, err)
		}

		if _, err := mark.Exec(id); err != nil {
			return fmt.Errorf("flagging point %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (r *sqlPointRepository) ListRuns() ([]*Run, error) {
	rows, err := r.db.Query(`
		SELECT id, threshold, points, dropped, iterations, created_at
		FROM runs
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run

	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Threshold, &run.Points, &run.Dropped, &run.Iterations, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (r *sqlPointRepository) RunDrops(runID int) ([]int, error) {
	rows, err := r.db.Query("SELECT point_id FROM run_drops WHERE run_id = ? ORDER BY point_id", runID)
	if err != nil {
		return nil, fmt.Errorf("listing drops of run %d: %w", runID, err)
	}
	defer rows.Close()

	drop := []int{}

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning drop: %w", err)
		}

		drop = append(drop, id)
	}

	return drop, rows.Err()
}

func (r *sqlPointRepository) ExportPointsCSV(path string, ids []int) (int, error) {
	if len(ids) == 0 {
		return r.exportCSV(path, "false")
	}

	list := make([]string, len(ids))
	for i, id := range ids {
		list[i] = strconv.Itoa(id)
	}

	return r.exportCSV(path, "id IN ("+strings.Join(list, ",")+")")
}

// exportCSV copies the points matching where to path, with the default
// column names so the file loads back as is.
func (r *sqlPointRepository) exportCSV(path, where string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT count(*) FROM points WHERE " + where).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exported points: %w", err)
	}

	if _, err := r.db.Exec(fmt.Sprintf(`
		COPY (
			SELECT id, name, lat AS latitude, lng AS longitude, criterion AS comments
			FROM points
			WHERE %s
			ORDER BY id
		) TO %s (HEADER, DELIMITER ',')
	`, where, quoteLiteral(path))); err != nil {
		return 0, fmt.Errorf("exporting to %s: %w", path, err)
	}

	return n, nil
}

// Arrays splits records into the parallel inputs the resolver takes.
func Arrays(records []*Record) ([]spatial.Point, []float64) {
	points := make([]spatial.Point, len(records))
	criteria := make([]float64, len(records))

	for i, rec := range records {
		points[i] = rec.Point
		criteria[i] = rec.Criterion
	}

	return points, criteria
}

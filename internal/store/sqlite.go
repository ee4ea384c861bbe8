package store

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectSampleFields contains the standard field list for SELECT queries.
const selectSampleFields = `id, sample_id, researcher, expressed, soluble,
	kd_binding, sequence, project_id, date, comments, protocol, created_at`

// exportHeader is the column order for CSV export.
var exportHeader = []string{
	"id", "sample_id", "researcher", "expressed", "soluble",
	"kd_binding", "sequence", "project_id", "date", "comments",
	"protocol", "created_at",
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id TEXT,
			researcher TEXT,
			expressed TEXT,
			soluble TEXT,
			kd_binding TEXT,
			sequence TEXT,
			project_id TEXT,
			date TEXT,
			comments TEXT,
			protocol TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS samples_fts USING fts5(
			sample_id,
			researcher,
			expressed,
			project_id,
			comments
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Insert persists one sample and its FTS row in a single transaction.
// Returns the new record ID.
func (d *DB) Insert(s Sample) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO samples (
			sample_id, researcher, expressed, soluble,
			kd_binding, sequence, project_id, date, comments, protocol
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.SampleID, s.Researcher, s.Expressed, s.Soluble,
		s.KDBinding, s.Sequence, s.ProjectID, s.Date, s.Comments, s.Protocol)
	if err != nil {
		return 0, fmt.Errorf("inserting sample: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO samples_fts (rowid, sample_id, researcher, expressed, project_id, comments)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, s.SampleID, s.Researcher, s.Expressed, s.ProjectID, s.Comments)
	if err != nil {
		return 0, fmt.Errorf("inserting fts row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	return id, nil
}

// ListAll returns every sample, newest first.
func (d *DB) ListAll() ([]Sample, error) {
	rows, err := d.db.Query(`
		SELECT ` + selectSampleFields + `
		FROM samples
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// Search performs a full-text search and returns matches in rank order.
// The query text is quoted so arbitrary user input does not trip the
// FTS5 query syntax; embedded quotes are doubled per the FTS5 string
// rules.
func (d *DB) Search(query string) ([]Sample, error) {
	escaped := strings.ReplaceAll(query, `"`, `""`)
	rows, err := d.db.Query(`
		SELECT `+prefixed("samples.", selectSampleFields)+`
		FROM samples
		JOIN samples_fts ON samples.id = samples_fts.rowid
		WHERE samples_fts MATCH ?
		ORDER BY rank
	`, `"`+escaped+`"`)
	if err != nil {
		return nil, fmt.Errorf("searching samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// Filter returns samples matching the given substring predicates.
// Empty predicates are ignored; all empty returns everything.
func (d *DB) Filter(researcher, sampleID, date string) ([]Sample, error) {
	query := `SELECT ` + selectSampleFields + ` FROM samples WHERE 1=1`
	var params []any

	if researcher != "" {
		query += " AND researcher LIKE ?"
		params = append(params, "%"+researcher+"%")
	}
	if sampleID != "" {
		query += " AND sample_id LIKE ?"
		params = append(params, "%"+sampleID+"%")
	}
	if date != "" {
		query += " AND date LIKE ?"
		params = append(params, "%"+date+"%")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("filtering samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// Count returns the number of persisted samples.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting samples: %w", err)
	}
	return n, nil
}

// ExportCSV writes all samples as CSV to w, newest first.
func (d *DB) ExportCSV(w io.Writer) (int, error) {
	samples, err := d.ListAll()
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for _, s := range samples {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			s.SampleID, s.Researcher, s.Expressed, s.Soluble,
			s.KDBinding, s.Sequence, s.ProjectID, s.Date, s.Comments,
			s.Protocol, s.CreatedAt,
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("writing record %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}

	return len(samples), nil
}

// prefixed qualifies every name in a comma-separated field list with a
// table prefix, for queries joining tables with overlapping columns.
func prefixed(prefix, fields string) string {
	parts := strings.Split(fields, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// scanSamples reads all rows from a sample query.
func scanSamples(rows *sql.Rows) ([]Sample, error) {
	var samples []Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(
			&s.ID, &s.SampleID, &s.Researcher, &s.Expressed, &s.Soluble,
			&s.KDBinding, &s.Sequence, &s.ProjectID, &s.Date, &s.Comments,
			&s.Protocol, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return samples, nil
}

// Package store writes extracted gate geometry to a SQLite database so it can
// be queried outside flowgate.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/keyword"
)

// Store manages one export database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open export db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Sample is one exported sample row.
type Sample struct {
	ID         string
	Name       string
	Filename   string
	Well       string
	WellMethod string
	Keywords   keyword.List
}

// SaveSample inserts or replaces a sample and its keywords.
func (s *Store) SaveSample(smp Sample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO samples (id, name, filename, well, well_method, exported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		smp.ID, smp.Name, smp.Filename, smp.Well, smp.WellMethod, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save sample %s: %w", smp.ID, err)
	}
	if _, err := tx.Exec("DELETE FROM keywords WHERE sample_id = ?", smp.ID); err != nil {
		return fmt.Errorf("clear keywords %s: %w", smp.ID, err)
	}
	stmt, err := tx.Prepare("INSERT INTO keywords (sample_id, seq, key, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare keywords: %w", err)
	}
	defer stmt.Close()
	for i, kw := range smp.Keywords {
		if _, err := stmt.Exec(smp.ID, i, kw.Key, kw.Value); err != nil {
			return fmt.Errorf("save keyword %s: %w", kw.Key, err)
		}
	}
	return tx.Commit()
}

func encodePath(p gating.Path) string {
	if p == nil {
		p = gating.Path{}
	}
	b, _ := json.Marshal([]string(p))
	return string(b)
}

func decodePath(s string) (gating.Path, error) {
	var p []string
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decode path %q: %w", s, err)
	}
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}

// SaveGates replaces every gate stored for sampleID with nodes.
func (s *Store) SaveGates(sampleID string, nodes []gating.GateNode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"gates", "vertices", "dividers"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE sample_id = ?", sampleID); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, sampleID, err)
		}
	}

	for _, n := range nodes {
		path := encodePath(n.Path)
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO gates (sample_id, path, name, kind, x_dimension, y_dimension, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sampleID, path, n.Name, string(n.Kind), n.Dimensions[0], n.Dimensions[1], n.Source,
		)
		if err != nil {
			return fmt.Errorf("save gate %s: %w", n.ID(), err)
		}
		for i, v := range n.Vertices {
			_, err := tx.Exec(`
				INSERT OR REPLACE INTO vertices (sample_id, path, name, seq, x, y)
				VALUES (?, ?, ?, ?, ?, ?)`,
				sampleID, path, n.Name, i, v.X, v.Y,
			)
			if err != nil {
				return fmt.Errorf("save vertex %d of %s: %w", i, n.ID(), err)
			}
		}
		for _, d := range n.Dividers {
			_, err := tx.Exec(`
				INSERT OR REPLACE INTO dividers (sample_id, path, name, orientation, dimension, value)
				VALUES (?, ?, ?, ?, ?, ?)`,
				sampleID, path, n.Name, string(d.Orientation), d.Dimension, d.Value,
			)
			if err != nil {
				return fmt.Errorf("save divider of %s: %w", n.ID(), err)
			}
		}
	}
	return tx.Commit()
}

// Gates reads back the gate nodes stored for sampleID, ordered by path and
// name.
func (s *Store) Gates(sampleID string) ([]gating.GateNode, error) {
	rows, err := s.db.Query(`
		SELECT path, name, kind, x_dimension, y_dimension, source
		FROM gates WHERE sample_id = ? ORDER BY path, name`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("query gates: %w", err)
	}
	defer rows.Close()

	var nodes []gating.GateNode
	for rows.Next() {
		var n gating.GateNode
		var path, kind string
		if err := rows.Scan(&path, &n.Name, &kind, &n.Dimensions[0], &n.Dimensions[1], &n.Source); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		n.Kind = gating.Kind(kind)
		if n.Path, err = decodePath(path); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	rows.Close()

	for i := range nodes {
		if err := s.loadGeometry(sampleID, &nodes[i]); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (s *Store) loadGeometry(sampleID string, n *gating.GateNode) error {
	path := encodePath(n.Path)
	rows, err := s.db.Query(`
		SELECT x, y FROM vertices WHERE sample_id = ? AND path = ? AND name = ? ORDER BY seq`,
		sampleID, path, n.Name)
	if err != nil {
		return fmt.Errorf("query vertices: %w", err)
	}
	for rows.Next() {
		var p gating.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			rows.Close()
			return fmt.Errorf("scan vertex: %w", err)
		}
		n.Vertices = append(n.Vertices, p)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.Query(`
		SELECT orientation, dimension, value FROM dividers
		WHERE sample_id = ? AND path = ? AND name = ? ORDER BY orientation DESC`,
		sampleID, path, n.Name)
	if err != nil {
		return fmt.Errorf("query dividers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d gating.Divider
		var o string
		if err := rows.Scan(&o, &d.Dimension, &d.Value); err != nil {
			return fmt.Errorf("scan divider: %w", err)
		}
		d.Orientation = gating.Orientation(o)
		n.Dividers = append(n.Dividers, d)
	}
	return rows.Err()
}

// Clear removes all exported data.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM samples; DELETE FROM keywords; DELETE FROM gates; DELETE FROM vertices; DELETE FROM dividers;")
	if err != nil {
		return fmt.Errorf("clear export db: %w", err)
	}
	return nil
}

// Stats counts the rows of each table.
type Stats struct {
	Samples  int64 `yaml:"samples" json:"samples"`
	Gates    int64 `yaml:"gates" json:"gates"`
	Vertices int64 `yaml:"vertices" json:"vertices"`
	Dividers int64 `yaml:"dividers" json:"dividers"`
}

// GetStats returns statistics about the database contents.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"samples", &stats.Samples},
		{"gates", &stats.Gates},
		{"vertices", &stats.Vertices},
		{"dividers", &stats.Dividers},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return &stats, nil
}

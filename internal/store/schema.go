package store

// schemaSQL defines the export database.
// Tables:
//   - samples: one row per workspace sample with its resolved well
//   - keywords: sample keywords in document order
//   - gates: one row per extracted gate node, keyed by sample, path and name
//   - vertices: closed polygon outlines in raw units
//   - dividers: quadrant divider positions in raw units
const schemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    filename TEXT NOT NULL DEFAULT '',
    well TEXT NOT NULL DEFAULT '',
    well_method TEXT NOT NULL DEFAULT '',
    exported_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS keywords (
    sample_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (sample_id, seq)
);

CREATE TABLE IF NOT EXISTS gates (
    sample_id TEXT NOT NULL,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    x_dimension TEXT NOT NULL,
    y_dimension TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (sample_id, path, name)
);

CREATE TABLE IF NOT EXISTS vertices (
    sample_id TEXT NOT NULL,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    seq INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    PRIMARY KEY (sample_id, path, name, seq)
);

CREATE TABLE IF NOT EXISTS dividers (
    sample_id TEXT NOT NULL,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    orientation TEXT NOT NULL,
    dimension TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (sample_id, path, name, orientation)
);

CREATE INDEX IF NOT EXISTS idx_gates_kind ON gates(kind);
CREATE INDEX IF NOT EXISTS idx_samples_well ON samples(well);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}

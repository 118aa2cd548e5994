package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
)

// SQLiteSchema is the layout a planter feed database must provide.
// Samples are returned in insertion order.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS plants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	temperature REAL NOT NULL,
	humidity REAL NOT NULL,
	water_level REAL NOT NULL,
	light REAL NOT NULL,
	moisture REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plant_id TEXT NOT NULL REFERENCES plants(id),
	time_label TEXT NOT NULL,
	temperature REAL NOT NULL,
	humidity REAL NOT NULL,
	light REAL NOT NULL,
	moisture REAL NOT NULL,
	water_level REAL NOT NULL,
	UNIQUE (plant_id, time_label)
);

CREATE INDEX IF NOT EXISTS idx_samples_plant ON samples(plant_id, id);
`

// SQLiteSource reads one plant's snapshot from a SQLite feed database.
// The database is opened read-only; nothing is ever written back.
type SQLiteSource struct {
	db      *sql.DB
	path    string
	plantID string
	logger  zerolog.Logger
}

// NewSQLiteSource opens the database at dbPath in read-only mode
func NewSQLiteSource(dbPath, plantID string, logger zerolog.Logger) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA query_only=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	logger.Info().Str("path", dbPath).Str("plant_id", plantID).Msg("SQLite source opened")

	return &SQLiteSource{
		db:      db,
		path:    dbPath,
		plantID: plantID,
		logger:  logger,
	}, nil
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteSource) Name() string { return "sqlite:" + s.path }

// Load reads the plant row and its samples inside one read transaction so
// both come from the same database state
func (s *SQLiteSource) Load(ctx context.Context) (*models.Plant, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var p models.Plant
	err = tx.QueryRowContext(ctx, `
		SELECT name, image, temperature, humidity, water_level, light, moisture
		FROM plants
		WHERE id = ?
	`, s.plantID).Scan(&p.Name, &p.Image, &p.Temperature, &p.Humidity, &p.WaterLevel, &p.Light, &p.Moisture)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrPlantNotFound, s.plantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plant: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT time_label, temperature, humidity, light, moisture, water_level
		FROM samples
		WHERE plant_id = ?
		ORDER BY id ASC
	`, s.plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	p.TrendData, err = scanSamples(rows)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plant %s: %w", s.plantID, err)
	}

	s.logger.Debug().Str("plant_id", s.plantID).Int("samples", len(p.TrendData)).Msg("Loaded plant from SQLite")
	return &p, nil
}

// scanSamples scans sample rows in query order
func scanSamples(rows *sql.Rows) ([]models.Sample, error) {
	samples := []models.Sample{}

	for rows.Next() {
		var smp models.Sample
		var label string

		err := rows.Scan(&label, &smp.Temperature, &smp.Humidity, &smp.Light, &smp.Moisture, &smp.WaterLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		smp.Time = models.TimeLabel(label)
		samples = append(samples, smp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return samples, nil
}

var _ Source = (*SQLiteSource)(nil)

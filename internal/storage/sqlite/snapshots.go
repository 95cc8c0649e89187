package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// SnapshotStorage is a SQLite-backed history of aggregated conditions
// snapshots. Only live (non-synthetic) snapshots are recorded.
type SnapshotStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSnapshotStorage opens (creating if needed) the snapshot history
// database at the given path.
func NewSnapshotStorage(dbPath string, log *logger.Logger) (*SnapshotStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *SnapshotStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id TEXT NOT NULL,
			water_temp_f REAL,
			surf_height_ft REAL,
			current_tide_ft REAL,
			tide_status TEXT,
			air_temp_f REAL,
			wind_speed_mph REAL,
			wind_direction TEXT,
			humidity_pct REAL,
			uv_index INTEGER,
			conditions TEXT,
			flag_warning TEXT,
			last_updated TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshots_location_created
		ON snapshots(location_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots index: %w", err)
	}

	return nil
}

// Insert records one snapshot. Implements conditions.HistoryStore.
func (s *SnapshotStorage) Insert(snapshot *conditions.Snapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (
			location_id, water_temp_f, surf_height_ft, current_tide_ft,
			tide_status, air_temp_f, wind_speed_mph, wind_direction,
			humidity_pct, uv_index, conditions, flag_warning, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.LocationID,
		snapshot.WaterTempF,
		snapshot.SurfHeightFt,
		snapshot.CurrentTideFt,
		string(snapshot.TideStatus),
		snapshot.AirTempF,
		snapshot.WindSpeedMph,
		snapshot.WindDirection,
		snapshot.HumidityPct,
		snapshot.UVIndex,
		snapshot.Conditions,
		string(snapshot.FlagWarning),
		snapshot.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	s.logger.Debug("Snapshot recorded",
		logger.String("location_id", snapshot.LocationID))
	return nil
}

// HistoryEntry is one persisted snapshot row
type HistoryEntry struct {
	ID            int64     `json:"id"`
	LocationID    string    `json:"location_id"`
	WaterTempF    float64   `json:"water_temp_f"`
	SurfHeightFt  float64   `json:"surf_height_ft"`
	CurrentTideFt float64   `json:"current_tide_ft"`
	TideStatus    string    `json:"tide_status"`
	AirTempF      float64   `json:"air_temp_f"`
	WindSpeedMph  float64   `json:"wind_speed_mph"`
	WindDirection string    `json:"wind_direction"`
	HumidityPct   float64   `json:"humidity_pct"`
	UVIndex       int       `json:"uv_index"`
	Conditions    string    `json:"conditions"`
	FlagWarning   string    `json:"flag_warning"`
	LastUpdated   time.Time `json:"last_updated"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecentByLocation returns the most recent snapshots for a location,
// newest first.
func (s *SnapshotStorage) RecentByLocation(locationID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, location_id, water_temp_f, surf_height_ft, current_tide_ft,
			tide_status, air_temp_f, wind_speed_mph, wind_direction,
			humidity_pct, uv_index, conditions, flag_warning, last_updated, created_at
		FROM snapshots
		WHERE location_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		err := rows.Scan(
			&e.ID, &e.LocationID, &e.WaterTempF, &e.SurfHeightFt, &e.CurrentTideFt,
			&e.TideStatus, &e.AirTempF, &e.WindSpeedMph, &e.WindDirection,
			&e.HumidityPct, &e.UVIndex, &e.Conditions, &e.FlagWarning,
			&e.LastUpdated, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	return entries, nil
}

// Count returns the total number of persisted snapshots
func (s *SnapshotStorage) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTableSQL is the persisted schema. The unquoted magType identifier is
// folded to magtype by PostgreSQL.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS earthquake (id VARCHAR(50) PRIMARY KEY, longitude FLOAT, latitude FLOAT, elevation FLOAT, title VARCHAR(255), place VARCHAR(255), sig INT, mag FLOAT, magType VARCHAR(10), time TIMESTAMP, sig_class VARCHAR(10), state_province VARCHAR(255));`

// DefaultChunkSize bounds the rows per INSERT statement.
const DefaultChunkSize = 500

// Sink implements pipeline.Sink on top of gorm.
type Sink struct {
	db     *gorm.DB
	chunk  int
	logger *slog.Logger
}

// NewSink creates a Sink. A non-positive chunk falls back to DefaultChunkSize.
func NewSink(db *gorm.DB, chunk int, logger *slog.Logger) *Sink {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Sink{db: db, chunk: chunk, logger: logger}
}

// EnsureSchema creates the earthquake table if it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(CreateTableSQL).Error; err != nil {
		return &domain.LoadError{Op: "create table", Err: err}
	}
	return nil
}

// LoadBatch inserts events inside a single transaction. Rows whose id already
// exists are skipped, never updated. It returns the number of new rows.
func (s *Sink) LoadBatch(ctx context.Context, events []domain.FlatEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := toRows(events)
	var inserted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += s.chunk {
			end := min(start+s.chunk, len(rows))
			res := insertChunk(tx, rows[start:end])
			if res.Error != nil {
				return res.Error
			}
			inserted += res.RowsAffected
			s.logger.Debug("chunk inserted", "rows", end-start, "inserted", res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, &domain.LoadError{Op: "insert", Err: err}
	}
	return inserted, nil
}

func insertChunk(tx *gorm.DB, rows []earthquakeRow) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&rows)
}

// earthquakeRow maps a FlatEvent onto the earthquake table.
type earthquakeRow struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Longitude     float64   `gorm:"column:longitude"`
	Latitude      float64   `gorm:"column:latitude"`
	Elevation     *float64  `gorm:"column:elevation"`
	Title         string    `gorm:"column:title"`
	Place         string    `gorm:"column:place"`
	Sig           int       `gorm:"column:sig"`
	Mag           *float64  `gorm:"column:mag"`
	MagType       string    `gorm:"column:magtype"`
	Time          time.Time `gorm:"column:time"`
	SigClass      string    `gorm:"column:sig_class"`
	StateProvince string    `gorm:"column:state_province"`
}

func (earthquakeRow) TableName() string { return "earthquake" }

func toRows(events []domain.FlatEvent) []earthquakeRow {
	rows := make([]earthquakeRow, len(events))
	for i := range events {
		e := &events[i]
		rows[i] = earthquakeRow{
			ID:            e.ID,
			Longitude:     e.Longitude,
			Latitude:      e.Latitude,
			Elevation:     e.Elevation,
			Title:         e.Title,
			Place:         e.Place,
			Sig:           e.Sig,
			Mag:           e.Mag,
			MagType:       e.MagType,
			Time:          e.Time.UTC(),
			SigClass:      string(e.SigClass),
			StateProvince: e.StateProvince,
		}
	}
	return rows
}

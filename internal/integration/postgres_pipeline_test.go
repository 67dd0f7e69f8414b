//go:build integration

package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/adapter/postgres"
	"github.com/couchcryptid/quake-data-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
	"github.com/couchcryptid/quake-data-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const feedPayload = `{
  "type": "FeatureCollection",
  "metadata": {"generated": 1700100000000, "count": 2, "status": 200, "title": "USGS Earthquakes"},
  "features": [
    {"type": "Feature", "id": "ci40000001",
     "properties": {"mag": 2.1, "place": "5 km N of Ridgecrest, CA", "time": 1700000000000, "updated": 1700000500000,
                    "sig": 50, "magType": "ml", "title": "M 2.1 - 5 km N of Ridgecrest, CA", "net": "ci", "felt": null},
     "geometry": {"type": "Point", "coordinates": [-117.6, 35.77, 8.1]}},
    {"type": "Feature", "id": "us7000zzzz",
     "properties": {"mag": 6.4, "place": "Off the coast of Oaxaca, Mexico", "time": 1700017200000, "updated": 1700020000000,
                    "sig": 600, "magType": "mww", "title": "M 6.4 - Off the coast of Oaxaca, Mexico", "tsunami": 1},
     "geometry": {"type": "Point", "coordinates": [-97.1, 15.9, 20.0]}}
  ]
}`

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table("earthquake").Count(&n).Error)
	return n
}

func TestSink_EnsureSchema(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)
	sink := postgres.NewSink(db, 500, discardLogger())

	require.NoError(t, sink.EnsureSchema(ctx))
	require.NoError(t, sink.EnsureSchema(ctx), "create-if-absent must be repeatable")

	var columns []string
	require.NoError(t, db.Raw(
		`SELECT column_name FROM information_schema.columns WHERE table_name = 'earthquake' ORDER BY ordinal_position`,
	).Scan(&columns).Error)
	assert.Equal(t, []string{
		"id", "longitude", "latitude", "elevation", "title", "place",
		"sig", "mag", "magtype", "time", "sig_class", "state_province",
	}, columns)
}

func TestSink_LoadBatchIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)
	sink := postgres.NewSink(db, 500, discardLogger())
	require.NoError(t, sink.EnsureSchema(ctx))

	events := sampleEvents()

	inserted, err := sink.LoadBatch(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	inserted, err = sink.LoadBatch(ctx, events)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, int64(2), countRows(t, db))

	// A revised event with an existing id never overwrites the stored row.
	revised := events[0]
	revised.Sig = 450
	revised.SigClass = domain.SigModerate
	inserted, err = sink.LoadBatch(ctx, []domain.FlatEvent{revised})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var row struct {
		Sig      int
		SigClass string
	}
	require.NoError(t, db.Raw(`SELECT sig, sig_class FROM earthquake WHERE id = ?`, "ci40000001").Scan(&row).Error)
	assert.Equal(t, 50, row.Sig)
	assert.Equal(t, "Low", row.SigClass)
}

func TestSink_LoadBatchChunked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)
	sink := postgres.NewSink(db, 1, discardLogger())
	require.NoError(t, sink.EnsureSchema(ctx))

	events := sampleEvents()
	third := events[0]
	third.ID = "nc73912345"
	third.Elevation = nil
	third.Mag = nil
	events = append(events, third)

	inserted, err := sink.LoadBatch(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)
	assert.Equal(t, int64(3), countRows(t, db))

	var nulls int64
	require.NoError(t, db.Table("earthquake").Where("mag IS NULL AND elevation IS NULL").Count(&nulls).Error)
	assert.Equal(t, int64(1), nulls)
}

func TestSink_LoadBatchWithoutTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)
	sink := postgres.NewSink(db, 500, discardLogger())

	_, err := sink.LoadBatch(ctx, sampleEvents())
	require.Error(t, err)

	var lerr *domain.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "insert", lerr.Op)
}

func TestPipeline_FeedToPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startPostgres(ctx, t)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "geojson", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, feedPayload)
	}))
	defer feed.Close()

	p := pipeline.New(
		usgs.NewClient(feed.URL, 5*time.Second, discardLogger()),
		pipeline.NewNormalizer(discardLogger()),
		postgres.NewSink(db, 500, discardLogger()),
		nil,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	window, err := domain.ParseWindow("2023-11-08", "2023-11-14")
	require.NoError(t, err)

	res, err := p.Run(ctx, pipeline.WithWindow(window))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Inserted)

	res, err = p.Run(ctx, pipeline.WithWindow(window))
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, int64(2), countRows(t, db))

	type stored struct {
		ID            string
		SigClass      string
		StateProvince string
		Magtype       string
		Ts            string
	}
	var rows []stored
	require.NoError(t, db.Raw(`
		SELECT id, sig_class, state_province, magtype,
		       to_char(time, 'YYYY-MM-DD HH24:MI:SS') AS ts
		FROM earthquake ORDER BY id`).Scan(&rows).Error)

	require.Len(t, rows, 2)
	assert.Equal(t, stored{ID: "ci40000001", SigClass: "Low", StateProvince: "CA", Magtype: "ml", Ts: "2023-11-14 22:13:20"}, rows[0])
	assert.Equal(t, stored{ID: "us7000zzzz", SigClass: "High", StateProvince: "Mexico", Magtype: "mww", Ts: "2023-11-15 03:00:00"}, rows[1])
}

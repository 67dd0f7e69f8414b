//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/adapter/postgres"
	"github.com/couchcryptid/quake-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres runs a disposable PostgreSQL and returns a connected gorm handle.
func startPostgres(ctx context.Context, t *testing.T) *gorm.DB {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("earthquakes"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(dsn, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = postgres.Close(db) })

	return db
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("quake-etl-test"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func floatPtr(f float64) *float64 { return &f }

func sampleEvents() []domain.FlatEvent {
	return []domain.FlatEvent{
		{
			ID:            "ci40000001",
			Longitude:     -117.6,
			Latitude:      35.77,
			Elevation:     floatPtr(8.1),
			Title:         "M 2.1 - 5 km N of Ridgecrest, CA",
			Place:         "5 km N of Ridgecrest, CA",
			Sig:           50,
			Mag:           floatPtr(2.1),
			MagType:       "ml",
			Time:          time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			SigClass:      domain.SigLow,
			StateProvince: "CA",
		},
		{
			ID:            "us7000zzzz",
			Longitude:     -97.1,
			Latitude:      15.9,
			Title:         "M 6.4 - Off the coast of Oaxaca, Mexico",
			Place:         "Off the coast of Oaxaca, Mexico",
			Sig:           600,
			Mag:           floatPtr(6.4),
			MagType:       "mww",
			Time:          time.Date(2023, 11, 15, 3, 0, 0, 0, time.UTC),
			SigClass:      domain.SigHigh,
			StateProvince: "Mexico",
		},
	}
}

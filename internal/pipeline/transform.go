package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

// QuakeNormalizer implements Normalizer using the domain transform functions.
type QuakeNormalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a QuakeNormalizer.
func NewNormalizer(logger *slog.Logger) *QuakeNormalizer {
	return &QuakeNormalizer{logger: logger}
}

func (n *QuakeNormalizer) Normalize(ctx context.Context, features []json.RawMessage) ([]domain.FlatEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raws, err := domain.DecodeRawEvents(features)
	if err != nil {
		return nil, n.reject(err)
	}

	if updated, ok := domain.LatestUpdate(raws); ok {
		n.logger.Debug("feed freshness", "feed_updated", domain.FormatTimestamp(updated))
	}

	events, err := domain.Normalize(raws)
	if err != nil {
		return nil, n.reject(err)
	}

	classes := make(map[domain.SigClass]int, 3)
	for i := range events {
		classes[events[i].SigClass]++
	}
	n.logger.Debug("batch normalized",
		"events", len(events),
		"low", classes[domain.SigLow],
		"moderate", classes[domain.SigModerate],
		"high", classes[domain.SigHigh],
	)

	return events, nil
}

func (n *QuakeNormalizer) reject(err error) error {
	var nerr *domain.NormalizationError
	if errors.As(err, &nerr) {
		n.logger.Warn("malformed feed event, failing batch",
			"index", nerr.Index,
			"event_id", nerr.ID,
			"error", nerr.Err,
		)
	}
	return err
}

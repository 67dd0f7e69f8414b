package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeRawEvents unmarshals each feature into a RawEvent. A feature that does
// not decode, for example a string where sig should be a number, fails the
// whole batch with a *NormalizationError carrying its index and, when
// readable, its id.
func DecodeRawEvents(features []json.RawMessage) ([]RawEvent, error) {
	raws := make([]RawEvent, len(features))
	for i, f := range features {
		if err := json.Unmarshal(f, &raws[i]); err != nil {
			return nil, &NormalizationError{
				Index: i,
				ID:    featureID(f),
				Err:   fmt.Errorf("decode feature: %w", err),
			}
		}
	}
	return raws, nil
}

// featureID extracts the id of a feature that failed to decode as a whole.
func featureID(f json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(f, &head)
	return head.ID
}

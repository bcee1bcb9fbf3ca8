package domain

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNoReferenceData means a zone classifier was built from an empty or
	// unusable reference set. It is fatal for the batch.
	ErrNoReferenceData = errors.New("no reference data")

	// ErrMalformedRecord marks a row missing a required field (geometry,
	// timestamp or value). The row is excluded from the batch.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrOutOfRange marks a row whose latitude or longitude lies outside the
	// valid WGS-84 range. The row is excluded from the batch.
	ErrOutOfRange = errors.New("coordinates out of range")

	// ErrDuplicateEventID means two logged events share an ID.
	ErrDuplicateEventID = errors.New("duplicate event id")
)

// RejectReason maps a row-level error to a short metric label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed"
	default:
		return "other"
	}
}

// Rejection records a row excluded from a batch stage.
type Rejection struct {
	Kind  string `json:"kind"` // "sensor", "report", "event", "observation"
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Err   error  `json:"-"`
}

// Reason is the metric label for the rejection's error.
func (r Rejection) Reason() string {
	return RejectReason(r.Err)
}

// MarshalJSON renders the rejection with its reason and error text.
func (r Rejection) MarshalJSON() ([]byte, error) {
	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	return json.Marshal(struct {
		Kind   string `json:"kind"`
		Index  int    `json:"index"`
		ID     string `json:"id,omitempty"`
		Reason string `json:"reason"`
		Error  string `json:"error,omitempty"`
	}{r.Kind, r.Index, r.ID, r.Reason(), msg})
}

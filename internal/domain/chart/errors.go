package chart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrChartNotFound is returned when the referenced chart does not exist.
	ErrChartNotFound = errors.New("chart not found")
	// ErrItemNotFound is returned when the referenced chart item does not exist.
	ErrItemNotFound = errors.New("chart item not found")
	// ErrUnsupportedItemType is returned for type tags outside the fourteen
	// supported kinds.
	ErrUnsupportedItemType = errors.New("unsupported item type")
	// ErrVitalsExists is returned when a chart already carries a vitals item;
	// vitals is singleton-per-chart by policy.
	ErrVitalsExists = errors.New("chart already has a vitals item")
	// ErrChartSigned is returned when signing a chart that is already signed.
	ErrChartSigned = errors.New("chart is already signed")
	// ErrPayloadMismatch is returned when an item's type tag and its payload
	// disagree. This is a data-integrity bug, not a user error.
	ErrPayloadMismatch = errors.New("item type and payload do not match")
)

// ValidationError describes one rejected row of an option-list edit.
type ValidationError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("option %d: %s", e.Index, e.Message)
}

// ValidationErrors collects per-row validation failures. A non-empty value
// blocks submission; no request is sent.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

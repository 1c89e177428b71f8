package chartsync

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// AddItemRequest is the wire form of an item creation. The client mints the
// item id before sending so its speculative cache entry and the server row
// share an identity.
type AddItemRequest struct {
	ItemID           uuid.UUID      `json:"item_id"`
	ChartID          *uuid.UUID     `json:"chart_id"`
	Type             chart.ItemType `json:"type"`
	InsertAfterOrder *int           `json:"insert_after_order"`
	PatientID        uuid.UUID      `json:"patient_id"`
	ConsultationID   *uuid.UUID     `json:"consultation_id"`
}

// Remote is the server the client syncs against. Every call honors context
// cancellation.
type Remote interface {
	FetchChart(ctx context.Context, chartID uuid.UUID) (*chart.Chart, error)
	AddItem(ctx context.Context, req AddItemRequest) (*chart.ChartItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, typ chart.ItemType, fields json.RawMessage) error
	ReplaceItem(ctx context.Context, itemID uuid.UUID, payload chart.Payload) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	Reorder(ctx context.Context, chartID uuid.UUID, src, dst int) error
}

package chart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultChartName is the name given to implicitly created charts.
const DefaultChartName = "Charting note"

// Chart is the aggregate root: one clinical note holding an ordered sequence
// of typed items. After any committed mutation the items, sorted by Order,
// are dense and 1-based.
type Chart struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	CreatedByID    uuid.UUID  `db:"created_by_id" json:"created_by_id"`
	AssignedToID   *uuid.UUID `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	ConsultationID *uuid.UUID `db:"consultation_id" json:"consultation_id,omitempty"`
	SignedByID     *uuid.UUID `db:"signed_by_id" json:"signed_by_id,omitempty"`
	SignedAt       *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	Items []*ChartItem `db:"-" json:"items"`
}

// Signed reports whether the chart has been signed and is effectively frozen.
func (c *Chart) Signed() bool { return c.SignedByID != nil }

// ItemByID returns the item with the given id, or nil.
func (c *Chart) ItemByID(id uuid.UUID) *ChartItem {
	for _, it := range c.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// HasItemOfType reports whether any item carries the given type tag. Used for
// singleton-per-chart policies such as vitals.
func (c *Chart) HasItemOfType(typ ItemType) bool {
	for _, it := range c.Items {
		if it.Type == typ {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the chart, its items and their payloads.
// Cloning a nil chart yields nil, so cache code can clone unconditionally.
func (c *Chart) Clone() *Chart {
	if c == nil {
		return nil
	}
	cp := *c
	if c.AssignedToID != nil {
		v := *c.AssignedToID
		cp.AssignedToID = &v
	}
	if c.ConsultationID != nil {
		v := *c.ConsultationID
		cp.ConsultationID = &v
	}
	if c.SignedByID != nil {
		v := *c.SignedByID
		cp.SignedByID = &v
	}
	if c.SignedAt != nil {
		v := *c.SignedAt
		cp.SignedAt = &v
	}
	cp.Items = make([]*ChartItem, len(c.Items))
	for i, it := range c.Items {
		cp.Items[i] = it.Clone()
	}
	return &cp
}

// ChartItem is one row of the ordered sequence: a type tag, a 1-based dense
// order, and exactly one payload matching the tag.
type ChartItem struct {
	ID      uuid.UUID `db:"id" json:"id"`
	ChartID uuid.UUID `db:"chart_id" json:"chart_id"`
	Type    ItemType  `db:"item_type" json:"type"`
	Order   int       `db:"item_order" json:"order"`
	Payload Payload   `db:"payload" json:"payload"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the type/payload consistency invariant.
func (it *ChartItem) Validate() error {
	if !it.Type.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedItemType, it.Type)
	}
	if it.Payload == nil {
		return fmt.Errorf("%w: %s item has no payload", ErrPayloadMismatch, it.Type)
	}
	if it.Payload.ItemType() != it.Type {
		return fmt.Errorf("%w: item tagged %s carries %s payload",
			ErrPayloadMismatch, it.Type, it.Payload.ItemType())
	}
	return nil
}

// Clone returns a deep copy of the item and its payload.
func (it *ChartItem) Clone() *ChartItem {
	cp := *it
	if it.Payload != nil {
		cp.Payload = it.Payload.Clone()
	}
	return &cp
}

// chartItemJSON is the wire shape of a ChartItem; the payload is decoded in a
// second pass once the type tag is known.
type chartItemJSON struct {
	ID        uuid.UUID       `json:"id"`
	ChartID   uuid.UUID       `json:"chart_id"`
	Type      ItemType        `json:"type"`
	Order     int             `json:"order"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UnmarshalJSON dispatches payload decoding from the type tag so that a
// decoded item always satisfies the type/payload consistency invariant.
func (it *ChartItem) UnmarshalJSON(data []byte) error {
	var raw chartItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}
	it.ID = raw.ID
	it.ChartID = raw.ChartID
	it.Type = raw.Type
	it.Order = raw.Order
	it.Payload = payload
	it.CreatedAt = raw.CreatedAt
	it.UpdatedAt = raw.UpdatedAt
	return nil
}

package chartsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// Per-type add helpers. Each one is the contract a single toolbar button
// binds to: same chart, same placement rule, only the item type differs.

func (c *Client) AddChiefComplaint(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemChiefComplaint, afterOrder)
}

func (c *Client) AddNote(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemNote, afterOrder)
}

func (c *Client) AddNoteEditor(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemNoteEditor, afterOrder)
}

func (c *Client) AddSketch(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemSketch, afterOrder)
}

func (c *Client) AddHeading(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemHeading, afterOrder)
}

func (c *Client) AddSpine(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemSpine, afterOrder)
}

func (c *Client) AddBodyChart(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemBodyChart, afterOrder)
}

func (c *Client) AddFile(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemFile, afterOrder)
}

func (c *Client) AddDropdown(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemDropdown, afterOrder)
}

func (c *Client) AddRange(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemRange, afterOrder)
}

func (c *Client) AddCheckboxes(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemCheckboxes, afterOrder)
}

// AddVitals enforces the one-vitals-per-chart rule locally. When the cached
// chart already holds a vitals item the call fails before any cache write or
// network request.
func (c *Client) AddVitals(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemVitals, afterOrder)
}

func (c *Client) AddAllergy(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemAllergy, afterOrder)
}

func (c *Client) AddProblem(ctx context.Context, chartID uuid.UUID, afterOrder *int) (uuid.UUID, error) {
	return c.AddItem(ctx, chartID, chart.ItemProblem, afterOrder)
}

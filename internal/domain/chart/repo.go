package chart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderUpdate is one row of a renumbering batch.
type OrderUpdate struct {
	ItemID uuid.UUID
	Order  int
}

type Repository interface {
	CreateChart(ctx context.Context, c *Chart) error
	GetChart(ctx context.Context, id uuid.UUID) (*Chart, error)
	ListChartsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Chart, int, error)
	SignChart(ctx context.Context, chartID, signerID uuid.UUID, at time.Time) error

	CreateItem(ctx context.Context, it *ChartItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*ChartItem, error)
	UpdateItemPayload(ctx context.Context, itemID uuid.UUID, payload Payload) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// UpdateOrders persists a renumbering batch. All updates are applied
	// atomically or not at all; a partial renumbering would break the dense
	// order invariant.
	UpdateOrders(ctx context.Context, updates []OrderUpdate) error

	// LockChart serializes concurrent item mutations against one chart. Only
	// meaningful inside InTx; the lock is released when the transaction ends.
	LockChart(ctx context.Context, chartID uuid.UUID) error

	// InTx runs fn inside a single database transaction. Repository calls made
	// with the ctx passed to fn join that transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// OrganizationCountry resolves the country code used for vitals unit
	// defaults.
	OrganizationCountry(ctx context.Context, orgID uuid.UUID) (string, error)
}

package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Auditor records chart lifecycle events. The audit domain adapts its service
// to this interface in main, keeping the two packages decoupled.
type Auditor interface {
	Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID) error
}

type Service struct {
	repo    Repository
	auditor Auditor
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetAuditor attaches an optional audit recorder to the service.
func (s *Service) SetAuditor(a Auditor) {
	s.auditor = a
}

// CreateItemRequest carries everything the item-creation transaction needs.
// A nil ChartID means "create the chart first"; a nil InsertAfterOrder means
// append. Clients that write the item into their local cache before the
// request settles mint the item id themselves and send it along, so the
// speculative row and the stored row agree.
type CreateItemRequest struct {
	ItemID           *uuid.UUID
	ChartID          *uuid.UUID
	Type             ItemType
	InsertAfterOrder *int
	PatientID        uuid.UUID
	OrganizationID   uuid.UUID
	CreatedByID      uuid.UUID
	AssignedToID     *uuid.UUID
	ConsultationID   *uuid.UUID
}

// GetChart returns the chart with its items sorted by order, each carrying
// exactly one payload matching its type.
func (s *Service) GetChart(ctx context.Context, id uuid.UUID) (*Chart, error) {
	return s.repo.GetChart(ctx, id)
}

func (s *Service) ListChartsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Chart, int, error) {
	return s.repo.ListChartsByPatient(ctx, patientID, limit, offset)
}

// CreateChartItem is the authoritative create/reindex transaction: it creates
// the chart when none exists yet, creates the item with the default payload
// for its type, splices it in after the requested position and persists the
// renumbered order for every item, all inside one transaction serialized
// per chart.
func (s *Service) CreateChartItem(ctx context.Context, req CreateItemRequest) (*ChartItem, error) {
	if !req.Type.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedItemType, req.Type)
	}

	var created *ChartItem
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		ch, err := s.resolveChart(ctx, req)
		if err != nil {
			return err
		}

		if req.Type == ItemVitals && ch.HasItemOfType(ItemVitals) {
			return ErrVitalsExists
		}

		pctx := PayloadContext{}
		if req.Type == ItemVitals {
			country, err := s.repo.OrganizationCountry(ctx, ch.OrganizationID)
			if err != nil {
				return fmt.Errorf("resolve organization country: %w", err)
			}
			pctx.Country = country
		}
		payload, err := DefaultPayload(req.Type, pctx)
		if err != nil {
			return err
		}

		itemID := uuid.New()
		if req.ItemID != nil && *req.ItemID != uuid.Nil {
			itemID = *req.ItemID
		}
		item := &ChartItem{
			ID:      itemID,
			ChartID: ch.ID,
			Type:    req.Type,
			Payload: payload,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create chart item: %w", err)
		}

		after := len(ch.Items)
		if req.InsertAfterOrder != nil {
			after = *req.InsertAfterOrder
		}
		ch.Items = InsertAfterOrder(ch.Items, after, item)

		if err := s.repo.UpdateOrders(ctx, orderUpdates(ch.Items)); err != nil {
			return fmt.Errorf("persist item order: %w", err)
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveChart loads and locks the target chart, or creates a fresh one when
// the request names none. Chart-creation failure aborts the whole operation.
func (s *Service) resolveChart(ctx context.Context, req CreateItemRequest) (*Chart, error) {
	if req.ChartID != nil {
		if err := s.repo.LockChart(ctx, *req.ChartID); err != nil {
			return nil, fmt.Errorf("lock chart: %w", err)
		}
		ch, err := s.repo.GetChart(ctx, *req.ChartID)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	ch := &Chart{
		ID:             uuid.New(),
		Name:           DefaultChartName,
		PatientID:      req.PatientID,
		OrganizationID: req.OrganizationID,
		CreatedByID:    req.CreatedByID,
		AssignedToID:   req.AssignedToID,
		ConsultationID: req.ConsultationID,
	}
	if err := s.repo.CreateChart(ctx, ch); err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	if s.auditor != nil {
		_ = s.auditor.Record(ctx, "create", "Chart", ch.ID)
	}
	return ch, nil
}

// UpdateItemPayload applies a partial field update to an item's payload. The
// fields document is decoded onto the stored payload, so absent fields keep
// their values. Order and type are never touched here.
func (s *Service) UpdateItemPayload(ctx context.Context, itemID uuid.UUID, typ ItemType, fields json.RawMessage) (*ChartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Type != typ {
		return nil, fmt.Errorf("%w: item is %s, request says %s", ErrPayloadMismatch, item.Type, typ)
	}
	patched := item.Payload.Clone()
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, patched); err != nil {
			return nil, fmt.Errorf("decode %s fields: %w", typ, err)
		}
	}
	if err := s.repo.UpdateItemPayload(ctx, itemID, patched); err != nil {
		return nil, err
	}
	item.Payload = patched
	return item, nil
}

// ReplaceItemPayload swaps an item's payload wholesale, as the editor-dialog
// save does. Option-list payloads are validated first; validation failures
// reach the caller without touching storage.
func (s *Service) ReplaceItemPayload(ctx context.Context, itemID uuid.UUID, payload Payload) (*ChartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Type != payload.ItemType() {
		return nil, fmt.Errorf("%w: item is %s, payload is %s", ErrPayloadMismatch, item.Type, payload.ItemType())
	}
	if errs := ValidateStructured(payload); len(errs) > 0 {
		return nil, errs
	}
	if err := s.repo.UpdateItemPayload(ctx, itemID, payload); err != nil {
		return nil, err
	}
	item.Payload = payload
	return item, nil
}

// DeleteItem removes an item and its payload, then renumbers the remaining
// items so the dense invariant holds.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return s.repo.InTx(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := s.repo.LockChart(ctx, item.ChartID); err != nil {
			return fmt.Errorf("lock chart: %w", err)
		}
		ch, err := s.repo.GetChart(ctx, item.ChartID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		ch.Items = Remove(ch.Items, itemID)
		if err := s.repo.UpdateOrders(ctx, orderUpdates(ch.Items)); err != nil {
			return fmt.Errorf("persist item order: %w", err)
		}
		return nil
	})
}

// Reorder persists a drag-and-drop move of the item at src to dst.
func (s *Service) Reorder(ctx context.Context, chartID uuid.UUID, src, dst int) error {
	return s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockChart(ctx, chartID); err != nil {
			return fmt.Errorf("lock chart: %w", err)
		}
		ch, err := s.repo.GetChart(ctx, chartID)
		if err != nil {
			return err
		}
		if src < 0 || src >= len(ch.Items) || dst < 0 || dst >= len(ch.Items) {
			return fmt.Errorf("reorder out of range: source %d, dest %d of %d items", src, dst, len(ch.Items))
		}
		Move(ch.Items, src, dst)
		if err := s.repo.UpdateOrders(ctx, orderUpdates(ch.Items)); err != nil {
			return fmt.Errorf("persist item order: %w", err)
		}
		return nil
	})
}

// SignChart freezes the chart by recording who signed it and when. A second
// sign attempt is a conflict.
func (s *Service) SignChart(ctx context.Context, chartID, signerID uuid.UUID) (*Chart, error) {
	ch, err := s.repo.GetChart(ctx, chartID)
	if err != nil {
		return nil, err
	}
	if ch.Signed() {
		return nil, ErrChartSigned
	}
	now := time.Now().UTC()
	if err := s.repo.SignChart(ctx, chartID, signerID, now); err != nil {
		return nil, err
	}
	ch.SignedByID = &signerID
	ch.SignedAt = &now
	if s.auditor != nil {
		_ = s.auditor.Record(ctx, "sign", "Chart", ch.ID)
	}
	return ch, nil
}

// ApplyTemplate appends one item per listed type to the chart, in order,
// inside a single transaction. Unsupported types and the vitals singleton
// rule are checked before anything is created.
func (s *Service) ApplyTemplate(ctx context.Context, chartID uuid.UUID, types []ItemType) ([]*ChartItem, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("template has no item types")
	}
	for _, t := range types {
		if !t.Supported() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedItemType, t)
		}
	}

	var created []*ChartItem
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockChart(ctx, chartID); err != nil {
			return fmt.Errorf("lock chart: %w", err)
		}
		ch, err := s.repo.GetChart(ctx, chartID)
		if err != nil {
			return err
		}

		vitals := 0
		if ch.HasItemOfType(ItemVitals) {
			vitals = 1
		}
		for _, t := range types {
			if t != ItemVitals {
				continue
			}
			vitals++
			if vitals > 1 {
				return ErrVitalsExists
			}
		}

		pctx := PayloadContext{}
		if vitals > 0 {
			country, err := s.repo.OrganizationCountry(ctx, ch.OrganizationID)
			if err != nil {
				return fmt.Errorf("resolve organization country: %w", err)
			}
			pctx.Country = country
		}

		for _, t := range types {
			payload, err := DefaultPayload(t, pctx)
			if err != nil {
				return err
			}
			item := &ChartItem{
				ID:      uuid.New(),
				ChartID: ch.ID,
				Type:    t,
				Payload: payload,
			}
			if err := s.repo.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("create %s item: %w", t, err)
			}
			ch.Items = append(ch.Items, item)
			created = append(created, item)
		}
		Renumber(ch.Items)
		if err := s.repo.UpdateOrders(ctx, orderUpdates(ch.Items)); err != nil {
			return fmt.Errorf("persist item order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func orderUpdates(items []*ChartItem) []OrderUpdate {
	updates := make([]OrderUpdate, len(items))
	for i, it := range items {
		updates[i] = OrderUpdate{ItemID: it.ID, Order: it.Order}
	}
	return updates
}

package chartsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// Client keeps a chart cache in sync with a Remote. Reads serve from cache
// and refetch when stale; writes apply locally first and reconcile with the
// server response.
type Client struct {
	cache  *Cache
	remote Remote
	log    zerolog.Logger
}

func NewClient(remote Remote, log zerolog.Logger) *Client {
	return &Client{
		cache:  NewCache(),
		remote: remote,
		log:    log.With().Str("component", "chartsync").Logger(),
	}
}

// Cache exposes the underlying cache to subscribers.
func (c *Client) Cache() *Cache {
	return c.cache
}

// GetChart returns the cached chart, refetching first when the entry is
// missing or stale.
func (c *Client) GetChart(ctx context.Context, chartID uuid.UUID) (*chart.Chart, error) {
	key := ChartKey(chartID)
	if !c.cache.Stale(key) {
		return c.cache.Get(key), nil
	}
	return c.RefetchChart(ctx, chartID)
}

// RefetchChart fetches the chart from the server unconditionally and updates
// the cache. A mutation started while the fetch is in flight cancels it, in
// which case the cache keeps whatever the mutation wrote.
func (c *Client) RefetchChart(ctx context.Context, chartID uuid.UUID) (*chart.Chart, error) {
	key := ChartKey(chartID)
	ctx, done := c.cache.trackRefetch(ctx, key)
	defer done()

	ch, err := c.remote.FetchChart(ctx, chartID)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded by a mutation; the cached value stands.
			return c.cache.Get(key), nil
		}
		return nil, err
	}
	c.cache.Set(key, ch)
	return ch.Clone(), nil
}

// AddItem creates a new item of the given type, speculatively placed right
// after the item currently holding afterOrder. A nil afterOrder appends.
// The returned id is minted locally and will match the stored item.
func (c *Client) AddItem(ctx context.Context, chartID uuid.UUID, typ chart.ItemType, afterOrder *int) (uuid.UUID, error) {
	if !typ.Supported() {
		return uuid.Nil, fmt.Errorf("%w: %s", chart.ErrUnsupportedItemType, typ)
	}
	itemID := uuid.New()
	key := ChartKey(chartID)

	m := mutation{
		key: key,
		validate: func(current *chart.Chart) error {
			if typ == chart.ItemVitals && current != nil && current.HasItemOfType(chart.ItemVitals) {
				return chart.ErrVitalsExists
			}
			return nil
		},
		apply: func(current *chart.Chart) *chart.Chart {
			if current == nil {
				return nil
			}
			item := &chart.ChartItem{
				ID:      itemID,
				ChartID: chartID,
				Type:    typ,
				Payload: speculativePayload(typ),
			}
			after := len(current.Items)
			if afterOrder != nil {
				after = *afterOrder
			}
			current.Items = chart.InsertAfterOrder(current.Items, after, item)
			return current
		},
		send: func(ctx context.Context) error {
			chID := chartID
			_, err := c.remote.AddItem(ctx, AddItemRequest{
				ItemID:           itemID,
				ChartID:          &chID,
				Type:             typ,
				InsertAfterOrder: afterOrder,
			})
			return err
		},
	}
	if err := c.run(ctx, m); err != nil {
		return uuid.Nil, err
	}
	return itemID, nil
}

// AddItemToNewChart creates the first item for a patient with no chart yet.
// The server resolves or creates the chart, so there is no cache entry to
// write speculatively; the call is a plain round trip and the chart the
// server picked is fetched into the cache before returning.
func (c *Client) AddItemToNewChart(ctx context.Context, patientID uuid.UUID, consultationID *uuid.UUID, typ chart.ItemType) (chartID, itemID uuid.UUID, err error) {
	if !typ.Supported() {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %s", chart.ErrUnsupportedItemType, typ)
	}
	if patientID == uuid.Nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("patient_id is required")
	}
	itemID = uuid.New()
	item, err := c.remote.AddItem(ctx, AddItemRequest{
		ItemID:         itemID,
		Type:           typ,
		PatientID:      patientID,
		ConsultationID: consultationID,
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if _, err := c.RefetchChart(ctx, item.ChartID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return item.ChartID, itemID, nil
}

// UpdateItem applies a partial payload update. The same fields document is
// written into the cached payload and sent to the server.
func (c *Client) UpdateItem(ctx context.Context, chartID, itemID uuid.UUID, typ chart.ItemType, fields json.RawMessage) error {
	key := ChartKey(chartID)
	m := mutation{
		key: key,
		apply: func(current *chart.Chart) *chart.Chart {
			if current == nil {
				return nil
			}
			item := current.ItemByID(itemID)
			if item == nil || item.Type != typ {
				return current
			}
			patched := item.Payload.Clone()
			if json.Unmarshal(fields, patched) == nil {
				item.Payload = patched
			}
			return current
		},
		send: func(ctx context.Context) error {
			return c.remote.UpdateItem(ctx, itemID, typ, fields)
		},
	}
	return c.run(ctx, m)
}

// ReplaceItem swaps an item's payload wholesale, validating option lists
// before anything is written or sent.
func (c *Client) ReplaceItem(ctx context.Context, chartID, itemID uuid.UUID, payload chart.Payload) error {
	if errs := chart.ValidateStructured(payload); len(errs) > 0 {
		return errs
	}
	key := ChartKey(chartID)
	m := mutation{
		key: key,
		apply: func(current *chart.Chart) *chart.Chart {
			if current == nil {
				return nil
			}
			if item := current.ItemByID(itemID); item != nil && item.Type == payload.ItemType() {
				item.Payload = payload.Clone()
			}
			return current
		},
		send: func(ctx context.Context) error {
			return c.remote.ReplaceItem(ctx, itemID, payload)
		},
	}
	return c.run(ctx, m)
}

// RemoveItem deletes an item and renumbers the remaining ones locally.
func (c *Client) RemoveItem(ctx context.Context, chartID, itemID uuid.UUID) error {
	key := ChartKey(chartID)
	m := mutation{
		key: key,
		apply: func(current *chart.Chart) *chart.Chart {
			if current == nil {
				return nil
			}
			current.Items = chart.Remove(current.Items, itemID)
			return current
		},
		send: func(ctx context.Context) error {
			return c.remote.DeleteItem(ctx, itemID)
		},
	}
	return c.run(ctx, m)
}

// Reorder moves the item at index src to index dst, as a drag gesture does.
func (c *Client) Reorder(ctx context.Context, chartID uuid.UUID, src, dst int) error {
	key := ChartKey(chartID)
	m := mutation{
		key: key,
		validate: func(current *chart.Chart) error {
			if current == nil {
				return nil
			}
			if src < 0 || src >= len(current.Items) || dst < 0 || dst >= len(current.Items) {
				return fmt.Errorf("reorder out of range: source %d, dest %d of %d items", src, dst, len(current.Items))
			}
			return nil
		},
		apply: func(current *chart.Chart) *chart.Chart {
			if current == nil {
				return nil
			}
			chart.Move(current.Items, src, dst)
			return current
		},
		send: func(ctx context.Context) error {
			return c.remote.Reorder(ctx, chartID, src, dst)
		},
	}
	return c.run(ctx, m)
}

// speculativePayload is the placeholder written into the cache for a freshly
// added item. Vitals defaults depend on the organization's country, which
// only the server knows, so the cache shows metric defaults until the
// post-settle refetch replaces them.
func speculativePayload(typ chart.ItemType) chart.Payload {
	p, err := chart.DefaultPayload(typ, chart.PayloadContext{})
	if err != nil {
		return nil
	}
	return p
}

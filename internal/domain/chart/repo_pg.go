package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartnote/chartnote/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const chartCols = `id, name, patient_id, organization_id, created_by_id,
	assigned_to_id, consultation_id, signed_by_id, signed_at, created_at, updated_at`

const itemCols = `id, chart_id, item_type, item_order, payload, created_at, updated_at`

func (r *repoPG) CreateChart(ctx context.Context, ch *Chart) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	if ch.Name == "" {
		ch.Name = DefaultChartName
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO chart (id, name, patient_id, organization_id, created_by_id,
			assigned_to_id, consultation_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ch.ID, ch.Name, ch.PatientID, ch.OrganizationID, ch.CreatedByID,
		ch.AssignedToID, ch.ConsultationID,
	)
	return err
}

func (r *repoPG) GetChart(ctx context.Context, id uuid.UUID) (*Chart, error) {
	ch, err := scanChart(r.conn(ctx).QueryRow(ctx, `SELECT `+chartCols+` FROM chart WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChartNotFound
		}
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM chart_item WHERE chart_id = $1 ORDER BY item_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		ch.Items = append(ch.Items, item)
	}
	return ch, rows.Err()
}

func (r *repoPG) ListChartsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Chart, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chart WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+chartCols+` FROM chart WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var charts []*Chart
	for rows.Next() {
		ch, err := scanChart(rows)
		if err != nil {
			return nil, 0, err
		}
		charts = append(charts, ch)
	}
	return charts, total, rows.Err()
}

func (r *repoPG) SignChart(ctx context.Context, chartID, signerID uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE chart SET signed_by_id = $2, signed_at = $3, updated_at = NOW()
		WHERE id = $1 AND signed_at IS NULL`,
		chartID, signerID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChartSigned
	}
	return nil
}

func (r *repoPG) CreateItem(ctx context.Context, item *ChartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	raw, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", item.Type, err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO chart_item (id, chart_id, item_type, item_order, payload)
		VALUES ($1,$2,$3,$4,$5)`,
		item.ID, item.ChartID, item.Type, item.Order, raw,
	)
	return err
}

func (r *repoPG) GetItem(ctx context.Context, id uuid.UUID) (*ChartItem, error) {
	item, err := scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM chart_item WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *repoPG) UpdateItemPayload(ctx context.Context, itemID uuid.UUID, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", payload.ItemType(), err)
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE chart_item SET payload = $2, updated_at = NOW() WHERE id = $1`, itemID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repoPG) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM chart_item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// UpdateOrders rewrites item positions in one statement so a partial write
// can never leave a chart half renumbered.
func (r *repoPG) UpdateOrders(ctx context.Context, updates []OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(updates))
	orders := make([]int, len(updates))
	for i, u := range updates {
		ids[i] = u.ItemID
		orders[i] = u.Order
	}
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE chart_item AS ci
		SET item_order = u.ord, updated_at = NOW()
		FROM unnest($1::uuid[], $2::int[]) AS u(id, ord)
		WHERE ci.id = u.id`,
		ids, orders)
	return err
}

// LockChart takes a transaction-scoped advisory lock keyed on the chart id,
// serializing concurrent reindex operations on the same chart.
func (r *repoPG) LockChart(ctx context.Context, chartID uuid.UUID) error {
	if db.TxFromContext(ctx) == nil {
		return fmt.Errorf("lock chart: no transaction in context")
	}
	_, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, chartID.String())
	return err
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

func (r *repoPG) OrganizationCountry(ctx context.Context, orgID uuid.UUID) (string, error) {
	var country string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT country FROM organization WHERE id = $1`, orgID).Scan(&country)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return country, nil
}

func scanChart(row pgx.Row) (*Chart, error) {
	var ch Chart
	err := row.Scan(
		&ch.ID, &ch.Name, &ch.PatientID, &ch.OrganizationID, &ch.CreatedByID,
		&ch.AssignedToID, &ch.ConsultationID, &ch.SignedByID, &ch.SignedAt,
		&ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func scanItem(row pgx.Row) (*ChartItem, error) {
	var (
		item ChartItem
		raw  []byte
	)
	if err := row.Scan(&item.ID, &item.ChartID, &item.Type, &item.Order, &raw,
		&item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	payload, err := DecodePayload(item.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	item.Payload = payload
	return &item, nil
}

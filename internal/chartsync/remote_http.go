package chartsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// HTTPRemote talks to the charting API over its JSON endpoints.
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPRemote(baseURL, token string) *HTTPRemote {
	return &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError translates an error response back into the domain error the
// server mapped it from, so callers can use errors.Is on both sides of the
// wire.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var wrapper struct {
		Message interface{} `json:"message"`
	}
	_ = json.Unmarshal(raw, &wrapper)

	// Validation failures nest their details under message.errors.
	if nested, ok := wrapper.Message.(map[string]interface{}); ok {
		if rawErrs, err := json.Marshal(nested["errors"]); err == nil {
			var verrs chart.ValidationErrors
			if json.Unmarshal(rawErrs, &verrs) == nil && len(verrs) > 0 {
				return verrs
			}
		}
	}

	msg, _ := wrapper.Message.(string)
	switch resp.StatusCode {
	case http.StatusNotFound:
		if strings.Contains(msg, "item") {
			return chart.ErrItemNotFound
		}
		return chart.ErrChartNotFound
	case http.StatusConflict:
		if strings.Contains(msg, "signed") {
			return chart.ErrChartSigned
		}
		return chart.ErrVitalsExists
	default:
		if msg == "" {
			msg = string(raw)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
}

func (r *HTTPRemote) FetchChart(ctx context.Context, chartID uuid.UUID) (*chart.Chart, error) {
	var ch chart.Chart
	if err := r.do(ctx, http.MethodGet, "/api/v1/charts/"+chartID.String(), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *HTTPRemote) AddItem(ctx context.Context, req AddItemRequest) (*chart.ChartItem, error) {
	var item chart.ChartItem
	if err := r.do(ctx, http.MethodPost, "/api/v1/chart-items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *HTTPRemote) UpdateItem(ctx context.Context, itemID uuid.UUID, typ chart.ItemType, fields json.RawMessage) error {
	body := map[string]interface{}{"type": typ, "fields": fields}
	return r.do(ctx, http.MethodPatch, "/api/v1/chart-items/"+itemID.String(), body, nil)
}

func (r *HTTPRemote) ReplaceItem(ctx context.Context, itemID uuid.UUID, payload chart.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	body := map[string]interface{}{"type": payload.ItemType(), "payload": json.RawMessage(raw)}
	return r.do(ctx, http.MethodPut, "/api/v1/chart-items/"+itemID.String(), body, nil)
}

func (r *HTTPRemote) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.do(ctx, http.MethodDelete, "/api/v1/chart-items/"+itemID.String(), nil, nil)
}

func (r *HTTPRemote) Reorder(ctx context.Context, chartID uuid.UUID, src, dst int) error {
	body := map[string]int{"source_index": src, "dest_index": dst}
	return r.do(ctx, http.MethodPost, "/api/v1/charts/"+chartID.String()+"/reorder", body, nil)
}

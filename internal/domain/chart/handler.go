package chart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chartnote/chartnote/internal/platform/auth"
	"github.com/chartnote/chartnote/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/charts/:id", h.GetChart)
	readGroup.GET("/patients/:id/charts", h.ListPatientCharts)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	writeGroup.POST("/chart-items", h.CreateChartItem)
	writeGroup.PATCH("/chart-items/:id", h.UpdateChartItem)
	writeGroup.PUT("/chart-items/:id", h.ReplaceChartItem)
	writeGroup.DELETE("/chart-items/:id", h.DeleteChartItem)
	writeGroup.POST("/charts/:id/reorder", h.ReorderChart)
	writeGroup.POST("/charts/:id/apply-template", h.ApplyTemplate)

	signGroup := api.Group("", auth.RequireRole("admin", "physician"))
	signGroup.POST("/charts/:id/sign", h.SignChart)
}

func (h *Handler) GetChart(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ch, err := h.svc.GetChart(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) ListPatientCharts(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	charts, total, err := h.svc.ListChartsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(charts, total, pg.Limit, pg.Offset))
}

type createItemBody struct {
	ItemID           *uuid.UUID `json:"item_id"`
	ChartID          *uuid.UUID `json:"chart_id"`
	Type             ItemType   `json:"type"`
	InsertAfterOrder *int       `json:"insert_after_order"`
	PatientID        uuid.UUID  `json:"patient_id"`
	AssignedToID     *uuid.UUID `json:"assigned_to_id"`
	ConsultationID   *uuid.UUID `json:"consultation_id"`
}

func (h *Handler) CreateChartItem(c echo.Context) error {
	var body createItemBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	item, err := h.svc.CreateChartItem(ctx, CreateItemRequest{
		ItemID:           body.ItemID,
		ChartID:          body.ChartID,
		Type:             body.Type,
		InsertAfterOrder: body.InsertAfterOrder,
		PatientID:        body.PatientID,
		OrganizationID:   auth.OrganizationIDFromContext(ctx),
		CreatedByID:      userID,
		AssignedToID:     body.AssignedToID,
		ConsultationID:   body.ConsultationID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

type updateItemBody struct {
	Type   ItemType        `json:"type"`
	Fields json.RawMessage `json:"fields"`
}

func (h *Handler) UpdateChartItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body updateItemBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdateItemPayload(c.Request().Context(), id, body.Type, body.Fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

type replaceItemBody struct {
	Type    ItemType        `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (h *Handler) ReplaceChartItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body replaceItemBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	payload, err := DecodePayload(body.Type, body.Payload)
	if err != nil {
		return httpError(err)
	}
	item, err := h.svc.ReplaceItemPayload(c.Request().Context(), id, payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteChartItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteItem(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type reorderBody struct {
	SourceIndex int `json:"source_index"`
	DestIndex   int `json:"dest_index"`
}

func (h *Handler) ReorderChart(c echo.Context) error {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body reorderBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Reorder(c.Request().Context(), chartID, body.SourceIndex, body.DestIndex); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SignChart(c echo.Context) error {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	signerID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	ch, err := h.svc.SignChart(ctx, chartID, signerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ch)
}

type applyTemplateBody struct {
	Types []ItemType `json:"types"`
}

func (h *Handler) ApplyTemplate(c echo.Context) error {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body applyTemplateBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.ApplyTemplate(c.Request().Context(), chartID, body.Types)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, items)
}

// httpError maps domain errors onto HTTP status codes. Validation failures
// carry their per-row details in the response body.
func httpError(err error) error {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "validation failed",
			"errors":  verrs,
		})
	}
	switch {
	case errors.Is(err, ErrChartNotFound), errors.Is(err, ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrVitalsExists), errors.Is(err, ErrChartSigned):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnsupportedItemType), errors.Is(err, ErrPayloadMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		// The request logger records the cause; the client gets no detail.
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

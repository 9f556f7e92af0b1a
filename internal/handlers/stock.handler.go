package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/sowlabs/transfer-office/internal/model"
	xhttp "github.com/sowlabs/transfer-office/pkg/http"
)

type StockService interface {
	Create(ctx context.Context, req model.StockCreateRequest) (*model.Stock, error)
	Get(ctx context.Context, id int64) (*model.Stock, error)
	List(ctx context.Context, f model.StockFilter) ([]*model.Stock, int64, error)
	Update(ctx context.Context, id int64, u model.StockUpdate) error
	Delete(ctx context.Context, id int64) error
}

type StockHandler struct {
	svc StockService
}

func RegisterStockRoutes(e *router.Group, h *StockHandler) {
	e.POST("/stocks", h.CreateStock)
	e.GET("/stocks", h.ListStocks)
	e.GET("/stocks/{id}", h.GetStock)
	e.PATCH("/stocks/{id}", h.UpdateStock)
	e.DELETE("/stocks/{id}", h.DeleteStock)
}

func NewStockHandler(stockService StockService) *StockHandler {
	return &StockHandler{
		svc: stockService,
	}
}

type createStockRequest struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Location  string  `json:"location"`
}

type updateStockRequest struct {
	Name      *string  `json:"name"`
	Quantity  *int64   `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	Location  *string  `json:"location"`
}

type listStocksResponse struct {
	Items []*model.Stock `json:"items"`
	Total int64          `json:"total"`
}

func (h *StockHandler) CreateStock(ctx *xhttp.RequestCtx) {
	var req createStockRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON body")
		return
	}

	p := model.StockCreateRequest{
		Code:      req.Code,
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Location:  req.Location,
	}

	s, err := h.svc.Create(ctx, p)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 201, s)
}

func (h *StockHandler) GetStock(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	s, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, s)
}

func (h *StockHandler) ListStocks(ctx *xhttp.RequestCtx) {
	var f model.StockFilter

	if v := query(ctx, "code"); v != "" {
		code := model.Normalize(v)
		f.Code = &code
	}
	if v := query(ctx, "location"); v != "" {
		loc := model.Normalize(v)
		f.Location = &loc
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, listStocksResponse{Items: items, Total: total})
}

func (h *StockHandler) UpdateStock(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	var req updateStockRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON body")
		return
	}

	u := model.StockUpdate{
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Location:  req.Location,
	}

	if err := h.svc.Update(ctx, id, u); err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}

	s, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, s)
}

func (h *StockHandler) DeleteStock(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

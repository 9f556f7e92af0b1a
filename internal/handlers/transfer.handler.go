package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/repository"
	xhttp "github.com/sowlabs/transfer-office/pkg/http"
)

type TransferService interface {
	Create(ctx context.Context, req model.TransferCreateRequest) (*model.Transfer, error)
	Get(ctx context.Context, id int64) (*model.Transfer, error)
	List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error)
	Update(ctx context.Context, id int64, u model.TransferUpdate) error
	Delete(ctx context.Context, id int64) error
	Withdraw(ctx context.Context, id int64, mode string) (*model.Transfer, error)
}

type TransferHandler struct {
	svc TransferService
}

func RegisterTransferRoutes(e *router.Group, h *TransferHandler) {
	e.POST("/transfers", h.CreateTransfer)
	e.GET("/transfers", h.ListTransfers)
	e.GET("/transfers/{id}", h.GetTransfer)
	e.PATCH("/transfers/{id}", h.UpdateTransfer)
	e.DELETE("/transfers/{id}", h.DeleteTransfer)
	e.POST("/transfers/{id}/withdraw", h.WithdrawTransfer)
}

func NewTransferHandler(transferService TransferService) *TransferHandler {
	return &TransferHandler{
		svc: transferService,
	}
}

type createTransferRequest struct {
	Code                string  `json:"code"`
	UserType            string  `json:"user_type"`
	SenderFirstName     string  `json:"sender_first_name"`
	SenderPhone         string  `json:"sender_phone"`
	OriginLocation      string  `json:"origin_location"`
	ReceiverFirstName   string  `json:"receiver_first_name"`
	ReceiverPhone       string  `json:"receiver_phone"`
	DestinationLocation string  `json:"destination_location"`
	Amount              float64 `json:"amount"`
	Fees                float64 `json:"fees"`
	Currency            string  `json:"currency"`
	RecoveryMode        string  `json:"recovery_mode"`
}

type updateTransferRequest struct {
	UserType            *string  `json:"user_type"`
	SenderFirstName     *string  `json:"sender_first_name"`
	SenderPhone         *string  `json:"sender_phone"`
	OriginLocation      *string  `json:"origin_location"`
	ReceiverFirstName   *string  `json:"receiver_first_name"`
	ReceiverPhone       *string  `json:"receiver_phone"`
	DestinationLocation *string  `json:"destination_location"`
	Amount              *float64 `json:"amount"`
	Fees                *float64 `json:"fees"`
	Currency            *string  `json:"currency"`
	RecoveryMode        *string  `json:"recovery_mode"`
}

type withdrawRequest struct {
	Mode string `json:"mode"`
}

type listTransfersResponse struct {
	Items []*model.Transfer `json:"items"`
	Total int64             `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *TransferHandler) CreateTransfer(ctx *xhttp.RequestCtx) {
	var req createTransferRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON body")
		return
	}

	p := model.TransferCreateRequest{
		Code:                req.Code,
		UserType:            req.UserType,
		SenderFirstName:     req.SenderFirstName,
		SenderPhone:         req.SenderPhone,
		OriginLocation:      req.OriginLocation,
		ReceiverFirstName:   req.ReceiverFirstName,
		ReceiverPhone:       req.ReceiverPhone,
		DestinationLocation: req.DestinationLocation,
		Amount:              req.Amount,
		Fees:                req.Fees,
		Currency:            req.Currency,
		RecoveryMode:        req.RecoveryMode,
	}

	t, err := h.svc.Create(ctx, p)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 201, t)
}

func (h *TransferHandler) GetTransfer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	t, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, t)
}

func (h *TransferHandler) ListTransfers(ctx *xhttp.RequestCtx) {
	var f model.TransferFilter

	if v := query(ctx, "code"); v != "" {
		code := model.Normalize(v)
		f.Code = &code
	}
	if v := query(ctx, "phone"); v != "" {
		f.Phone = &v
	}
	if v := query(ctx, "retired"); v != "" {
		if b, e := strconv.ParseBool(v); e == nil {
			f.Retired = &b
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
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
	writeJSON(ctx, 200, listTransfersResponse{Items: items, Total: total})
}

func (h *TransferHandler) UpdateTransfer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	var req updateTransferRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON body")
		return
	}

	u := model.TransferUpdate{
		UserType:            req.UserType,
		SenderFirstName:     req.SenderFirstName,
		SenderPhone:         req.SenderPhone,
		OriginLocation:      req.OriginLocation,
		ReceiverFirstName:   req.ReceiverFirstName,
		ReceiverPhone:       req.ReceiverPhone,
		DestinationLocation: req.DestinationLocation,
		Amount:              req.Amount,
		Fees:                req.Fees,
		Currency:            req.Currency,
		RecoveryMode:        req.RecoveryMode,
	}
	if u.IsEmpty() {
		writeError(ctx, 400, "no fields to update")
		return
	}

	if err := h.svc.Update(ctx, id, u); err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}

	t, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, t)
}

func (h *TransferHandler) DeleteTransfer(ctx *xhttp.RequestCtx) {
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

func (h *TransferHandler) WithdrawTransfer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	var req withdrawRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON body")
		return
	}

	t, err := h.svc.Withdraw(ctx, id, req.Mode)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, 200, t)
}

/* -------------------------------- Helpers ------------------------------------ */

func statusForError(err error) int {
	switch {
	case model.IsValidationError(err):
		return 400
	case errors.Is(err, repository.ErrNotFound):
		return 404
	case errors.Is(err, repository.ErrAlreadyWithdrawn),
		errors.Is(err, repository.ErrDuplicateCode):
		return 409
	default:
		return 500
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathID(ctx *xhttp.RequestCtx) (int64, error) {
	idStr, _ := ctx.UserValue("id").(string)
	return strconv.ParseInt(idStr, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Package httpapi exposes the ledger engine over HTTP with JSON bodies.
//
// The handler is a thin adapter: it parses requests, delegates to the
// engine, and shapes responses. It never re-derives netting or
// validation the engine already owns.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	squadledger "github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

// Handler serves the ledger HTTP API.
type Handler struct {
	engine *squadledger.Ledger
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates a Handler for the given engine.
func New(engine *squadledger.Ledger, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns a mux with every ledger endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /debts", h.handleGetDebts)

	mux.HandleFunc("POST /receipts", h.handleSaveReceipt)
	mux.HandleFunc("GET /receipts", h.handleListReceipts)
	mux.HandleFunc("GET /receipts/{id}", h.handleGetReceipt)
	mux.HandleFunc("DELETE /receipts/{id}", h.handleDeleteReceipt)

	mux.HandleFunc("POST /payments", h.handleCreatePayment)
	mux.HandleFunc("GET /payments", h.handleListPayments)
	mux.HandleFunc("GET /payments/{id}", h.handleGetPayment)
	mux.HandleFunc("DELETE /payments/{id}", h.handleDeletePayment)

	return mux
}

// ──────────────────────────────────────────────────
// Wire shapes
// ──────────────────────────────────────────────────

type debtEntry struct {
	UserID       string `json:"userId"`
	Amount       int64  `json:"amount"`
	IsIncomplete bool   `json:"isIncomplete,omitempty"`
}

type debtsResponse struct {
	IngoingDebts         []debtEntry `json:"ingoingDebts"`
	OutgoingDebts        []debtEntry `json:"outgoingDebts"`
	IncompleteReceiptIDs []string    `json:"incompleteReceiptIds,omitempty"`
}

type shareRequest struct {
	DebtorID string       `json:"debtorId"`
	Amount   types.Amount `json:"amount"`
}

type saveReceiptRequest struct {
	ID          string         `json:"id,omitempty"`
	EditorID    string         `json:"editorId"`
	PayerID     string         `json:"payerId"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Description string         `json:"description,omitempty"`
	PhotoID     string         `json:"photoId,omitempty"`
	Debts       []shareRequest `json:"debts"`
}

type receiptResponse struct {
	ID          string       `json:"id"`
	PayerID     string       `json:"payerId"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	Description string       `json:"description,omitempty"`
	PhotoID     string       `json:"photoId,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	Debts       []debtDetail `json:"debts,omitempty"`
}

type debtDetail struct {
	DebtorID string       `json:"debtorId"`
	Amount   types.Amount `json:"amount"`
}

type createPaymentRequest struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency,omitempty"`
}

type paymentResponse struct {
	ID         string `json:"id"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	CreatedAt  string `json:"createdAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ──────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetDebts returns the aggregated net balances for one user.
// Zero-amount entries appear only when they carry incomplete receipts.
func (h *Handler) handleGetDebts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	summary, err := h.engine.AggregateDebts(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	resp := debtsResponse{
		IngoingDebts:  make([]debtEntry, 0, len(summary.IngoingDebts)),
		OutgoingDebts: make([]debtEntry, 0, len(summary.OutgoingDebts)),
	}
	for _, d := range summary.IngoingDebts {
		if d.Amount.IsZero() && !d.Incomplete() {
			continue
		}
		resp.IngoingDebts = append(resp.IngoingDebts, debtEntry{
			UserID:       d.FromUserID,
			Amount:       d.Amount.Amount,
			IsIncomplete: d.Incomplete(),
		})
	}
	for _, d := range summary.OutgoingDebts {
		if d.Amount.IsZero() && !d.Incomplete() {
			continue
		}
		resp.OutgoingDebts = append(resp.OutgoingDebts, debtEntry{
			UserID:       d.ToUserID,
			Amount:       d.Amount.Amount,
			IsIncomplete: d.Incomplete(),
		})
	}
	for _, rid := range summary.IncompleteReceiptIDs {
		resp.IncompleteReceiptIDs = append(resp.IncompleteReceiptIDs, rid.String())
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSaveReceipt(w http.ResponseWriter, r *http.Request) {
	var req saveReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	in := squadledger.SaveReceiptInput{
		EditorID:    req.EditorID,
		PayerID:     req.PayerID,
		Amount:      types.Money{Amount: req.Amount, Currency: h.currencyOr(req.Currency)},
		Description: req.Description,
		PhotoID:     req.PhotoID,
	}
	if req.ID != "" {
		rid, err := id.ParseReceiptID(req.ID)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, errors.New("invalid receipt id"))
			return
		}
		in.ID = rid
	}
	for _, s := range req.Debts {
		in.Splits = append(in.Splits, receipt.Split{DebtorID: s.DebtorID, Amount: s.Amount})
	}

	saved, err := h.engine.SaveReceipt(r.Context(), in)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	h.writeJSON(w, status, toReceiptResponse(saved, nil))
}

func (h *Handler) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	receipts, err := h.engine.ListReceipts(r.Context(), userID, receipt.ListOpts{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	resp := make([]receiptResponse, len(receipts))
	for i, rec := range receipts {
		resp[i] = toReceiptResponse(rec, nil)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rid, err := id.ParseReceiptID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid receipt id"))
		return
	}

	rec, debts, err := h.engine.GetReceipt(r.Context(), rid)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toReceiptResponse(rec, debts))
}

func (h *Handler) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	rid, err := id.ParseReceiptID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid receipt id"))
		return
	}
	editorID := r.URL.Query().Get("editor_id")
	if editorID == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("editor_id is required"))
		return
	}

	if err := h.engine.DeleteReceipt(r.Context(), rid, editorID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	p, err := h.engine.CreatePayment(r.Context(), req.FromUserID, req.ToUserID,
		types.Money{Amount: req.Amount, Currency: h.currencyOr(req.Currency)})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	payments, err := h.engine.ListPayments(r.Context(), userID, payment.ListOpts{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	pid, err := id.ParsePaymentID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid payment id"))
		return
	}

	p, err := h.engine.GetPayment(r.Context(), pid)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	pid, err := id.ParsePaymentID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid payment id"))
		return
	}
	editorID := r.URL.Query().Get("editor_id")
	if editorID == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("editor_id is required"))
		return
	}

	if err := h.engine.DeletePayment(r.Context(), pid, editorID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func toReceiptResponse(r *receipt.Receipt, debts []*receipt.Debt) receiptResponse {
	resp := receiptResponse{
		ID:          r.ID.String(),
		PayerID:     r.PayerID,
		Amount:      r.Amount.Amount,
		Currency:    r.Amount.Currency,
		Description: r.Description,
		PhotoID:     r.PhotoID,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, d := range debts {
		resp.Debts = append(resp.Debts, debtDetail{DebtorID: d.DebtorID, Amount: d.Amount})
	}
	return resp
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID.String(),
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount.Amount,
		Currency:   p.Amount.Currency,
		CreatedAt:  p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// currencyOr falls back to the ledger currency when the request omits one.
func (h *Handler) currencyOr(currency string) string {
	if currency == "" {
		return h.engine.Currency()
	}
	return currency
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("httpapi: failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID := uuid.New().String()
	h.logger.Warn("httpapi: request failed",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeEngineError maps engine errors to HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case squadledger.IsNotFound(err):
		h.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, squadledger.ErrNotAParticipant):
		h.writeError(w, r, http.StatusForbidden, err)
	case squadledger.IsValidation(err):
		h.writeError(w, r, http.StatusBadRequest, err)
	default:
		h.writeError(w, r, http.StatusInternalServerError, err)
	}
}

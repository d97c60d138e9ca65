package payouthandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/koyif/payouts/internal/domain"
	"github.com/koyif/payouts/internal/service"
	"github.com/koyif/payouts/pkg/dto"
	"github.com/koyif/payouts/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type PayoutService interface {
	Create(ctx context.Context, params service.CreatePayoutParams) (*domain.Payout, error)
	Payout(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	Payouts(ctx context.Context, page, pageSize int) ([]domain.Payout, int64, error)
	Update(ctx context.Context, id uuid.UUID, status *domain.Status, description *string) (*domain.Payout, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PayoutHandler struct {
	srv PayoutService
}

func New(srv PayoutService) *PayoutHandler {
	return &PayoutHandler{
		srv: srv,
	}
}

func (h *PayoutHandler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	var req dto.PayoutCreateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding a create payout request", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer closeBody(r.Body)

	if err := req.IsValid(); err != nil {
		logger.Log.Warn("invalid payout fields", logger.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	details, err := json.Marshal(req.RecipientDetails)
	if err != nil {
		logger.Log.Error("error while encoding recipient details", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	payout, err := h.srv.Create(r.Context(), service.CreatePayoutParams{
		Amount:           req.Amount,
		Currency:         domain.Currency(req.Currency),
		RecipientDetails: details,
		Description:      req.Description,
	})
	if err != nil {
		logger.Log.Error("error while creating payout", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewPayoutResponse(payout))
}

func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	payouts, count, err := h.srv.Payouts(r.Context(), page, pageSize)
	if err != nil {
		logger.Log.Error("error while fetching payouts", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]dto.PayoutResponse, len(payouts))
	for i := range payouts {
		items[i] = dto.NewPayoutResponse(&payouts[i])
	}

	writeJSON(w, http.StatusOK, dto.PayoutListResponse{Items: items, Count: count})
}

func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := payoutID(w, r)
	if !ok {
		return
	}

	payout, err := h.srv.Payout(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPayoutNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		logger.Log.Error("error while fetching payout", logger.String("payout_id", id.String()), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPayoutResponse(payout))
}

func (h *PayoutHandler) UpdatePayout(w http.ResponseWriter, r *http.Request) {
	id, ok := payoutID(w, r)
	if !ok {
		return
	}

	var req dto.PayoutUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding an update payout request", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer closeBody(r.Body)

	if err := req.IsValid(); err != nil {
		logger.Log.Warn("invalid payout update fields", logger.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var status *domain.Status
	if req.Status != nil {
		s := domain.Status(*req.Status)
		status = &s
	}

	payout, err := h.srv.Update(r.Context(), id, status, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPayoutNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidTransition):
			logger.Log.Warn("rejected payout status update", logger.String("payout_id", id.String()))
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Log.Error("error while updating payout", logger.String("payout_id", id.String()), logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPayoutResponse(payout))
}

func (h *PayoutHandler) DeletePayout(w http.ResponseWriter, r *http.Request) {
	id, ok := payoutID(w, r)
	if !ok {
		return
	}

	if err := h.srv.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPayoutNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		logger.Log.Error("error while deleting payout", logger.String("payout_id", id.String()), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func payoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "payoutID")

	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Log.Warn("invalid payout ID", logger.String("payout_id", raw), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("error while encoding response to JSON", logger.Error(err))
	}
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger.Log.Error("error while closing request body", logger.Error(err))
	}
}

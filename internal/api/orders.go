package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/cache"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/order"
	"github.com/warimas/backoffice/internal/utils"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength  = 255
)

// Idempotency is the key store behind POST /orders.
type Idempotency interface {
	Begin(ctx context.Context, teamID int64, key string) (int64, bool, error)
	Complete(ctx context.Context, teamID int64, key string, orderID int64) error
	Release(ctx context.Context, teamID int64, key string) error
}

type OrdersHandler struct {
	Service     order.Service
	// Idempotency is optional; without it the header is ignored.
	Idempotency Idempotency
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.update)
	r.Delete("/orders/{id}", h.delete)
	r.Get("/order-statuses", h.statuses)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}

	filter, err := parseOrderFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.Service.ListOrders(r.Context(), team, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func parseOrderFilter(r *http.Request) (order.ListFilter, error) {
	q, err := parseListQuery(r)
	if err != nil {
		return order.ListFilter{}, err
	}
	filter := order.ListFilter{Search: q.Search, Page: q.Page, Limit: q.Limit}

	values := r.URL.Query()
	if filter.StatusID, err = optionalID(values.Get("status_id"), "status_id"); err != nil {
		return filter, err
	}
	if filter.From, err = optionalTime(values.Get("from"), "from"); err != nil {
		return filter, err
	}
	if filter.To, err = optionalTime(values.Get("to"), "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "handler"),
		zap.String("method", "CreateOrder"),
	)

	var in order.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		utils.WriteError(w, http.StatusUnprocessableEntity, "invalid_input", "Idempotency-Key is too long")
		return
	}

	owner := false
	if key != "" && h.Idempotency != nil {
		existingID, claimed, err := h.Idempotency.Begin(r.Context(), team, key)
		switch {
		case errors.Is(err, cache.ErrInProgress):
			utils.WriteError(w, http.StatusConflict, "idempotency_in_progress", err.Error())
			return
		case err != nil:
			// Redis is an optimisation; the order still gets created.
			log.Warn("idempotency store unavailable", zap.Error(err))
		case !claimed:
			h.replay(w, r, team, existingID)
			return
		default:
			owner = true
		}
	}

	o, err := h.Service.CreateOrder(r.Context(), team, in)
	if err != nil {
		if owner {
			if relErr := h.Idempotency.Release(r.Context(), team, key); relErr != nil {
				log.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		writeServiceError(w, r, err)
		return
	}

	if owner {
		if err := h.Idempotency.Complete(r.Context(), team, key, o.ID); err != nil {
			log.Warn("failed to store idempotency key", zap.Int64("order_id", o.ID), zap.Error(err))
		}
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) replay(w http.ResponseWriter, r *http.Request, team, orderID int64) {
	o, err := h.Service.GetOrder(r.Context(), team, orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	o, err := h.Service.GetOrder(r.Context(), team, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in order.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	o, err := h.Service.UpdateOrder(r.Context(), team, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.Service.DeleteOrder(r.Context(), team, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.Statuses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"items": statuses})
}

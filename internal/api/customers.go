package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/utils"
)

type CustomersHandler struct {
	Service customer.Service
}

func (h *CustomersHandler) Register(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{id}", h.get)
	r.Put("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
}

func (h *CustomersHandler) list(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.Service.List(r.Context(), team, customer.ListFilter{Search: q.Search, Page: q.Page, Limit: q.Limit})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *CustomersHandler) create(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	var in customer.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.Service.Create(r.Context(), team, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *CustomersHandler) get(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), team, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) update(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in customer.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.Service.Update(r.Context(), team, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) delete(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), team, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warimas/backoffice/internal/product"
	"github.com/warimas/backoffice/internal/utils"
)

type ProductsHandler struct {
	Service product.Service
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Post("/products/{id}/stock", h.adjustStock)
	r.Delete("/products/{id}", h.delete)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	categoryID, err := optionalID(r.URL.Query().Get("category_id"), "category_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.Service.List(r.Context(), team, product.ListFilter{
		Search:     q.Search,
		CategoryID: categoryID,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.Service.Create(r.Context(), team, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), team, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.Service.Update(r.Context(), team, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var adj product.StockAdjustment
	if !decodeJSON(w, r, &adj) {
		return
	}

	p, err := h.Service.AdjustStock(r.Context(), team, id, adj)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
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

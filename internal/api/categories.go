package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warimas/backoffice/internal/category"
	"github.com/warimas/backoffice/internal/utils"
)

type CategoriesHandler struct {
	Service category.Service
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoriesHandler) Register(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.create)
	r.Put("/categories/{id}", h.rename)
	r.Delete("/categories/{id}", h.delete)
}

func (h *CategoriesHandler) list(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.Service.List(r.Context(), team, category.ListFilter{Search: q.Search, Page: q.Page, Limit: q.Limit})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *CategoriesHandler) create(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Service.Create(r.Context(), team, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *CategoriesHandler) rename(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Service.Rename(r.Context(), team, id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *CategoriesHandler) delete(w http.ResponseWriter, r *http.Request) {
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

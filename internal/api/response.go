package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/order"
	"github.com/warimas/backoffice/internal/utils"
)

const maxBodyBytes = 1 << 20

type stockDetails struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// writeServiceError maps an error kind to its HTTP status. Unclassified
// errors are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		utils.WriteError(w, http.StatusNotFound, string(apperr.KindNotFound), err.Error())
	case apperr.KindInvalidInput:
		utils.WriteError(w, http.StatusUnprocessableEntity, string(apperr.KindInvalidInput), err.Error())
	case apperr.KindConflictOrderNumber:
		utils.WriteError(w, http.StatusConflict, string(apperr.KindConflictOrderNumber), err.Error())
	case apperr.KindInsufficientStock:
		body := utils.ErrorBody{Code: string(apperr.KindInsufficientStock), Message: err.Error()}
		if se, ok := order.AsStockError(err); ok {
			body.Details = stockDetails{ProductID: se.ProductID, Requested: se.Requested, Available: se.Available}
		}
		utils.WriteJSON(w, http.StatusConflict, map[string]utils.ErrorBody{"error": body})
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "invalid json"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		utils.WriteError(w, http.StatusBadRequest, "invalid_json", msg)
		return false
	}
	return true
}

// teamID reads the team the auth middleware stored on the request.
func teamID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := utils.GetTeamIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "no team on request")
	}
	return id, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := utils.ParseID(chi.URLParam(r, "id"))
	if !ok {
		utils.WriteError(w, http.StatusUnprocessableEntity, string(apperr.KindInvalidInput), "id must be a positive integer")
	}
	return id, ok
}

// listQuery holds the query parameters every list endpoint accepts.
type listQuery struct {
	Search string
	Page   int32
	Limit  int32
}

func parseListQuery(r *http.Request) (listQuery, error) {
	q := r.URL.Query()
	out := listQuery{Search: q.Get("q")}

	page, err := optionalInt32(q.Get("page"))
	if err != nil {
		return out, apperr.Invalid("page must be a number")
	}
	limit, err := optionalInt32(q.Get("limit"))
	if err != nil {
		return out, apperr.Invalid("limit must be a number")
	}
	out.Page, out.Limit = page, limit
	return out, nil
}

func optionalInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

func optionalID(s, name string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, ok := utils.ParseID(s)
	if !ok {
		return nil, apperr.Invalid(fmt.Sprintf("%s must be a positive integer", name))
	}
	return &id, nil
}

// optionalTime accepts RFC 3339 or a plain date.
func optionalTime(s, name string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Invalid(fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", name))
}

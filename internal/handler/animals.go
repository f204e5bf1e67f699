// Package handler exposes the shelter repository over HTTP. This is the
// demo calling application's surface; the repository core itself defines
// no wire protocol.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shelterdb/internal/middleware"
	"shelterdb/internal/model"
	"shelterdb/internal/repository"
)

// Pinger is the slice of the database handle the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AnimalHandler serves the animal CRUD endpoints.
type AnimalHandler struct {
	repo *repository.Shelter
	log  *slog.Logger
}

// NewAnimalHandler creates an AnimalHandler.
func NewAnimalHandler(repo *repository.Shelter, log *slog.Logger) *AnimalHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnimalHandler{repo: repo, log: log}
}

// NewRouter assembles the demo server's routes and middleware.
func NewRouter(repo *repository.Shelter, db Pinger, log *slog.Logger) http.Handler {
	h := NewAnimalHandler(repo, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/animals", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
	r.Get("/stats", h.Stats)

	return r
}

// Create handles POST /animals. The record is the request body; the
// optional X-Actor header attributes the audit entry.
func (h *AnimalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var data model.Record
	if err := DecodeJSON(r, &data); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	res, err := h.repo.Create(r.Context(), data, r.Header.Get("X-Actor"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, res)
}

// List handles GET /animals. Query parameters become top-level equality
// filters, except the reserved keys limit, sort and order. A repeated
// parameter filters on its first value only; later values are ignored.
func (h *AnimalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.Filter{}
	opts := repository.ReadOptions{}

	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch key {
		case "limit":
			limit, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
				return
			}
			opts.Limit = limit
		case "sort":
			opts.SortField = value
		case "order":
			opts.SortDescending = value == "desc"
		default:
			filter[key] = value
		}
	}

	records, err := h.repo.Read(r.Context(), filter, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, records)
}

type updateRequest struct {
	Filter model.Filter `json:"filter"`
	Set    model.Record `json:"set"`
	Upsert bool         `json:"upsert"`
}

// Update handles PATCH /animals: a partial field merge applied to every
// record matching the filter.
func (h *AnimalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	res, err := h.repo.Update(r.Context(), req.Filter, req.Set, repository.UpdateOptions{
		Upsert: req.Upsert,
		Actor:  r.Header.Get("X-Actor"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type deleteRequest struct {
	Filter model.Filter `json:"filter"`

	// DeleteAll must be set explicitly to authorize an empty filter.
	DeleteAll bool `json:"delete_all"`
}

// Delete handles DELETE /animals.
func (h *AnimalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	res, err := h.repo.Delete(r.Context(), req.Filter, repository.DeleteOptions{
		DeleteAll: req.DeleteAll,
		Actor:     r.Header.Get("X-Actor"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Stats handles GET /stats.
func (h *AnimalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Package api exposes the ledger over HTTP. Paths and payload shapes are
// fixed by existing clients; see internal/models for the wire format.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"mealledger/internal/storage"
)

// Debug header attached to 400 responses so the browser console can tell
// rejection causes apart without a response body.
const dbgHeader = "x-mealledger-bad-request"

const (
	dbgInvalidParameter = "2"
	dbgNoSuchUser       = "4"
)

// Handler serves the ledger API on top of a storage backend.
type Handler struct {
	store storage.Store
}

// New creates a Handler backed by the given store.
func New(store storage.Store) *Handler {
	return &Handler{store: store}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/get-data", h.getData)
	mux.HandleFunc("POST /api/edit_meal/{payer}/{payee}/{count}", h.editMeal)
	mux.HandleFunc("GET /api/whoami/{id}", h.whoami)
	mux.HandleFunc("POST /api/echo", h.echo)
	mux.HandleFunc("GET /api/summary", h.summary)
	mux.HandleFunc("GET /api/records", h.records)
	mux.HandleFunc("POST /api/user", h.createUser)
}

// defaultRecordLimit bounds /api/records responses when no limit is given.
const defaultRecordLimit = 50

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	limit := uint(defaultRecordLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			w.Header().Set(dbgHeader, dbgInvalidParameter)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit = uint(parsed)
	}

	records, err := h.store.GetRecords(r.Context(), limit)
	if err != nil {
		slog.Error("records failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("records encode failed", "error", err)
	}
}

func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	led, err := h.store.Ledger(r.Context())
	if err != nil {
		slog.Error("get-data failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(led); err != nil {
		slog.Error("get-data encode failed", "error", err)
	}
}

func (h *Handler) editMeal(w http.ResponseWriter, r *http.Request) {
	payer := r.PathValue("payer")
	payee := r.PathValue("payee")

	count, err := strconv.Atoi(r.PathValue("count"))
	if err != nil {
		w.Header().Set(dbgHeader, dbgInvalidParameter)
		w.WriteHeader(http.StatusBadRequest)
		slog.Warn("edit_meal rejected", "count", r.PathValue("count"), "error", err)
		return
	}

	// A negative adjustment is a payment in the other direction.
	if count < 0 {
		payer, payee = payee, payer
		count = -count
	}

	if err := h.store.CreateRecord(r.Context(), payer, payee, uint(count)); err != nil {
		if errors.Is(err, storage.ErrNoUser) {
			w.Header().Set(dbgHeader, dbgNoSuchUser)
			w.WriteHeader(http.StatusBadRequest)
			slog.Warn("edit_meal rejected", "payer", payer, "payee", payee, "error", err)
			return
		}
		slog.Error("edit_meal failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) whoami(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		w.Header().Set(dbgHeader, dbgInvalidParameter)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrNoUser) {
			w.Header().Set(dbgHeader, dbgNoSuchUser)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		slog.Error("whoami failed", "id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	io.WriteString(w, user.UPN)
}

func (h *Handler) echo(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write(b)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		slog.Error("summary failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("summary encode failed", "error", err)
	}
}

type createUserRequest struct {
	User string `json:"User"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		w.Header().Set(dbgHeader, dbgInvalidParameter)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.store.CreateUser(r.Context(), req.User); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		slog.Error("create user failed", "user", req.User, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	slog.Info("user created", "user", req.User)
	w.WriteHeader(http.StatusOK)
}

// Package server exposes the HTTP surface of the service. It decodes
// request bodies, dispatches to the pipeline, store and export job, and
// translates the error taxonomy into status codes and JSON payloads.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/nicofic01/chatbot-backend/internal/export"
	"github.com/nicofic01/chatbot-backend/internal/fault"
	"github.com/nicofic01/chatbot-backend/internal/logger"
	"github.com/nicofic01/chatbot-backend/internal/pipeline"
	"github.com/nicofic01/chatbot-backend/internal/store"
)

// ChatHandler runs one chat request through the pipeline.
type ChatHandler interface {
	Handle(ctx context.Context, req pipeline.ChatRequest) (string, error)
}

// ConversationStore is the subset of the store used by the read and delete
// endpoints.
type ConversationStore interface {
	List(ctx context.Context) ([]store.ConversationRecord, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Exporter streams the CSV export.
type Exporter interface {
	WriteTo(ctx context.Context, w io.Writer) error
}

// Server holds the collaborators the handlers dispatch to. All are injected
// at construction; there is no mutable process-wide state.
type Server struct {
	chat     ChatHandler
	store    ConversationStore
	exporter Exporter
}

// New creates a server. All collaborators are required.
func New(chat ChatHandler, st ConversationStore, exporter Exporter) *Server {
	return &Server{chat: chat, store: st, exporter: exporter}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /conversations", s.handleList)
	mux.HandleFunc("DELETE /conversations/{id}", s.handleDelete)
	mux.HandleFunc("GET /download-csv", s.handleDownloadCSV)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	reply, err := s.chat.Handle(r.Context(), req)
	if err != nil {
		var validationErr *fault.ValidationError
		if errors.As(err, &validationErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": validationErr.Reason})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		logger.L.Error("list conversations failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid conversation id"})
		return
	}

	if err := s.store.DeleteByID(r.Context(), id); err != nil {
		logger.L.Error("delete conversation failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to delete conversation"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "conversation deleted"})
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	// Headers may still be replaced until the first byte of the body is
	// written; the export lists the snapshot before writing anything, so
	// an empty store still produces a clean 404.
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)

	if err := s.exporter.WriteTo(r.Context(), w); err != nil {
		var notFound *fault.NotFoundError
		if errors.As(err, &notFound) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Del("Content-Disposition")
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "no conversations found"})
			return
		}
		logger.L.Error("csv export failed", "error", err)
		// The transfer may have started; the status line cannot change
		// once body bytes are out. Best effort for early failures.
		w.Header().Set("Content-Type", "application/json")
		w.Header().Del("Content-Disposition")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to generate CSV"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("write response failed", "error", err)
	}
}

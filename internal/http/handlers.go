package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ledger/internal/ledger"
	"ledger/internal/log"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.tools.List()})
}

// handleCallTool runs a tool from a plain JSON object body and writes
// the operation result as-is.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeEnvelope(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	args, err := DecodeArguments(body)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, fmt.Sprintf("Invalid arguments: %v", err))
		return
	}

	resp, err := s.tools.Call(ctx, name, args)
	var argErr *ArgumentError
	switch {
	case errors.Is(err, ErrUnknownTool):
		writeEnvelope(w, http.StatusNotFound, fmt.Sprintf("Unknown tool: %s", name))
		return
	case errors.As(err, &argErr):
		log.FromContext(ctx).WarnContext(ctx, "Rejected tool arguments",
			log.FieldTool, name,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err)
		writeEnvelope(w, http.StatusBadRequest, fmt.Sprintf("Invalid arguments: %v", err))
		return
	case err != nil:
		writeEnvelope(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, s.svc.Categories().JSON())
}

// handleMCPStream answers the optional SSE and session-termination
// requests of the streamable HTTP transport; neither is offered.
func handleMCPStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.svc.Ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ledger.Envelope{Status: ledger.StatusError, Message: message})
}

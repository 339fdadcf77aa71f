package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"

	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
)

type Server struct {
	http.Server
	svc    *ledger.Service
	tools  *Toolbox
	mcp    *server.StreamableHTTPServer
	tracer *trace.Middleware
	logger *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *ledger.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		svc:    svc,
		tools:  NewToolbox(svc),
		tracer: trace.NewMiddleware(logger),
		logger: logger.WithComponent(log.ComponentMCP),
	}
	s.mcp = server.NewStreamableHTTPServer(
		newMCPServer(s.tools, svc, s.logger),
		server.WithStateLess(true),
	)

	r := mux.NewRouter()
	r.Use(s.tracer.Middleware)

	r.Handle("/mcp", http.MaxBytesHandler(s.mcp, maxRequestBody)).Methods(http.MethodPost)
	r.HandleFunc("/mcp", handleMCPStream).Methods(http.MethodGet, http.MethodDelete)
	r.HandleFunc("/tools", s.handleListTools).Methods(http.MethodGet)
	r.HandleFunc("/tools/{name}", s.handleCallTool).Methods(http.MethodPost)
	r.HandleFunc("/resources/categories", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Metrics exposes the request counters of the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

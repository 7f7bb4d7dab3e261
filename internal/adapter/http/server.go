package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/couchcryptid/cloudlogs-streamer/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxPayloadBytes caps one pushed payload.
const maxPayloadBytes = 8 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Processor runs one pushed payload through the pipeline.
type Processor interface {
	Process(ctx context.Context, raw domain.RawEvent) (pipeline.Outcome, error)
}

// Server exposes health, readiness, metrics and payload ingestion endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics
// routes. When processor is non-nil it also accepts POST /ingest.
func NewServer(addr string, ready ReadinessChecker, processor Processor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if processor != nil {
		mux.HandleFunc("POST /ingest", s.handleIngest(processor))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if checker.Ready() {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
	}
}

type ingestResponse struct {
	BatchID         string `json:"batchId"`
	Status          string `json:"status"`
	Strategy        string `json:"strategy"`
	Records         int    `json:"records"`
	Dropped         int    `json:"dropped"`
	AttemptedItems  int    `json:"attemptedItems"`
	SuccessfulItems int    `json:"successfulItems"`
	FailedItems     int    `json:"failedItems"`
	Error           string `json:"error,omitempty"`
}

func (s *Server) handleIngest(processor Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
			return
		}

		out, err := processor.Process(r.Context(), domain.RawEvent{
			Value:     body,
			Timestamp: time.Now().UTC(),
		})
		resp := ingestResponse{
			BatchID:         out.BatchID,
			Status:          out.Status,
			Strategy:        out.Strategy.String(),
			Records:         out.Records,
			Dropped:         out.Dropped,
			AttemptedItems:  out.Result.AttemptedItems,
			SuccessfulItems: out.Result.SuccessfulItems,
			FailedItems:     out.Result.FailedItems,
		}

		switch {
		case errors.Is(err, domain.ErrMalformedPayload):
			resp.Error = err.Error()
			writeJSON(w, http.StatusBadRequest, resp)
		case err != nil:
			s.logger.Error("ingest failed", "error", err, "batch_id", out.BatchID)
			resp.Error = err.Error()
			writeJSON(w, http.StatusBadGateway, resp)
		default:
			writeJSON(w, http.StatusOK, resp)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

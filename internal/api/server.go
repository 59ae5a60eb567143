// Package api serves the channel query pipeline over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/internal/query"
	"github.com/brewgator/lightning-channel-assistant/pkg/db"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	defaultHistoryDays  = 30
	maxQueryBytes       = 4096
)

// Querier answers channel questions
type Querier interface {
	Run(ctx context.Context, text string) query.Response
	RunIntent(ctx context.Context, t intent.Type, text string) query.Response
}

// HistoryStore reads recorded queries
type HistoryStore interface {
	GetRecentQueryRecords(limit int) ([]db.QueryRecord, error)
	GetQueryRecord(requestID string) (*db.QueryRecord, error)
	GetIntentCounts(from, to time.Time) ([]db.IntentCount, error)
}

// Pinger checks that the node is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	q       Querier
	history HistoryStore
	node    Pinger
	router  *mux.Router
	logger  *slog.Logger
	now     func() time.Time
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables the history endpoints
func WithHistory(h HistoryStore) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithPinger reports node reachability from the health endpoint
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.node = p
	}
}

// WithLogger sets the logger
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// NewServer creates the API server and registers its routes
func NewServer(q Querier, opts ...Option) *Server {
	s := &Server{
		q:      q,
		router: mux.NewRouter(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in CORS handling for allowedOrigins
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string, allowedOrigins []string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "api server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/query", s.handleQuery).Methods("POST")
	api.HandleFunc("/channels/{intent}", s.handleIntent).Methods("GET")

	api.HandleFunc("/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/history/intents", s.handleIntentCounts).Methods("GET")
	api.HandleFunc("/history/{id}", s.handleHistoryRecord).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request body must be JSON like {\"query\": \"...\"}")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "Query must not be empty")
		return
	}

	s.writeQueryResponse(w, s.q.Run(r.Context(), req.Query))
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["intent"]
	t, err := intent.Parse(name)
	if err != nil || t == intent.Unknown {
		s.writeError(w, http.StatusNotFound, "Unknown intent "+strconv.Quote(name))
		return
	}

	text := r.URL.Query().Get("q")
	if text == "" {
		text = name
	}
	s.writeQueryResponse(w, s.q.RunIntent(r.Context(), t, text))
}

// writeQueryResponse maps a failed query to 502 since the node is the only
// failing dependency.
func (s *Server) writeQueryResponse(w http.ResponseWriter, resp query.Response) {
	if resp.Failed() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		if err := json.NewEncoder(w).Encode(APIResponse{
			Success: false,
			Data:    resp,
			Error:   resp.Error.Message,
		}); err != nil {
			s.logger.Error("failed to encode query response", "error", err)
		}
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "Query history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = min(l, maxHistoryLimit)
		}
	}

	records, err := s.history.GetRecentQueryRecords(limit)
	if err != nil {
		s.logger.Error("handleHistory: failed to get query records", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get query history")
		return
	}
	if records == nil {
		records = []db.QueryRecord{}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: records})
}

func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "Query history is disabled")
		return
	}

	record, err := s.history.GetQueryRecord(mux.Vars(r)["id"])
	if err != nil {
		s.logger.Error("handleHistoryRecord: failed to get query record", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get query record")
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "No query with that ID")
		return
	}

	s.writeJSON(w, APIResponse{Success: true, Data: record})
}

func (s *Server) handleIntentCounts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "Query history is disabled")
		return
	}

	days := defaultHistoryDays
	if v := r.URL.Query().Get("days"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			days = d
		}
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)

	counts, err := s.history.GetIntentCounts(from, to)
	if err != nil {
		s.logger.Error("handleIntentCounts: failed to get intent counts", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get intent counts")
		return
	}
	if counts == nil {
		counts = []db.IntentCount{}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: counts})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now(),
	}

	if s.node != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.node.Ping(ctx); err != nil {
			s.logger.Warn("node ping failed", "error", err)
			data["status"] = "degraded"
			data["node"] = "unreachable"
		} else {
			data["node"] = "reachable"
		}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: data})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	}); err != nil {
		s.logger.Error("failed to encode error response", "status", status, "message", message, "error", err)
	}
}

// Package api exposes the conversation router over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	routerx "github.com/techflow-labs/careflow/agent/agents/router"
	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

type Config struct {
	Addr         string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"120s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" split_words:"true" default:"60s"`
}

// Server wires the chat endpoint, health check and metrics onto a chi
// router.
type Server struct {
	router  *routerx.Router
	mux     *chi.Mux
	metrics *metrics
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	Agent       string `json:"agent"`
	FinalAction string `json:"final_action,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(router *routerx.Router) *Server {
	s := &Server{
		router:  router,
		metrics: newMetrics(),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	mux.Post("/chat", s.handleChat)
	mux.Get("/health", s.handleHealth)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.mux = mux
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until the listener fails or the server is shut
// down by the process.
func (s *Server) ListenAndServe(cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	log.Info().Str("addr", cfg.Addr).Msg("api server listening")
	return srv.ListenAndServe()
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	conv, err := s.router.HandleMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		s.metrics.turnFailures.Inc()
		status, msg := classifyError(err)
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}
	s.observeTurn(conv, time.Since(start))

	writeJSON(w, http.StatusOK, chatResponse{
		Message:     routerx.Reply(conv),
		SessionID:   conv.SessionID,
		Agent:       string(conv.CurrentAgent),
		FinalAction: string(conv.FinalAction),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) observeTurn(conv *statex.Conversation, elapsed time.Duration) {
	s.metrics.turnDuration.Observe(elapsed.Seconds())
	agent := string(conv.CurrentAgent)
	if agent == "" {
		agent = "unknown"
	}
	s.metrics.turnsTotal.WithLabelValues(agent).Inc()
	if conv.CurrentAgent == contractx.AgentTypeProcessor && conv.FinalAction != "" {
		s.metrics.finalOutcomes.WithLabelValues(string(conv.FinalAction)).Inc()
	}
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, routerx.ErrInvalidMessage), errors.Is(err, routerx.ErrInvalidSession):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, statex.ErrInvalidSession):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

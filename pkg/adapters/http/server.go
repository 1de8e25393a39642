package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jas0n325/captone-ui-sub006/internal/dto"
	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/runner"
)

// Engine is the part of the interaction core the HTTP surface drives.
type Engine interface {
	HandleInput(ctx context.Context, raw domain.RawInputEvent) (domain.Outcome, error)
	SetMode(ctx context.Context, mode domain.Mode) error
	SetScrolling(scrolling bool)
	InteractionState() domain.InteractionState
	BusinessContext() domain.BusinessContext
}

// Server serves screen-facing snapshots and accepts inputs and mode changes.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	bridge  *runner.Bridge
	devices func() any
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks were given to the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithBridge accepts push-source payloads on /push/{source}. The runner consuming
// the bridge serializes them with every other input.
func WithBridge(b *runner.Bridge) Option {
	return func(s *Server) {
		s.bridge = b
	}
}

// WithDevices exposes a snapshot of the attached devices on /devices.
func WithDevices(snapshot func() any) Option {
	return func(s *Server) {
		s.devices = snapshot
	}
}

// WithVersion sets the version reported on /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine, version: "unknown"}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/state", server.GetState)
	r.Get("/business", server.GetBusiness)
	r.Post("/input", server.PostInput)
	r.Put("/mode", server.PutMode)
	r.Put("/scrolling", server.PutScrolling)
	r.Get("/events", server.SubscribeEvents)
	if server.bridge != nil {
		r.Post("/push/{source}", server.PostPush)
	}
	if server.devices != nil {
		r.Get("/devices", server.GetDevices)
	}
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth reports 503 once the interaction entered the FatalError mode.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	state := s.Engine.InteractionState()
	if state.Mode == domain.ModeFatalError {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "fatal",
			"error":  dto.NewError(state.LastError),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pos-http",
		"version": s.version,
	})
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, dto.NewState(s.Engine.InteractionState()))
}

func (s *Server) GetBusiness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, dto.NewBusiness(s.Engine.BusinessContext()))
}

func (s *Server) GetDevices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.devices())
}

// PostInput decodes a tagged raw input event and hands it to the engine.
//
// A rejection is still a 200: the outcome says why. A failed submission answers 422
// with the normalized error, or 503 when no domain engine is configured.
func (s *Server) PostInput(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	raw, err := dto.DecodeRawInput(payload)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid input event", err)
		return
	}
	tag := raw.Tag()
	raw, err = runner.SanitizeEvent(raw)
	if err != nil {
		s.logger.Warn("input rejected by sanitizer", "err", err, "tag", tag)
		s.writeError(w, http.StatusBadRequest, "invalid input", err)
		return
	}

	out, err := s.Engine.HandleInput(r.Context(), raw)
	status := http.StatusOK
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case err != nil:
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, dto.NewOutcome(out, err))
}

// PostPush publishes the JSON body on the bridge mailbox named by the path.
// Scanners may push a bare string, payment devices a bare authorization object.
func (s *Server) PostPush(w http.ResponseWriter, r *http.Request) {
	source := runner.Source(chi.URLParam(r, "source"))
	if source == runner.SourceInput {
		http.Error(w, "Use /input for operator input", http.StatusBadRequest)
		return
	}

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if s.bridge.Mailbox(source) == nil {
		http.Error(w, fmt.Sprintf("Unknown source %q", source), http.StatusNotFound)
		return
	}
	if !s.bridge.Publish(source, payload) {
		http.Error(w, "Source is being reconfigured", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// PutMode performs a mode-only transition and answers with the new state.
func (s *Server) PutMode(w http.ResponseWriter, r *http.Request) {
	var body dto.ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := s.Engine.SetMode(r.Context(), body.Mode); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidMode):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrTerminal):
			status = http.StatusConflict
		}
		s.writeError(w, status, "mode change refused", err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewState(s.Engine.InteractionState()))
}

type scrollingRequest struct {
	Scrolling bool `json:"scrolling"`
}

func (s *Server) PutScrolling(w http.ResponseWriter, r *http.Request) {
	var body scrollingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.Engine.SetScrolling(body.Scrolling)
	s.writeJSON(w, http.StatusOK, dto.NewState(s.Engine.InteractionState()))
}

// SubscribeEvents handles GET /events (SSE). The optional watch parameter is a
// comma separated list of topics; without it every topic is streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streaming not supported")
		return
	}

	watch := make(map[string]bool)
	if v := r.URL.Query().Get("watch"); v != "" {
		for _, topic := range strings.Split(v, ",") {
			watch[strings.TrimSpace(topic)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("sse client connected", "watch", topics(watch))

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[msg.Topic] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Topic, msg.Data)
			flusher.Flush()
		}
	}
}

func topics(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	s.writeJSON(w, status, map[string]string{
		"error":  msg,
		"detail": err.Error(),
	})
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// EventsPath is where a remote domain engine accepts canonical events.
const EventsPath = "/v1/events"

// Error kinds carried in an engine error body.
const (
	errorKindQualification = "qualification"
	errorKindBusiness      = "business"
	errorKindUnexpected    = "unexpected"
)

// maxErrorBody bounds how much of an unexpected response is kept in the error.
const maxErrorBody = 4096

// engineError is the wire form of a domain engine failure (HTTP 422).
type engineError struct {
	Kind          string          `json:"kind"`
	Code          string          `json:"code,omitempty"`
	Message       *domain.Message `json:"message,omitempty"`
	CollectedData map[string]any  `json:"collectedData,omitempty"`
	Detail        string          `json:"detail,omitempty"`
}

func encodeEngineError(err error) engineError {
	var qe *domain.QualificationError
	if errors.As(err, &qe) {
		reason := qe.Reason
		return engineError{Kind: errorKindQualification, Message: &reason, CollectedData: qe.CollectedData, Detail: err.Error()}
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		return engineError{Kind: errorKindBusiness, Code: be.Code, Message: be.Message, CollectedData: be.CollectedData, Detail: err.Error()}
	}
	return engineError{Kind: errorKindUnexpected, Detail: err.Error()}
}

func (e engineError) decode() error {
	switch e.Kind {
	case errorKindQualification:
		qe := &domain.QualificationError{CollectedData: e.CollectedData}
		if e.Message != nil {
			qe.Reason = *e.Message
		}
		return qe
	case errorKindBusiness:
		return &domain.BusinessError{Code: e.Code, Message: e.Message, CollectedData: e.CollectedData}
	}
	if e.Detail == "" {
		return errors.New("domain engine failed")
	}
	return errors.New(e.Detail)
}

// Client is a domain engine reached over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.DomainEngine = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout bounds every round trip. It is ignored after WithHTTPClient.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d}
		}
	}
}

// WithClientLogger sets the logger used for unexpected responses.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client for the engine at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle posts the event and decodes the processing result. A 422 answer is decoded
// into *domain.QualificationError or *domain.BusinessError.
func (c *Client) Handle(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.EventType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EventsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("domain engine request: %w", err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	switch resp.StatusCode {
	case http.StatusOK:
		var res domain.ProcessingResult
		if err := dec.Decode(&res); err != nil {
			return nil, fmt.Errorf("decode processing result: %w", err)
		}
		return &res, nil
	case http.StatusUnprocessableEntity:
		var e engineError
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode engine error: %w", err)
		}
		return nil, e.decode()
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.logger.Warn("unexpected domain engine response", "status", resp.StatusCode, "event_type", event.EventType)
	return nil, fmt.Errorf("domain engine answered %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
}

// NewEngineHandler serves engine at EventsPath using the wire format Client speaks.
func NewEngineHandler(engine ports.DomainEngine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Post(EventsPath, func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var event domain.CanonicalEvent
		if err := dec.Decode(&event); err != nil || event.EventType == "" {
			http.Error(w, "Invalid canonical event", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		res, err := engine.Handle(r.Context(), event)
		if err != nil {
			logger.Info("domain engine refused event", "event_type", event.EventType, "err", err)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(encodeEngineError(err))
			return
		}
		if err := json.NewEncoder(w).Encode(res); err != nil {
			logger.Error("processing result encode failed", "err", err)
		}
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return r
}

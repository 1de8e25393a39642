package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/internal/dto"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// JSONHandler speaks JSON lines: one raw input object per input line,
// one report object per output line.
type JSONHandler struct {
	Reader *bufio.Reader
	Writer io.Writer

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		encoder: json.NewEncoder(w),
	}
}

// jsonReport is the wire shape of a Report.
type jsonReport struct {
	Outcome      *dto.Outcome        `json:"outcome,omitempty"`
	Notification *ports.Notification `json:"notification,omitempty"`
	Error        *dto.Error          `json:"error,omitempty"`
	State        dto.State           `json:"state"`
	Business     dto.Business        `json:"business"`
}

// Input reads one line. Blank lines are skipped; a line that fails to decode is
// reported as an error object and skipped.
func (h *JSONHandler) Input(ctx context.Context) (domain.RawInputEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := h.Reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return nil, err
			}
			continue
		}

		ev, decErr := DecodeLine([]byte(text))
		if decErr != nil {
			if encErr := h.encode(map[string]string{"error": decErr.Error()}); encErr != nil {
				return nil, encErr
			}
			if err != nil {
				return nil, err
			}
			continue
		}
		return ev, nil
	}
}

// DecodeLine decodes a JSON raw input object and sanitizes its text payload.
func DecodeLine(data []byte) (domain.RawInputEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	ev, err := dto.DecodeRawInput(payload)
	if err != nil {
		return nil, err
	}
	return SanitizeEvent(ev)
}

// SanitizeEvent applies SanitizeInput to the text payload of text-bearing events.
func SanitizeEvent(ev domain.RawInputEvent) (domain.RawInputEvent, error) {
	switch e := ev.(type) {
	case domain.ScanData:
		clean, err := SanitizeInput(e.Data)
		if err != nil {
			return nil, err
		}
		e.Data = clean
		return e, nil
	case domain.KeyedData:
		clean, err := SanitizeInput(e.Text)
		if err != nil {
			return nil, err
		}
		e.Text = clean
		return e, nil
	case domain.KeyListenerData:
		clean, err := SanitizeInput(e.Text)
		if err != nil {
			return nil, err
		}
		e.Text = clean
		return e, nil
	}
	return ev, nil
}

func (h *JSONHandler) Output(ctx context.Context, report Report) error {
	out := jsonReport{
		Notification: report.Notification,
		State:        dto.NewState(report.State),
		Business:     dto.NewBusiness(report.Business),
	}
	if report.Outcome != nil {
		o := dto.NewOutcome(*report.Outcome, report.Err)
		out.Outcome = &o
	} else {
		out.Error = dto.NewError(report.Err)
	}
	return h.encode(out)
}

func (h *JSONHandler) encode(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(v)
}

package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/internal/runtime"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Text commands recognised by TextHandler. Any other line is keyed data.
const (
	CommandScan    = "scan "
	CommandListen  = "key "
	CommandApprove = "approve"
	CommandDecline = "decline"
	CommandVoid    = "void "
)

// TextHandler implements a line-oriented operator console.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
	writeMu   sync.Mutex
}

type inputResult struct {
	text string
	err  error
}

type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour ctx.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Input reads the next line and converts it into a raw input event.
// Invalid lines are reported to the operator and skipped.
func (h *TextHandler) Input(ctx context.Context) (domain.RawInputEvent, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			h.printf("> ")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return nil, io.EOF
			}
			if res.err != nil {
				return nil, fmt.Errorf("input error: %w", res.err)
			}
			line := strings.TrimSpace(res.text)
			if line == "exit" || line == "quit" {
				return nil, io.EOF
			}
			ev, err := ParseLine(line)
			if err != nil {
				h.printf("Error: %v. Please try again.\n", err)
				continue
			}
			return ev, nil
		}
	}
}

// ParseLine converts a console line into a raw input event:
//
//	scan <data>      ScanData
//	key <text>       KeyListenerData
//	approve|decline  PaymentData
//	void <line>      UiData carrying VoidLineItem
//	<text>           KeyedData
func ParseLine(line string) (domain.RawInputEvent, error) {
	switch {
	case strings.HasPrefix(line, CommandScan):
		data, err := SanitizeInput(strings.TrimPrefix(line, CommandScan))
		if err != nil {
			return nil, err
		}
		return domain.ScanData{Data: data}, nil
	case strings.HasPrefix(line, CommandListen):
		text, err := SanitizeInput(strings.TrimPrefix(line, CommandListen))
		if err != nil {
			return nil, err
		}
		return domain.KeyListenerData{Text: text}, nil
	case line == CommandApprove, line == CommandDecline:
		return domain.PaymentData{AuthorizationResponse: map[string]any{"approved": line == CommandApprove}}, nil
	case strings.HasPrefix(line, CommandVoid):
		n, err := SanitizeInput(strings.TrimPrefix(line, CommandVoid))
		if err != nil {
			return nil, err
		}
		return domain.UiData{
			EventType: domain.EventVoidLineItem,
			Inputs:    []domain.Input{domain.StringInput(domain.KeyLineNumber, n)},
		}, nil
	}

	text, err := SanitizeInput(line)
	if err != nil {
		return nil, err
	}
	return domain.KeyedData{Text: text}, nil
}

func (h *TextHandler) Output(ctx context.Context, report Report) error {
	output := FormatReport(report)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	return h.printf("%s\n", strings.TrimSpace(output))
}

// printf serializes writes from the prompt pump and the runner.
func (h *TextHandler) printf(format string, args ...any) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_, err := fmt.Fprintf(h.Writer, format, args...)
	return err
}

// FormatReport renders a report as markdown.
func FormatReport(report Report) string {
	var b strings.Builder

	switch {
	case report.Notification != nil:
		fmt.Fprintf(&b, "> **%s** %s\n\n", report.Notification.Level, report.Notification.Message)
	case report.Outcome != nil:
		writeOutcome(&b, *report.Outcome, report.Err)
	}

	s := report.State
	mode := string(s.Mode)
	if mode == "" {
		mode = "-"
	}
	fmt.Fprintf(&b, "**%s** · mode `%s` · context `%s`\n\n", s.LogicalState, mode, runtime.Project(s))

	if lines := report.Business.ReceiptLines; len(lines) > 0 {
		b.WriteString("| # | Item | Qty | Amount |\n|---|---|---|---|\n")
		for _, l := range lines {
			desc := l.Description
			if l.Voided {
				desc = "~~" + desc + "~~"
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", l.LineNumber, desc, l.Quantity, l.Amount)
		}
		b.WriteString("\n")
	}

	if results, ok := report.Business.DisplayInfo["results"]; ok {
		fmt.Fprintf(&b, "Results: `%v`\n\n", results)
	}

	if events := s.PermittedEventList(); len(events) > 0 {
		sort.Strings(events)
		fmt.Fprintf(&b, "Permitted: %s\n", strings.Join(events, ", "))
	}
	return b.String()
}

func writeOutcome(b *strings.Builder, o domain.Outcome, err error) {
	switch o.Kind {
	case domain.OutcomeSubmit:
		if err != nil {
			fmt.Fprintf(b, "✗ %s: %s\n\n", o.Event.EventType, domain.UserMessage(err))
			return
		}
		fmt.Fprintf(b, "✓ %s\n\n", o.Event.EventType)
	case domain.OutcomeLocal:
		fmt.Fprintf(b, "→ %s\n\n", o.Action.Kind)
	default:
		if o.Err != nil {
			fmt.Fprintf(b, "✗ rejected (%s): %s\n\n", o.Reason, domain.UserMessage(o.Err))
			return
		}
		fmt.Fprintf(b, "✗ rejected (%s)\n\n", o.Reason)
	}
}

package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/observability"
)

func TestHooks_RecordSubmissions(t *testing.T) {
	m := observability.New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnResult(ctx, &domain.SubmissionEvent{EventType: domain.EventItem, Duration: 20 * time.Millisecond})
	hooks.OnResult(ctx, &domain.SubmissionEvent{EventType: domain.EventItem, Duration: 30 * time.Millisecond})
	hooks.OnFailure(ctx, &domain.SubmissionEvent{EventType: domain.EventItem})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(domain.EventItem, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(domain.EventItem, "error")))
}

func TestHooks_RecordTransitionsAndRejects(t *testing.T) {
	m := observability.New()
	hooks := m.Hooks()
	ctx := context.Background()

	from := domain.NewInteractionState()
	to := from.Clone()
	to.Mode = domain.ModeFatalError
	hooks.OnTransition(ctx, &domain.TransitionEvent{From: from, To: to})
	hooks.OnTransition(ctx, &domain.TransitionEvent{From: to, To: to})
	hooks.OnReject(ctx, &domain.RejectEvent{Context: domain.ContextTendering, Reason: domain.ReasonInputNotAllowed})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues(string(domain.ModeFatalError))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fatal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("Tendering", "input not allowed")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	m := observability.New()
	m.Hooks().OnDeviceStatus(context.Background(), &domain.NotificationEvent{Source: "scanner"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pos_notifications_total{source="scanner"} 1`)
}

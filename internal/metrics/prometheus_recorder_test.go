package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	recorder := NewPrometheusRecorder(nil)

	recorder.IncPhaseCompleted("pomodoro", "focus", CauseNatural)
	recorder.IncPhaseCompleted("pomodoro", "focus", CauseNatural)
	recorder.IncPhaseCompleted("pomodoro", "focus", CauseSkipped)
	recorder.AddFocusMinutes(25)
	recorder.AddFocusMinutes(-3)
	recorder.IncPersistFailure("notes", "synced")

	require.Equal(t, 2.0, testutil.ToFloat64(recorder.phaseCompleted.WithLabelValues("pomodoro", "focus", "natural")))
	require.Equal(t, 1.0, testutil.ToFloat64(recorder.phaseCompleted.WithLabelValues("pomodoro", "focus", "skipped")))
	require.Equal(t, 25.0, testutil.ToFloat64(recorder.focusMinutes))
	require.Equal(t, 1.0, testutil.ToFloat64(recorder.persistFailures.WithLabelValues("notes", "synced")))
}

func TestPrometheusRecorderHandler(t *testing.T) {
	recorder := NewPrometheusRecorder(nil)
	recorder.AddFocusMinutes(5)

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "thetool_focus_minutes_total 5"))
}

func TestNoopRecorder(t *testing.T) {
	var recorder Recorder = NoopRecorder{}
	require.NotPanics(t, func() {
		recorder.IncPhaseCompleted("timer", "", CauseNatural)
		recorder.AddFocusMinutes(1)
		recorder.IncPersistFailure("timer", "local")
	})
}

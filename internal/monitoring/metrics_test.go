package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestTrackOperation(t *testing.T) {
	before := counterValue(t, ticketOperations.WithLabelValues("cancel", OutcomeRejected))
	TrackOperation("cancel", OutcomeRejected)
	TrackOperation("cancel", OutcomeRejected)
	after := counterValue(t, ticketOperations.WithLabelValues("cancel", OutcomeRejected))
	assert.Equal(t, before+2, after)
}

func TestMiddleware_CountsRequests(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/v1/tickets/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	counter := httpRequests.WithLabelValues("/v1/tickets/:id", http.MethodGet, "204")
	before := counterValue(t, counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tickets/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, before+1, counterValue(t, counter))
}

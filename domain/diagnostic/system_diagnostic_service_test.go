package diagnostic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/console/pkg/processing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPools struct{}

func (stubPools) GetPoolMetrics() map[string]processing.PoolMetrics {
	return map[string]processing.PoolMetrics{
		"HIGH": {ProcessedCount: 7, DroppedCount: 1},
	}
}

type stubTopics struct{}

func (stubTopics) GetTopicStats() map[string]processing.TopicInfo {
	return map[string]processing.TopicInfo{
		"/scan": {RosTopic: "/scan", Channel: "scan", StatCount: 3},
	}
}

type stubErrors map[string]string

func (s stubErrors) LastErrors() map[string]string { return s }

type stubAlerts int

func (s stubAlerts) AlertCount() int { return int(s) }

type stubLink struct{ received, failed int64 }

func (s stubLink) Stats() (int64, int64) { return s.received, s.failed }

func TestGetMetrics(t *testing.T) {
	s := NewDiagnosticService(Sources{
		Alerts: stubAlerts(2),
		Link:   stubLink{received: 40, failed: 3},
	})
	s.started = time.Unix(100, 0)
	s.now = func() time.Time { return time.Unix(190, 0) }

	m := s.GetMetrics()
	assert.Equal(t, "1m30s", m.Uptime)
	assert.Equal(t, 2, m.MotionAlerts)
	assert.EqualValues(t, 40, m.GatewayMsgs)
	assert.EqualValues(t, 3, m.GatewayErrors)
	assert.Positive(t, m.Goroutines)
}

func TestGetReportSkipsMissingSources(t *testing.T) {
	s := NewDiagnosticService(Sources{})
	r := s.GetReport()
	assert.Nil(t, r.Pools)
	assert.Nil(t, r.Topics)
	assert.Nil(t, r.Errors)
	assert.Zero(t, r.System.MotionAlerts)
}

func TestGetMetricsHandler(t *testing.T) {
	s := NewDiagnosticService(Sources{})
	s.SetSources(Sources{
		Pools:  stubPools{},
		Topics: stubTopics{},
		Errors: stubErrors{"/image": "decode failed"},
		Alerts: stubAlerts(1),
	})

	app := fiber.New()
	app.Get("/api/diagnostics", s.GetMetricsHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body struct {
		Status  string `json:"status"`
		Metrics Report `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "success", body.Status)
	assert.EqualValues(t, 7, body.Metrics.Pools["HIGH"].ProcessedCount)
	assert.EqualValues(t, 1, body.Metrics.Pools["HIGH"].DroppedCount)
	assert.EqualValues(t, 3, body.Metrics.Topics["/scan"].StatCount)
	assert.Equal(t, "decode failed", body.Metrics.Errors["/image"])
	assert.Equal(t, 1, body.Metrics.System.MotionAlerts)
}

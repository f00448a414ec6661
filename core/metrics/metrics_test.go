package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/metrics"
)

var _ broker.Recorder = (*metrics.Metrics)(nil)

func seriesCount(t *testing.T, m *metrics.Metrics, name string) int {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.TopicCreated("orders")
	m.Published("orders")
	m.Published("orders")
	m.Subscribed("orders")
	m.ConnectionOpened()
	m.FrameReceived("publish")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `wspubsub_broker_published_total{topic="orders"} 2`)
	assert.Contains(t, body, "wspubsub_broker_topics 1")
	assert.Contains(t, body, "wspubsub_broker_subscribers 1")
	assert.Contains(t, body, "wspubsub_gateway_connections 1")
	assert.Contains(t, body, `wspubsub_gateway_frames_total{type="publish"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_TopicDeletedDropsSeries(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.TopicCreated("orders")
	m.Published("orders")
	m.Delivered("orders")
	m.TopicDeleted("orders")

	assert.Equal(t, 0, seriesCount(t, m, "wspubsub_broker_published_total"))
	assert.Equal(t, 0, seriesCount(t, m, "wspubsub_broker_delivered_total"))
}

func TestMetrics_Subscriptions(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.Subscribed("a")
	m.Subscribed("b")
	m.Unsubscribed("a", broker.ReasonCleanup)

	assert.Equal(t, 1, seriesCount(t, m, "wspubsub_broker_unsubscribed_total"))

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.ConnectionRejected("unauthorized")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "wspubsub_broker_subscribers 1")
	assert.Contains(t, body, "wspubsub_gateway_connections 1")
	assert.Contains(t, body, "wspubsub_gateway_connections_total 2")
	assert.Contains(t, body, `wspubsub_gateway_rejected_total{reason="unauthorized"} 1`)
}

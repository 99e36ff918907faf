package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

type fixedLoad struct {
	load SystemLoad
	err  error
}

func (f fixedLoad) Load(context.Context) (SystemLoad, error) { return f.load, f.err }

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func newTestService(load LoadSource) (*Service, *storage.RollingBuffer, *recordingPublisher) {
	buffer := storage.NewRollingBuffer(100)
	pub := &recordingPublisher{}
	svc := NewService(buffer, load, pub, 0)
	svc.nowFn = func() time.Time { return testNow }
	return svc, buffer, pub
}

func add(buffer *storage.RollingBuffer, typ, user string, age time.Duration, props map[string]interface{}) {
	buffer.Append(&v1.AnalyticsEvent{
		ID:         fmt.Sprintf("%s-%s-%s", typ, user, age),
		Type:       typ,
		Category:   "test",
		UserID:     user,
		Timestamp:  testNow.Add(-age),
		Properties: props,
	})
}

func TestGetRealtimeMetrics_WindowBoundary(t *testing.T) {
	svc, buffer, _ := newTestService(fixedLoad{})
	add(buffer, v1.TypePageView, "old", 61*time.Second, nil)
	add(buffer, v1.TypePageView, "edge", 60*time.Second, nil)
	add(buffer, v1.TypePageView, "recent", 59*time.Second, nil)

	m := svc.GetRealtimeMetrics(context.Background())
	require.Equal(t, 2, m.EventsPerMinute)
	require.Equal(t, 2, m.ActiveUsers)
}

func TestGetRealtimeMetrics_Summary(t *testing.T) {
	load := SystemLoad{CPU: 10, Memory: 20, Disk: 30, Network: 40}
	svc, buffer, pub := newTestService(fixedLoad{load: load})

	add(buffer, v1.TypeAPICall, "u1", time.Second, map[string]interface{}{"responseTime": 100.0})
	add(buffer, v1.TypeAPICall, "u1", 2*time.Second, map[string]interface{}{"responseTime": 50})
	add(buffer, v1.TypeAPICall, "u2", 3*time.Second, map[string]interface{}{"responseTime": 33.333})
	add(buffer, v1.TypeError, "u2", 4*time.Second, nil)
	add(buffer, v1.TypePageView, "", 5*time.Second, nil)
	add(buffer, v1.TypePageView, "", 6*time.Second, nil)

	m := svc.GetRealtimeMetrics(context.Background())
	require.Equal(t, 6, m.EventsPerMinute)
	require.Equal(t, 2, m.ActiveUsers)
	require.Equal(t, 16.67, m.ErrorRate)
	require.Equal(t, 61.11, m.AverageResponseTime)
	require.Equal(t, load, m.SystemLoad)
	require.Equal(t, testNow, m.Timestamp)
	require.Equal(t, []aggregation.Ranked{
		{Name: v1.TypeAPICall, Count: 3},
		{Name: v1.TypePageView, Count: 2},
		{Name: v1.TypeError, Count: 1},
	}, m.TopEvents)

	require.Len(t, pub.sent, 1)
	require.Equal(t, notify.KindRealtimeProcessed, pub.sent[0].Kind)
	require.Equal(t, 6, pub.sent[0].Count)
}

func TestGetRealtimeMetrics_EmptyWindow(t *testing.T) {
	svc, buffer, _ := newTestService(fixedLoad{})
	add(buffer, v1.TypeError, "u1", 5*time.Minute, nil)

	m := svc.GetRealtimeMetrics(context.Background())
	require.Zero(t, m.EventsPerMinute)
	require.Zero(t, m.ActiveUsers)
	require.Zero(t, m.ErrorRate)
	require.Zero(t, m.AverageResponseTime)
	require.Empty(t, m.TopEvents)
}

func TestGetRealtimeMetrics_TopFive(t *testing.T) {
	svc, buffer, _ := newTestService(fixedLoad{})
	for i, typ := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for j := 0; j <= i; j++ {
			add(buffer, typ, fmt.Sprintf("u%d", j), time.Duration(j)*time.Second, nil)
		}
	}

	m := svc.GetRealtimeMetrics(context.Background())
	require.Len(t, m.TopEvents, 5)
	require.Equal(t, "g", m.TopEvents[0].Name)
	require.Equal(t, "c", m.TopEvents[4].Name)
}

func TestGetRealtimeMetrics_LoadFailure(t *testing.T) {
	svc, buffer, _ := newTestService(fixedLoad{err: errors.New("no procfs")})
	add(buffer, v1.TypePageView, "u1", time.Second, nil)

	m := svc.GetRealtimeMetrics(context.Background())
	require.Equal(t, 1, m.EventsPerMinute)
	require.Equal(t, SystemLoad{}, m.SystemLoad)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(storage.NewRollingBuffer(10), nil, nil, 0)
	require.Equal(t, DefaultWindow, svc.window)
	require.IsType(t, &SimulatedLoad{}, svc.load)

	require.Panics(t, func() { NewService(nil, nil, nil, 0) })
}

func TestHandleRealtime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, buffer, _ := newTestService(fixedLoad{load: SystemLoad{CPU: 1}})
	add(buffer, v1.TypePageView, "u1", time.Second, nil)

	r := gin.New()
	svc.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/realtime", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"eventsPerMinute":1`)
	require.Contains(t, resp.Body.String(), `"systemLoad":{"cpu":1,"memory":0,"disk":0,"network":0}`)
}

package funnel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/fanzdash/pulse/internal/core/storage/memory"
	storagemocks "github.com/fanzdash/pulse/internal/mocks/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, defsDir string) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	for _, evt := range signupEvents() {
		require.NoError(t, store.SaveEvent(context.Background(), evt))
	}

	repo, err := NewFileSystemDefinitionRepository(defsDir)
	require.NoError(t, err)

	svc := NewService(store, repo, nil)
	svc.nowFn = func() time.Time { return testNow }

	r := gin.New()
	svc.RegisterRoutes(r)
	return r, svc
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleCreate(t *testing.T) {
	r, _ := newTestRouter(t, "")

	resp := post(r, "/v1/funnels", `{"name":"signup","steps":[{"name":"view","eventType":"page_view"},{"name":"pay","eventType":"payment"}]}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var f ConversionFunnel
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &f))
	require.Equal(t, testNow, f.EvaluatedAt)
	require.Len(t, f.Steps, 2)
	require.Equal(t, 10, f.Steps[0].Users)
	require.Equal(t, 2, f.Steps[1].Users)
	require.Equal(t, 20.0, f.Steps[1].ConversionRate)
	require.Equal(t, 80.0, f.Steps[1].DropoffRate)
}

func TestHandleCreate_Errors(t *testing.T) {
	r, _ := newTestRouter(t, "")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest, wantType: httperr.HttpInvalidJsonError},
		{name: "no steps", body: `{"name":"x","steps":[]}`, wantStatus: http.StatusBadRequest, wantType: httperr.HttpInvalidQueryError},
		{name: "no name", body: `{"steps":[{"eventType":"page_view"}]}`, wantStatus: http.StatusBadRequest, wantType: httperr.HttpInvalidQueryError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(r, "/v1/funnels", tc.body)
			require.Equal(t, tc.wantStatus, resp.Code)

			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, tc.wantType, errResp.ErrorType)
		})
	}
}

func TestHandleSavedFunnels(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "signup.yaml", `
name: signup
steps:
  - name: view
    event_type: page_view
  - name: pay
    event_type: payment
`)
	r, _ := newTestRouter(t, dir)

	t.Run("list", func(t *testing.T) {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/funnels", nil))
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Funnels []Definition `json:"funnels"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Funnels, 1)
		require.Equal(t, "signup", body.Funnels[0].Name)
		require.NotEmpty(t, body.Funnels[0].Fingerprint)
	})

	t.Run("evaluate", func(t *testing.T) {
		resp := post(r, "/v1/funnels/signup/evaluate", "")
		require.Equal(t, http.StatusOK, resp.Code)

		var f ConversionFunnel
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &f))
		require.Equal(t, 2, f.Steps[1].Users)
	})

	t.Run("unknown", func(t *testing.T) {
		resp := post(r, "/v1/funnels/missing/evaluate", "")
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestHandleList_NoRepository(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(memory.NewStore(), nil, nil)
	r := gin.New()
	svc.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/funnels", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"funnels":[]}`, resp.Body.String())

	resp = post(r, "/v1/funnels/any/evaluate", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateConversionFunnel_StoreError(t *testing.T) {
	eventStore := storagemocks.NewEventStore(t)
	eventStore.EXPECT().RetrieveAll(mock.Anything).Return(nil, fmt.Errorf("db failure")).Once()

	svc := NewService(eventStore, nil, nil)
	_, err := svc.CreateConversionFunnel(context.Background(), "f", []Step{{EventType: v1.TypePageView}})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidFunnel)
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	require.Panics(t, func() { NewService(nil, nil, nil) })
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/pkg/config"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.GatewayConfig{BaseURL: server.URL}, nil)
	return client, server
}

func TestListRequestsNormalizesStatuses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/requests", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"requests": []map[string]interface{}{
				{"id": "r-1", "type": "RECLAMO", "status": "EN_PROCESO", "category_ref": "alumbrado"},
				{"id": "t-1", "type": "TRAMITE", "status": "INICIADO", "category_ref": "habilitacion"},
				{"id": "r-2", "type": "RECLAMO", "status": "", "category_ref": "baches"},
			},
		})
	})

	requests, err := client.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 3)
	assert.Equal(t, models.StatusEnProceso, requests[0].Status)
	assert.Equal(t, models.TypeTramite, requests[1].Type)
	assert.Equal(t, models.StatusIniciado, requests[1].Status)
	// missing status degrades to the type's initial status
	assert.Equal(t, models.StatusNuevo, requests[2].Status)
}

func TestAcceptSendsCommentAndDecodesResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/requests/r-1/accept", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "derivar a cuadrilla", body["comment"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "r-1", "type": "RECLAMO", "status": "RECIBIDO", "category_ref": "alumbrado",
		})
	})

	updated, err := client.Accept(context.Background(), "r-1", "derivar a cuadrilla", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecibido, updated.Status)
}

func TestGetAvailabilityQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employees/emp-7/availability", r.URL.Path)
		assert.Equal(t, "2026-09-02", r.URL.Query().Get("date"))
		assert.Equal(t, "true", r.URL.Query().Get("search_next"))
		json.NewEncoder(w).Encode(wireAvailability{
			EmployeeID:    "emp-7",
			Date:          "2026-09-03",
			WorkdayEnd:    "18:00",
			NextAvailable: "09:00",
		})
	})

	snapshot, err := client.GetAvailability(context.Background(), "emp-7", "2026-09-02", true)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-03", snapshot.Date)
	assert.NotNil(t, snapshot.OccupiedBlocks)
}

func TestMutateMapsUpstreamErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Start(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUnreachableUpstreamIsGatewayUnavailable(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.ListRequests(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGatewayUnavailable.Code, appErr.Code)
}

func TestGetHistoryNormalizesPerType(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/requests/t-1/history", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"history": []map[string]interface{}{
				{"status": "INICIADO", "actor": "mesa de entradas"},
				{"status": "EN_REVISION"},
			},
		})
	})

	history, err := client.GetHistory(context.Background(), "t-1", models.TypeTramite)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusIniciado, history[0].Status)
	assert.Equal(t, models.StatusEnRevision, history[1].Status)
}

type observerStub struct {
	mu  sync.Mutex
	ops []string
}

func (o *observerStub) ObserveGatewayRequest(operation string, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, operation)
}

func TestClientReportsPerOperationTimings(t *testing.T) {
	observer := &observerStub{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "r-1", "type": "RECLAMO", "status": "RECIBIDO",
		})
	}))
	t.Cleanup(server.Close)
	client := NewClient(config.GatewayConfig{BaseURL: server.URL}, nil, WithObserver(observer))

	_, err := client.Accept(context.Background(), "r-1", "derivar", "")
	require.NoError(t, err)
	_, err = client.Start(context.Background(), "r-1")
	require.NoError(t, err)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []string{"accept", "start"}, observer.ops)
}

func TestClientReportsTimingOfFailedCalls(t *testing.T) {
	observer := &observerStub{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := NewClient(config.GatewayConfig{BaseURL: server.URL}, nil, WithObserver(observer))

	_, err := client.ListRequests(context.Background())
	require.Error(t, err)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []string{"list"}, observer.ops)
}

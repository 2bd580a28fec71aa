package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/gateway"
	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/service"
	"github.com/muni-digital/gestion-api/internal/store"
	"github.com/muni-digital/gestion-api/pkg/config"
	"github.com/muni-digital/gestion-api/pkg/jobs"
)

// upstreamStub answers the municipal API's wire format: it echoes back the
// mutated request with the status the action produced, in UPPER_CASE.
func upstreamStub(t *testing.T) *httptest.Server {
	t.Helper()
	statusByAction := map[string]string{
		"accept":  "RECIBIDO",
		"assign":  "ASIGNADO",
		"start":   "EN_PROCESO",
		"resolve": "RESUELTO",
		"reject":  "RECHAZADO",
		"revert":  "ASIGNADO",
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "requests" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           parts[1],
			"type":         "RECLAMO",
			"status":       statusByAction[parts[2]],
			"category_ref": "alumbrado",
		})
	}))
}

func newRequestRouter(t *testing.T, upstreamURL string, seed ...models.Request) (*gin.Engine, *store.Collection, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	collection := store.NewCollection()
	for _, entity := range seed {
		collection.Replace(entity)
	}
	client := gateway.NewClient(config.GatewayConfig{BaseURL: upstreamURL, Timeout: 2 * time.Second}, nil)
	controller := service.NewMutationController(collection, client, jobs.QueueConfig{Workers: 1}, nil)
	controller.Start(context.Background())
	schedule := service.NewScheduleService(client, config.ScheduleConfig{WorkdayEnd: "18:00", SearchHorizonDays: 5}, nil)
	svc := service.NewRequestService(collection, controller, client, schedule, nil, nil)

	handler := NewRequestHandler(svc)
	router := gin.New()
	router.GET("/requests", handler.List)
	router.GET("/requests/:id", handler.Get)
	router.POST("/requests/:id/accept", handler.Accept)
	router.POST("/requests/:id/assign", handler.Assign)
	router.POST("/requests/:id/reject", handler.Reject)

	return router, collection, controller.Stop
}

func TestRequestHandlerAcceptAppliesOptimistically(t *testing.T) {
	upstream := upstreamStub(t)
	defer upstream.Close()

	router, collection, stop := newRequestRouter(t, upstream.URL, models.Request{
		ID: "r-1", Type: models.TypeReclamo, Status: models.StatusNuevo, CategoryRef: "alumbrado",
	})
	defer stop()

	body := bytes.NewBufferString(`{"comment":"derivar a alumbrado"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/requests/r-1/accept", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var envelope struct {
		Data models.Request `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusRecibido, envelope.Data.Status)

	// confirmation settles on the same status
	require.Eventually(t, func() bool {
		current, ok := collection.Get("r-1")
		return ok && current.Status == models.StatusRecibido
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRequestHandlerAcceptMissingComment(t *testing.T) {
	upstream := upstreamStub(t)
	defer upstream.Close()

	router, collection, stop := newRequestRouter(t, upstream.URL, models.Request{
		ID: "r-1", Type: models.TypeReclamo, Status: models.StatusNuevo,
	})
	defer stop()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/requests/r-1/accept", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	current, _ := collection.Get("r-1")
	assert.Equal(t, models.StatusNuevo, current.Status)
}

func TestRequestHandlerRejectIllegalTransition(t *testing.T) {
	upstream := upstreamStub(t)
	defer upstream.Close()

	router, _, stop := newRequestRouter(t, upstream.URL, models.Request{
		ID: "r-1", Type: models.TypeReclamo, Status: models.StatusAsignado,
	})
	defer stop()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/requests/r-1/reject", bytes.NewBufferString(`{"reason_code":"duplicado"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestHandlerListFiltersByType(t *testing.T) {
	upstream := upstreamStub(t)
	defer upstream.Close()

	router, _, stop := newRequestRouter(t, upstream.URL,
		models.Request{ID: "r-1", Type: models.TypeReclamo, Status: models.StatusNuevo},
		models.Request{ID: "t-1", Type: models.TypeTramite, Status: models.StatusIniciado},
	)
	defer stop()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/requests?type=tramite", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data       []models.Request   `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "t-1", envelope.Data[0].ID)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestRequestHandlerGetUnknown(t *testing.T) {
	upstream := upstreamStub(t)
	defer upstream.Close()

	router, _, stop := newRequestRouter(t, upstream.URL)
	defer stop()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/requests/ghost", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

package scanapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
)

func newTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/scans", h.StartScan).Methods("POST")
	r.HandleFunc("/scans/{jobId}", h.GetJobStatus).Methods("GET")
	r.HandleFunc("/scans/{jobId}/cancel", h.CancelJob).Methods("POST")
	r.HandleFunc("/scans/{jobId}/report", h.GetReport).Methods("GET")
	return r
}

func TestStartScan_ReturnsAcceptedWithJobID(t *testing.T) {
	h := NewHandler(newTestService())
	router := newTestRouter(h)

	body, _ := json.Marshal(map[string]interface{}{
		"ConnectionID": "conn-1",
		"Connection":   connectors.ConnectionConfig{Type: connectors.ConnectorPostgreSQL, Host: "db"},
	})
	req := httptest.NewRequest(http.MethodPost, "/scans", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp["jobId"])
	assert.NoError(t, err)
}

func TestStartScan_RejectsMalformedBody(t *testing.T) {
	h := NewHandler(newTestService())
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/scans", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobStatus_RejectsMalformedJobID(t *testing.T) {
	h := NewHandler(newTestService())
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/scans/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobStatus_ReturnsNotFoundForUnknownJob(t *testing.T) {
	h := NewHandler(newTestService())
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/scans/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

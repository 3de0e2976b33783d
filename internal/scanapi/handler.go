package scanapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
)

/* Handler adapts ScanService to HTTP using mux.Vars for path params,
json.NewDecoder/Encoder for the wire format, and a shared error-writing
helper. */
type Handler struct {
	service ScanService
}

func NewHandler(service ScanService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req StartScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScanError(w, scanerrors.Wrap(scanerrors.InvalidInput, "invalid request body", err))
		return
	}

	jobID, err := h.service.StartScan(r.Context(), req)
	if err != nil {
		writeScanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"jobId": jobID})
}

func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathJobID(r)
	if err != nil {
		writeScanError(w, err)
		return
	}

	view, err := h.service.GetJobStatus(r.Context(), jobID)
	if err != nil {
		writeScanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathJobID(r)
	if err != nil {
		writeScanError(w, err)
		return
	}

	if err := h.service.CancelJob(r.Context(), jobID); err != nil {
		writeScanError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathJobID(r)
	if err != nil {
		writeScanError(w, err)
		return
	}

	report, err := h.service.GetReport(r.Context(), jobID)
	if err != nil {
		writeScanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

/* SubscribeProgress streams ProgressEvents as server-sent events until the
client disconnects or the job reaches a terminal state. */
func (h *Handler) SubscribeProgress(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathJobID(r)
	if err != nil {
		writeScanError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeScanError(w, scanerrors.New(scanerrors.Unexpected, "streaming unsupported"))
		return
	}

	ch, unsubscribe := h.service.SubscribeProgress(r.Context(), jobID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case event, open := <-ch:
			if !open {
				return
			}
			writeEvent(w, event)
			flusher.Flush()
			if event.Status.Terminal() {
				return
			}
		case <-r.Context().Done():
			return
		case <-time.After(30 * time.Second):
			// heartbeat, keeps idle connections from being reaped by proxies
			w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event piimodel.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

func pathJobID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["jobId"])
	if err != nil {
		return uuid.Nil, scanerrors.Wrap(scanerrors.InvalidInput, "invalid jobId", err)
	}
	return id, nil
}

func writeScanError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, repository.ErrNotFound) {
		status = http.StatusNotFound
	}
	var se *scanerrors.ScanError
	if errors.As(err, &se) {
		switch se.Code {
		case scanerrors.InvalidInput:
			if status != http.StatusNotFound {
				status = http.StatusBadRequest
			}
		case scanerrors.IllegalStateTransition:
			status = http.StatusConflict
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritruth/trace/internal/moderation"
	"github.com/agritruth/trace/internal/verification"
)

// VerifyBatch ingests a collection-center verification. The Aadhaar number is
// masked before anything is stored or returned.
func (h *Handler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/verification/verify-batch"))
	defer timer.ObserveDuration()

	var sub verification.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/api/verification/verify-batch")
		return
	}
	batchRef, record, item, err := h.verification.Submit(r.Context(), sub)
	if err != nil {
		if errors.Is(err, verification.ErrMissingFields) {
			h.respondError(w, http.StatusUnprocessableEntity, err.Error(), "POST", "/api/verification/verify-batch")
			return
		}
		h.respondDomainError(w, err, "POST", "/api/verification/verify-batch")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"batchRef":     batchRef,
		"verification": record,
		"queueItem":    item,
	}, "POST", "/api/verification/verify-batch")
}

type enqueueRequest struct {
	BatchID       string `json:"batchId"`
	FarmerAadhaar string `json:"farmerAadhaar,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

func (h *Handler) QueueAdd(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/verifier/queue"))
	defer timer.ObserveDuration()

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/api/verifier/queue")
		return
	}
	if req.BatchID == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "Batch id is required", "POST", "/api/verifier/queue")
		return
	}
	item, err := h.queue.Enqueue(r.Context(), req.BatchID, verification.MaskAadhaar(req.FarmerAadhaar), req.Summary)
	if err != nil {
		h.respondDomainError(w, err, "POST", "/api/verifier/queue")
		return
	}
	h.respondJSON(w, http.StatusCreated, item, "POST", "/api/verifier/queue")
}

func (h *Handler) QueueList(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/api/verifier/queue"))
	defer timer.ObserveDuration()

	status, err := moderation.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "GET", "/api/verifier/queue")
		return
	}
	items, err := h.queue.List(r.Context(), status)
	if err != nil {
		h.respondDomainError(w, err, "GET", "/api/verifier/queue")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"count": len(items), "items": items}, "GET", "/api/verifier/queue")
}

type decideRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func (h *Handler) QueueDecide(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/verifier/queue/{id}/decide"))
	defer timer.ObserveDuration()

	id := mux.Vars(r)["id"]
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/api/verifier/queue/{id}/decide")
		return
	}
	status, err := moderation.ParseStatus(req.Status)
	if err != nil || status == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "Status must be pending, approved or rejected", "POST", "/api/verifier/queue/{id}/decide")
		return
	}
	item, err := h.queue.Decide(r.Context(), id, status, req.Notes)
	if err != nil {
		h.respondDomainError(w, err, "POST", "/api/verifier/queue/{id}/decide")
		return
	}
	h.respondJSON(w, http.StatusOK, item, "POST", "/api/verifier/queue/{id}/decide")
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritruth/trace/internal/custody"
	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
)

type registerBatchRequest struct {
	CropType     string         `json:"cropType"`
	QuantityKg   uint64         `json:"quantityKg"`
	BasePriceINR uint64         `json:"basePriceINR"`
	HarvestDate  int64          `json:"harvestDate"`
	Farmer       domain.Address `json:"farmer,omitempty"`
	MinPriceINR  uint64         `json:"minPriceINR,omitempty"`
	MetadataCID  string         `json:"metadataCID,omitempty"`
}

func (h *Handler) RegisterBatch(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/register-batch"))
	defer timer.ObserveDuration()

	var req registerBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/api/register-batch")
		return
	}

	// Validation
	if req.CropType == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "Crop type is required", "POST", "/api/register-batch")
		return
	}
	if req.QuantityKg == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Quantity must be positive", "POST", "/api/register-batch")
		return
	}
	if req.BasePriceINR == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Base price must be positive", "POST", "/api/register-batch")
		return
	}
	if req.HarvestDate <= 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Harvest date is required", "POST", "/api/register-batch")
		return
	}
	if req.Farmer != "" && !req.Farmer.Valid() {
		h.respondError(w, http.StatusUnprocessableEntity, "Farmer address is malformed", "POST", "/api/register-batch")
		return
	}

	reg := domain.Registration{
		Farmer:       req.Farmer,
		CropType:     req.CropType,
		QuantityKg:   req.QuantityKg,
		BasePriceINR: req.BasePriceINR,
		HarvestDate:  req.HarvestDate,
		MetadataCID:  req.MetadataCID,
	}
	if reg.MetadataCID == "" {
		// No off-chain store is wired; keep registration details readable by
		// encoding them into the metadata slot itself.
		reg.MetadataCID = domain.InlineMetadataCID(reg, req.MinPriceINR)
	}

	id, err := h.ledger.RegisterBatch(r.Context(), reg)
	if err != nil {
		h.respondDomainError(w, err, "POST", "/api/register-batch")
		return
	}

	if req.MinPriceINR > 0 {
		if _, err := h.engine.SetPrice(r.Context(), id, ledger.TierMin, req.MinPriceINR, custody.CapabilityVerifier); err != nil {
			// The batch is registered; the floor still resolves through the
			// base-price fallback, so this write is best effort.
			h.log.Warn("min price write after registration failed", "batch", id, "err", err)
		}
	}

	view, err := h.projection.GetBatch(r.Context(), id)
	if err != nil {
		h.respondJSON(w, http.StatusCreated, map[string]uint64{"batchId": id}, "POST", "/api/register-batch")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{"batchId": id, "batch": view}, "POST", "/api/register-batch")
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/api/batches"))
	defer timer.ObserveDuration()

	views, err := h.projection.ListBatches(r.Context())
	if err != nil {
		h.respondDomainError(w, err, "GET", "/api/batches")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"count": len(views), "batches": views}, "GET", "/api/batches")
}

func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/api/batch/{id}"))
	defer timer.ObserveDuration()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid batch id", "GET", "/api/batch/{id}")
		return
	}
	view, err := h.projection.GetBatch(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err, "GET", "/api/batch/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, view, "GET", "/api/batch/{id}")
}

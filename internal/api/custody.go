package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritruth/trace/internal/custody"
	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
)

type transferRequest struct {
	BatchID uint64         `json:"batchId"`
	To      domain.Address `json:"toAddress"`
}

type priceRequest struct {
	BatchID  uint64 `json:"batchId"`
	PriceINR uint64 `json:"priceINR"`
}

// Transfer moves custody as the relayer account itself: it must currently
// hold the batch, and the move must progress custody forward.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, custody.CapabilitySelf, "/api/transfer")
}

// TransferByVerifier moves custody under the privileged verifier grant.
func (h *Handler) TransferByVerifier(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, custody.CapabilityVerifier, "/api/transfer-by-verifier")
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request, capability custody.Capability, endpoint string) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", endpoint)
		return
	}
	if req.BatchID == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Batch id is required", "POST", endpoint)
		return
	}
	if !req.To.Valid() {
		h.respondError(w, http.StatusUnprocessableEntity, "Destination address is malformed", "POST", endpoint)
		return
	}

	changed, err := h.engine.Transfer(r.Context(), req.BatchID, req.To, capability)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"batchId":     req.BatchID,
		"to":          req.To,
		"transferred": changed,
	}, "POST", endpoint)
}

func (h *Handler) SetMinPrice(w http.ResponseWriter, r *http.Request) {
	h.handleSetPrice(w, r, ledger.TierMin, "/api/set-min-price")
}

func (h *Handler) SetDistributorPrice(w http.ResponseWriter, r *http.Request) {
	h.handleSetPrice(w, r, ledger.TierDistributor, "/api/set-price-by-distributor")
}

func (h *Handler) SetRetailerPrice(w http.ResponseWriter, r *http.Request) {
	h.handleSetPrice(w, r, ledger.TierRetailer, "/api/set-price-by-retailer")
}

// handleSetPrice writes one rung of the pricing ladder under the relayer's
// verifier grant.
func (h *Handler) handleSetPrice(w http.ResponseWriter, r *http.Request, tier ledger.PriceTier, endpoint string) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", endpoint)
		return
	}
	if req.BatchID == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Batch id is required", "POST", endpoint)
		return
	}
	if req.PriceINR == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Price must be positive", "POST", endpoint)
		return
	}

	changed, err := h.engine.SetPrice(r.Context(), req.BatchID, tier, req.PriceINR, custody.CapabilityVerifier)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"batchId":  req.BatchID,
		"tier":     tier.String(),
		"priceINR": req.PriceINR,
		"changed":  changed,
	}, "POST", endpoint)
}

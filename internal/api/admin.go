package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritruth/trace/internal/domain"
)

// Optional diagnostics the on-chain adapter exposes beyond the core ledger
// contract. The in-process ledger implements verifier checks too; block
// height is chain-only.
type verifierChecker interface {
	IsVerifier(ctx context.Context, account domain.Address) (bool, error)
}

type blockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// RelayerStatus reports the signing account and whether it holds the
// verifier grant required for payment-triggered transfers.
func (h *Handler) RelayerStatus(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/api/relayer-status"))
	defer timer.ObserveDuration()

	signer := h.ledger.Signer()
	status := map[string]interface{}{
		"relayer":    signer,
		"configured": !signer.IsZero(),
	}
	if vc, ok := h.ledger.(verifierChecker); ok && !signer.IsZero() {
		isVerifier, err := vc.IsVerifier(r.Context(), signer)
		if err != nil {
			h.respondDomainError(w, err, "GET", "/api/relayer-status")
			return
		}
		status["isVerifier"] = isVerifier
	}
	h.respondJSON(w, http.StatusOK, status, "GET", "/api/relayer-status")
}

// ChainInfo reports reachability of the ledger target plus block height when
// the backend can answer it.
func (h *Handler) ChainInfo(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/api/chain-info"))
	defer timer.ObserveDuration()

	hasCode, err := h.ledger.HasCode(r.Context())
	if err != nil {
		h.respondDomainError(w, err, "GET", "/api/chain-info")
		return
	}
	info := map[string]interface{}{"contractDeployed": hasCode}
	if br, ok := h.ledger.(blockReader); ok {
		if height, err := br.BlockNumber(r.Context()); err == nil {
			info["blockNumber"] = height
		}
	}
	h.respondJSON(w, http.StatusOK, info, "GET", "/api/chain-info")
}

// SetupRelayerAsVerifier grants the relayer account the verifier capability.
// It needs the contract owner key configured and is idempotent on-chain.
func (h *Handler) SetupRelayerAsVerifier(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/setup-relayer-as-verifier"))
	defer timer.ObserveDuration()

	signer := h.ledger.Signer()
	if signer.IsZero() {
		h.respondError(w, http.StatusServiceUnavailable, "Relayer key is not configured", "POST", "/api/setup-relayer-as-verifier")
		return
	}
	if err := h.ledger.SetVerifier(r.Context(), signer, true); err != nil {
		h.respondDomainError(w, err, "POST", "/api/setup-relayer-as-verifier")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"relayer": signer, "isVerifier": true}, "POST", "/api/setup-relayer-as-verifier")
}

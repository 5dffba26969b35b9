package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/payments"
	"github.com/agritruth/trace/internal/settlement"
)

// Webhook is the push settlement path. Once the signature checks out the
// response is 200 regardless of what settlement did: the processor retries
// non-2xx deliveries, and a blind retry of a claimed session buys nothing.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/webhook"))
	defer timer.ObserveDuration()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Unreadable body", "POST", "/webhook")
		return
	}
	eventType, sess, err := h.payments.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook rejected", "err", err)
		h.respondError(w, http.StatusBadRequest, "Webhook signature verification failed", "POST", "/webhook")
		return
	}
	if eventType != payments.EventCheckoutCompleted {
		h.respondJSON(w, http.StatusOK, map[string]bool{"received": true}, "POST", "/webhook")
		return
	}

	res, err := h.reconciler.Process(r.Context(), settlement.SignalFromSession(sess))
	if err != nil {
		h.log.Warn("push settlement failed", "session", sess.ID, "err", err)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"received": true, "result": res}, "POST", "/webhook")
}

type confirmPaymentRequest struct {
	SessionID string         `json:"sessionId"`
	BatchID   uint64         `json:"batchId,omitempty"`
	To        domain.Address `json:"toAddress,omitempty"`
}

// ConfirmPayment is the pull settlement path: the client asks the server to
// re-check the session with the processor and settle it if paid.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/api/confirm-payment"))
	defer timer.ObserveDuration()

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/api/confirm-payment")
		return
	}
	if req.SessionID == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "Session id is required", "POST", "/api/confirm-payment")
		return
	}

	res, err := h.reconciler.Confirm(r.Context(), req.SessionID, req.BatchID, req.To)
	if err != nil {
		h.respondDomainError(w, err, "POST", "/api/confirm-payment")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"sessionId": req.SessionID, "result": res}, "POST", "/api/confirm-payment")
}

type checkoutRequest struct {
	BatchID             uint64         `json:"batchId"`
	Role                string         `json:"role"`
	To                  domain.Address `json:"toAddress,omitempty"`
	AmountINR           uint64         `json:"amountINR"`
	ProductName         string         `json:"productName,omitempty"`
	DistributorPriceINR uint64         `json:"distributorPriceINR,omitempty"`
	ConsumerPriceINR    uint64         `json:"consumerPriceINR,omitempty"`
	SuccessURL          string         `json:"successUrl"`
	CancelURL           string         `json:"cancelUrl"`
}

// CreateCheckoutSession opens a payment session whose metadata carries the
// settlement context the webhook will act on.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/create-checkout-session"))
	defer timer.ObserveDuration()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/create-checkout-session")
		return
	}
	if req.BatchID == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Batch id is required", "POST", "/create-checkout-session")
		return
	}
	if req.AmountINR == 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Amount must be positive", "POST", "/create-checkout-session")
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "Success and cancel URLs are required", "POST", "/create-checkout-session")
		return
	}

	metadata := map[string]string{
		"batchId":   fmt.Sprintf("%d", req.BatchID),
		"role":      req.Role,
		"toAddress": string(req.To),
	}
	if req.DistributorPriceINR > 0 {
		metadata["distributorPriceINR"] = fmt.Sprintf("%d", req.DistributorPriceINR)
	}
	if req.ConsumerPriceINR > 0 {
		metadata["consumerPriceINR"] = fmt.Sprintf("%d", req.ConsumerPriceINR)
	}

	sess, err := h.payments.CreateCheckout(r.Context(), payments.CheckoutParams{
		LineItems: []payments.LineItem{{
			Name:       req.ProductName,
			UnitAmount: int64(req.AmountINR) * 100, // INR to paise
			Quantity:   1,
		}},
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		h.respondDomainError(w, err, "POST", "/create-checkout-session")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "url": sess.URL}, "POST", "/create-checkout-session")
}

package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires every endpoint onto a fresh mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	r.HandleFunc("/api/register-batch", h.RegisterBatch).Methods("POST")
	r.HandleFunc("/api/batches", h.ListBatches).Methods("GET")
	r.HandleFunc("/api/batch/{id}", h.GetBatch).Methods("GET")

	r.HandleFunc("/api/transfer", h.Transfer).Methods("POST")
	r.HandleFunc("/api/transfer-by-verifier", h.TransferByVerifier).Methods("POST")
	r.HandleFunc("/api/set-min-price", h.SetMinPrice).Methods("POST")
	r.HandleFunc("/api/set-price-by-distributor", h.SetDistributorPrice).Methods("POST")
	r.HandleFunc("/api/set-price-by-retailer", h.SetRetailerPrice).Methods("POST")

	r.HandleFunc("/webhook", h.Webhook).Methods("POST")
	r.HandleFunc("/create-checkout-session", h.CreateCheckoutSession).Methods("POST")
	r.HandleFunc("/api/confirm-payment", h.ConfirmPayment).Methods("POST")

	r.HandleFunc("/api/relayer-status", h.RelayerStatus).Methods("GET")
	r.HandleFunc("/api/chain-info", h.ChainInfo).Methods("GET")
	r.HandleFunc("/api/setup-relayer-as-verifier", h.SetupRelayerAsVerifier).Methods("POST")

	r.HandleFunc("/api/verification/verify-batch", h.VerifyBatch).Methods("POST")
	r.HandleFunc("/api/verifier/queue", h.QueueAdd).Methods("POST")
	r.HandleFunc("/api/verifier/queue", h.QueueList).Methods("GET")
	r.HandleFunc("/api/verifier/queue/{id}/decide", h.QueueDecide).Methods("POST")

	return r
}

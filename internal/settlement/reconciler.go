// Package settlement turns payment confirmations into exactly one custody
// transfer (and at most one downstream price write) per payment session,
// tolerating duplicate and concurrent delivery over both the webhook push
// path and the client pull path.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agritruth/trace/internal/custody"
	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
	"github.com/agritruth/trace/internal/payments"
)

var (
	// ErrInvalidSignal marks a confirmation that cannot be mapped to a
	// batch and destination; it is rejected before any ledger interaction.
	ErrInvalidSignal = errors.New("invalid settlement signal")
	// ErrNotPaid means the processor's own record does not show the
	// session as paid, so the pull path refuses to settle it.
	ErrNotPaid = errors.New("session not paid")
)

var settlementSignals = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trace_settlement_signals_total",
	Help: "Settlement signals handled, labeled by delivery path and outcome",
}, []string{"path", "outcome"})

// Signal is one payment confirmation mapped to its settlement effect.
type Signal struct {
	SessionID string
	BatchID   uint64
	Role      domain.Role
	To        domain.Address
	PriceINR  uint64
}

// SignalFromSession derives a Signal from checkout-session metadata. The
// metadata keys are fixed at checkout creation time.
func SignalFromSession(sess payments.CheckoutSession) Signal {
	sig := Signal{SessionID: sess.ID}
	if v := sess.Metadata["batchId"]; v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			sig.BatchID = id
		}
	}
	sig.Role = domain.ParseRole(sess.Metadata["role"])
	sig.To = domain.Address(sess.Metadata["toAddress"])
	switch sig.Role {
	case domain.RoleDistributor:
		sig.PriceINR = parsePrice(sess.Metadata["distributorPriceINR"])
	case domain.RoleRetailer:
		sig.PriceINR = parsePrice(sess.Metadata["consumerPriceINR"])
	}
	return sig
}

func parsePrice(v string) uint64 {
	p, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return p
}

// withDefaults resolves a missing destination from the signal's role.
func (s Signal) withDefaults() Signal {
	if !s.To.Valid() {
		switch s.Role {
		case domain.RoleRetailer:
			s.To = domain.DefaultRetailer
		case domain.RoleConsumer:
			s.To = domain.DefaultConsumer
		default:
			s.To = domain.DefaultDistributor
		}
	}
	return s
}

func (s Signal) validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidSignal)
	}
	if s.BatchID == 0 {
		return fmt.Errorf("%w: missing or unparseable batch id", ErrInvalidSignal)
	}
	if !s.To.Valid() {
		return fmt.Errorf("%w: destination address %q is malformed", ErrInvalidSignal, s.To)
	}
	return nil
}

// priceTier maps the role being transitioned into onto the ladder rung it
// sets: a distributor purchase fixes the price the retailer will pay, a
// retailer purchase fixes the consumer price.
func (s Signal) priceTier() (ledger.PriceTier, bool) {
	switch s.Role {
	case domain.RoleDistributor:
		return ledger.TierDistributor, true
	case domain.RoleRetailer:
		return ledger.TierRetailer, true
	}
	return 0, false
}

// Result reports what a settlement attempt actually did.
type Result struct {
	Duplicate   bool `json:"duplicate,omitempty"`
	InProgress  bool `json:"inProgress,omitempty"`
	Skipped     bool `json:"skipped,omitempty"`
	Transferred bool `json:"transferred,omitempty"`
	PriceSet    bool `json:"priceSet,omitempty"`
}

// Reconciler drives the custody engine from payment confirmations. Both
// delivery paths read current state before writing; that no-op guard, not
// the session markers, is what prevents a double transfer when push and
// pull both succeed for the same payment.
type Reconciler struct {
	ledger   ledger.Client
	engine   *custody.Engine
	sessions SessionStore
	payments payments.Provider
	log      *slog.Logger
}

func NewReconciler(l ledger.Client, engine *custody.Engine, sessions SessionStore, provider payments.Provider, log *slog.Logger) *Reconciler {
	return &Reconciler{ledger: l, engine: engine, sessions: sessions, payments: provider, log: log}
}

// Process handles a push-delivered confirmation. Duplicate and concurrent
// deliveries short-circuit to success. Once a fresh session is claimed it is
// always marked processed, even when the on-chain steps fail: the payment
// already happened, and retrying blindly risks the same write twice, so
// recovery goes through the pull path instead.
func (r *Reconciler) Process(ctx context.Context, sig Signal) (Result, error) {
	if sig.SessionID == "" {
		settlementSignals.WithLabelValues("push", "invalid").Inc()
		return Result{}, fmt.Errorf("%w: missing session id", ErrInvalidSignal)
	}
	state, err := r.sessions.Begin(ctx, sig.SessionID)
	if err != nil {
		settlementSignals.WithLabelValues("push", "store_error").Inc()
		return Result{}, err
	}
	switch state {
	case SessionProcessed:
		settlementSignals.WithLabelValues("push", "duplicate").Inc()
		return Result{Duplicate: true}, nil
	case SessionInProgress:
		settlementSignals.WithLabelValues("push", "in_progress").Inc()
		return Result{InProgress: true}, nil
	}
	defer func() {
		if ferr := r.sessions.Finish(ctx, sig.SessionID); ferr != nil {
			r.log.Error("failed to mark settlement session processed", "session", sig.SessionID, "err", ferr)
		}
	}()

	sig = sig.withDefaults()
	if err := sig.validate(); err != nil {
		settlementSignals.WithLabelValues("push", "invalid").Inc()
		return Result{Skipped: true}, err
	}
	if ok, err := r.ledger.HasCode(ctx); err != nil || !ok {
		r.log.Warn("ledger target unreachable, skipping on-chain settlement", "session", sig.SessionID, "err", err)
		settlementSignals.WithLabelValues("push", "ledger_unreachable").Inc()
		return Result{Skipped: true}, nil
	}
	res, err := r.apply(ctx, sig)
	if err != nil {
		r.log.Warn("settlement write failed, session marked processed", "session", sig.SessionID, "batch", sig.BatchID, "err", err)
		settlementSignals.WithLabelValues("push", "write_failed").Inc()
		return res, nil
	}
	settlementSignals.WithLabelValues("push", "ok").Inc()
	return res, nil
}

// Confirm handles the client pull path. It re-derives state from the
// processor's own record and is deliberately not gated by the session
// markers, so an operator can force reconciliation when the push never
// arrived. Errors surface to the caller.
func (r *Reconciler) Confirm(ctx context.Context, sessionID string, batchID uint64, to domain.Address) (Result, error) {
	sess, err := r.payments.CheckoutSession(ctx, sessionID)
	if err != nil {
		settlementSignals.WithLabelValues("pull", "fetch_failed").Inc()
		return Result{}, err
	}
	if sess.PaymentStatus != payments.StatusPaid {
		settlementSignals.WithLabelValues("pull", "not_paid").Inc()
		return Result{}, ErrNotPaid
	}
	sig := SignalFromSession(sess)
	sig.SessionID = sessionID
	if batchID != 0 {
		sig.BatchID = batchID
	}
	if to.Valid() {
		sig.To = to
	}
	sig = sig.withDefaults()
	if err := sig.validate(); err != nil {
		settlementSignals.WithLabelValues("pull", "invalid").Inc()
		return Result{}, err
	}
	if ok, err := r.ledger.HasCode(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrInvalidLedgerTarget, err)
	} else if !ok {
		return Result{}, domain.ErrInvalidLedgerTarget
	}
	res, err := r.apply(ctx, sig)
	if err != nil {
		settlementSignals.WithLabelValues("pull", "write_failed").Inc()
		return res, err
	}
	// A late-arriving push for the same session now short-circuits.
	if ferr := r.sessions.Finish(ctx, sig.SessionID); ferr != nil {
		r.log.Error("failed to mark settlement session processed", "session", sig.SessionID, "err", ferr)
	}
	settlementSignals.WithLabelValues("pull", "ok").Inc()
	return res, nil
}

// apply performs the transfer and optional price-set. Both steps check the
// ledger's current state first and no-op when the end state is already in
// place.
func (r *Reconciler) apply(ctx context.Context, sig Signal) (Result, error) {
	var res Result
	transferred, err := r.engine.Transfer(ctx, sig.BatchID, sig.To, custody.CapabilityVerifier)
	if err != nil {
		return res, err
	}
	res.Transferred = transferred
	if tier, ok := sig.priceTier(); ok && sig.PriceINR > 0 {
		set, err := r.engine.SetPrice(ctx, sig.BatchID, tier, sig.PriceINR, custody.CapabilityVerifier)
		if err != nil {
			// The transfer stands; a failed optional price write is not
			// worth unwinding a settled payment over.
			r.log.Warn("downstream price update failed", "session", sig.SessionID, "batch", sig.BatchID, "tier", tier.String(), "err", err)
		} else {
			res.PriceSet = set
		}
	}
	return res, nil
}

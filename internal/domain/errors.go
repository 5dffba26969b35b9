package domain

import "errors"

var (
	// ErrNotFound is returned for batch or queue-item ids that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLedgerTarget means the configured contract address is
	// malformed, has no deployed code, or collides with the relayer account.
	ErrInvalidLedgerTarget = errors.New("invalid ledger target")
	// ErrTransitionDenied means a custody or pricing guard rejected the call.
	ErrTransitionDenied = errors.New("transition denied")
	// ErrWriteRejected means the ledger refused or failed an append.
	ErrWriteRejected = errors.New("ledger write rejected")
	// ErrNotConfigured means a required collaborator (relayer, owner key,
	// payment provider) is not set up for this deployment.
	ErrNotConfigured = errors.New("not configured")
)

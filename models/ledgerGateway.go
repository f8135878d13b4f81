package models

import "context"

// LedgerGateway loads and saves the serialized ledger as a whole.
// Load returns nil bytes and a nil error when nothing has been saved yet.
type LedgerGateway interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// SaveResult reports whether a ledger rewrite reached the gateway.
// The in-memory ledger is already updated whatever the result says.
type SaveResult struct {
	Persisted bool
	Err       error
}

func (r SaveResult) OK() bool {
	return r.Persisted && r.Err == nil
}

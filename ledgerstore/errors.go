package ledgerstore

import "errors"

var ErrUnknownBackend = errors.New("unknown ledger backend")

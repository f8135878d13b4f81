package ledgerstore

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/sirupsen/logrus"
)

// Store is a ledger gateway that owns a connection.
type Store interface {
	models.LedgerGateway
	Close() error
}

// Open connects the backend named by LEDGER_BACKEND values. Connection helpers
// retry until ctx is done, so callers should bound ctx.
func Open(ctx context.Context, backend string, logger *logrus.Logger) (Store, error) {
	key := config.LedgerKey()

	switch backend {
	case config.LedgerBackendRedis:
		client, err := config.ConnectRedisWithRetry(ctx)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, config.GetRedisLock(), key, logger), nil

	case config.LedgerBackendMySQL:
		db, err := config.ConnectDatabaseWithRetry(ctx)
		if err != nil {
			return nil, err
		}
		store, err := NewMySQLStore(db, key)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate ledger snapshots: %w", err)
		}
		return store, nil

	case config.LedgerBackendGCS:
		bucket, err := utils.GCSBucket()
		if err != nil {
			return nil, err
		}
		client, err := utils.GetGCSClient(ctx)
		if err != nil {
			return nil, err
		}
		return NewGCSStore(client, bucket, key), nil

	case config.LedgerBackendMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

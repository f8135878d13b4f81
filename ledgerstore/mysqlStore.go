package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerSnapshot holds one serialized ledger per ledger key.
type LedgerSnapshot struct {
	ID        uint           `gorm:"primaryKey"`
	LedgerKey string         `gorm:"size:191;not null;uniqueIndex"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (LedgerSnapshot) TableName() string {
	return "sales_ledger_snapshots"
}

type MySQLStore struct {
	db  *gorm.DB
	key string
}

// NewMySQLStore makes sure the ledger key guard is installed on db.
func NewMySQLStore(db *gorm.DB, key string) (*MySQLStore, error) {
	if err := db.Use(config.NewLedgerKeyGuardPlugin()); err != nil && !errors.Is(err, gorm.ErrRegistered) {
		return nil, fmt.Errorf("install ledger key guard: %w", err)
	}
	return &MySQLStore{db: db, key: key}, nil
}

func (s *MySQLStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&LedgerSnapshot{})
}

func (s *MySQLStore) Load(ctx context.Context) ([]byte, error) {
	var snap LedgerSnapshot
	err := s.db.WithContext(config.WithLedgerKey(ctx, s.key)).Take(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot %s: %w", s.key, err)
	}
	return []byte(snap.Payload), nil
}

func (s *MySQLStore) Save(ctx context.Context, data []byte) error {
	snap := LedgerSnapshot{
		LedgerKey: s.key,
		Payload:   datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ledger_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("save ledger snapshot %s: %w", s.key, err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package models

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type MonthlyRevenue struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// SalesLedger is the append-only list of committed sales.
// It is not safe for concurrent use; callers serialize access.
type SalesLedger struct {
	records  []SaleRecord
	gateway  LedgerGateway
	logger   *logrus.Logger
	location *time.Location
}

func NewSalesLedger(gateway LedgerGateway, logger *logrus.Logger, location *time.Location) *SalesLedger {
	if location == nil {
		location = time.Local
	}
	return &SalesLedger{
		gateway:  gateway,
		logger:   logger,
		location: location,
	}
}

func (l *SalesLedger) Location() *time.Location {
	return l.location
}

// Load replaces the in-memory records with the persisted ones and returns how many were read.
// Read or decode failures are logged and leave the ledger empty.
func (l *SalesLedger) Load(ctx context.Context) int {
	l.records = nil
	if l.gateway == nil {
		return 0
	}
	data, err := l.gateway.Load(ctx)
	if err != nil {
		config.LogError(l.logger, "SalesLedger", "Load", "gateway.Load", nil, err)
		return 0
	}
	if data == nil {
		return 0
	}
	records, err := DecodeLedger(data)
	if err != nil {
		config.LogError(l.logger, "SalesLedger", "Load", "DecodeLedger", len(data), err)
		return 0
	}
	l.records = records
	return len(l.records)
}

// Commit appends the record and rewrites the persisted ledger once.
// A failed save is reported and logged but the record stays in memory.
func (l *SalesLedger) Commit(ctx context.Context, record SaleRecord) SaveResult {
	ctx, span := otel.Tracer("storefront/models").Start(ctx, "SalesLedger.Commit")
	defer span.End()

	l.records = append(l.records, record.clone())
	span.SetAttributes(
		attribute.Int("ledger.records", len(l.records)),
		attribute.String("sale.total", record.Total.StringFixed(2)),
	)

	res := l.persist(ctx, "Commit")
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "ledger not persisted")
	}
	return res
}

// ClearAll discards every record and persists the empty ledger. It cannot be undone.
func (l *SalesLedger) ClearAll(ctx context.Context) SaveResult {
	l.records = nil
	return l.persist(ctx, "ClearAll")
}

func (l *SalesLedger) persist(ctx context.Context, funcName string) SaveResult {
	if l.gateway == nil {
		return SaveResult{Err: ErrLedgerGatewayMissing}
	}
	data, err := EncodeLedger(l.records)
	if err != nil {
		config.LogError(l.logger, "SalesLedger", funcName, "EncodeLedger", len(l.records), err)
		return SaveResult{Err: err}
	}
	if err := l.gateway.Save(ctx, data); err != nil {
		config.LogError(l.logger, "SalesLedger", funcName, "gateway.Save", len(l.records), err)
		return SaveResult{Err: err}
	}
	return SaveResult{Persisted: true}
}

func (l *SalesLedger) Len() int {
	return len(l.records)
}

// Records returns copies in commit order, oldest first.
func (l *SalesLedger) Records() []SaleRecord {
	out := make([]SaleRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.clone())
	}
	return out
}

// RecentFirst returns copies newest first, the order used for listings.
func (l *SalesLedger) RecentFirst() []SaleRecord {
	out := make([]SaleRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i].clone())
	}
	return out
}

func (l *SalesLedger) TotalRevenue() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range l.records {
		sum = sum.Add(r.Total)
	}
	return sum
}

// ProductCounts sums quantities by item name over every record.
func (l *SalesLedger) ProductCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range l.records {
		for _, it := range r.Items {
			counts[it.Name] += it.Quantity
		}
	}
	return counts
}

// MonthlyRevenue buckets totals by YYYY-MM in the ledger location, newest month first.
// Records without a usable timestamp are left out of this view only.
func (l *SalesLedger) MonthlyRevenue() []MonthlyRevenue {
	buckets := make(map[string]decimal.Decimal)
	for _, r := range l.records {
		t, ok := r.CommittedTime()
		if !ok {
			continue
		}
		key := t.In(l.location).Format("2006-01")
		buckets[key] = buckets[key].Add(r.Total)
	}

	out := make([]MonthlyRevenue, 0, len(buckets))
	for month, total := range buckets {
		out = append(out, MonthlyRevenue{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

package models

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeGateway struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (g *fakeGateway) Load(context.Context) ([]byte, error) {
	return g.data, g.loadErr
}

func (g *fakeGateway) Save(_ context.Context, data []byte) error {
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.data = append([]byte(nil), data...)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func recordAt(t *testing.T, at time.Time, lines ...[2]string) SaleRecord {
	t.Helper()
	return NewSaleRecord(cartWith(t, lines...).Items(), validDetails(), at, time.UTC)
}

func TestSalesLedger_CommitAppendsAndPersists(t *testing.T) {
	gw := &fakeGateway{}
	ledger := NewSalesLedger(gw, quietLogger(), time.UTC)
	ctx := context.Background()

	first := recordAt(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), [2]string{"Burger", "5"}, [2]string{"Fries", "2"})
	second := recordAt(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), [2]string{"Burger", "5"})

	if res := ledger.Commit(ctx, first); !res.OK() {
		t.Fatalf("commit first: %+v", res)
	}
	if res := ledger.Commit(ctx, second); !res.OK() {
		t.Fatalf("commit second: %+v", res)
	}

	if ledger.Len() != 2 || gw.saves != 2 {
		t.Fatalf("expected 2 records and 2 saves, got %d/%d", ledger.Len(), gw.saves)
	}
	recs := ledger.Records()
	if recs[0].CommittedAt != first.CommittedAt || recs[1].CommittedAt != second.CommittedAt {
		t.Fatalf("records not in commit order")
	}
	recent := ledger.RecentFirst()
	if recent[0].CommittedAt != second.CommittedAt {
		t.Fatalf("expected newest first")
	}
	if !ledger.TotalRevenue().Equal(first.Total.Add(second.Total)) {
		t.Fatalf("unexpected revenue %s", ledger.TotalRevenue())
	}

	counts := ledger.ProductCounts()
	if counts["Burger"] != 2 || counts["Fries"] != 1 {
		t.Fatalf("unexpected product counts %v", counts)
	}

	monthly := ledger.MonthlyRevenue()
	if len(monthly) != 1 || monthly[0].Month != "2024-03" {
		t.Fatalf("expected one March bucket, got %+v", monthly)
	}
	if !monthly[0].Total.Equal(first.Total.Add(second.Total)) {
		t.Fatalf("expected March total %s, got %s", first.Total.Add(second.Total), monthly[0].Total)
	}
}

func TestSalesLedger_SaveFailureKeepsRecordInMemory(t *testing.T) {
	boom := errors.New("quota exceeded")
	gw := &fakeGateway{saveErr: boom}
	ledger := NewSalesLedger(gw, quietLogger(), time.UTC)

	res := ledger.Commit(context.Background(), recordAt(t, time.Now(), [2]string{"Tea", "1"}))
	if res.Persisted || !errors.Is(res.Err, boom) {
		t.Fatalf("expected failed save result, got %+v", res)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected in-memory append despite failure")
	}
}

func TestSalesLedger_LoadRoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	ctx := context.Background()
	writer := NewSalesLedger(gw, quietLogger(), time.UTC)
	for i := 0; i < 3; i++ {
		writer.Commit(ctx, recordAt(t, time.Date(2024, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC), [2]string{"Item", "3.50"}))
	}

	reader := NewSalesLedger(gw, quietLogger(), time.UTC)
	if n := reader.Load(ctx); n != 3 {
		t.Fatalf("expected 3 loaded records, got %d", n)
	}
	want := writer.Records()
	got := reader.Records()
	for i := range want {
		assertSameRecord(t, want[i], got[i])
	}
}

func TestSalesLedger_LoadFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{"absent", &fakeGateway{}},
		{"corrupt", &fakeGateway{data: []byte("{not json")}},
		{"unreachable", &fakeGateway{loadErr: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewSalesLedger(tt.gw, quietLogger(), time.UTC)
			if n := ledger.Load(context.Background()); n != 0 || ledger.Len() != 0 {
				t.Fatalf("expected empty ledger, got %d", ledger.Len())
			}
			if !ledger.TotalRevenue().IsZero() || len(ledger.ProductCounts()) != 0 || len(ledger.MonthlyRevenue()) != 0 {
				t.Fatalf("expected empty views")
			}
		})
	}
}

func TestSalesLedger_ClearAllPersistsEmptyLedger(t *testing.T) {
	gw := &fakeGateway{}
	ctx := context.Background()
	ledger := NewSalesLedger(gw, quietLogger(), time.UTC)
	ledger.Commit(ctx, recordAt(t, time.Now(), [2]string{"Tea", "1"}))

	if res := ledger.ClearAll(ctx); !res.OK() {
		t.Fatalf("ClearAll: %+v", res)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected no records after clear")
	}
	if string(gw.data) != "[]" {
		t.Fatalf("expected persisted empty ledger, got %s", gw.data)
	}
}

func TestSalesLedger_MonthlyRevenueSkipsUnparsableDates(t *testing.T) {
	gw := &fakeGateway{}
	ctx := context.Background()
	ledger := NewSalesLedger(gw, quietLogger(), time.UTC)

	jan := recordAt(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), [2]string{"A", "10"})
	feb := recordAt(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), [2]string{"A", "20"})
	broken := recordAt(t, time.Now(), [2]string{"A", "30"})
	broken.CommittedAt = "not-a-date"
	broken.DisplayTimestamp = ""

	for _, r := range []SaleRecord{jan, broken, feb} {
		ledger.Commit(ctx, r)
	}

	monthly := ledger.MonthlyRevenue()
	if len(monthly) != 2 || monthly[0].Month != "2024-02" || monthly[1].Month != "2024-01" {
		t.Fatalf("expected Feb then Jan, got %+v", monthly)
	}
	if !ledger.TotalRevenue().Equal(jan.Total.Add(feb.Total).Add(broken.Total)) {
		t.Fatalf("unparsable record must still count toward revenue")
	}
}

func TestSalesLedger_MonthUsesLedgerLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ledger := NewSalesLedger(&fakeGateway{}, quietLogger(), loc)
	// 20:00 UTC on Jan 31 is already Feb 1 in IST.
	ledger.Commit(context.Background(), recordAt(t, time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), [2]string{"A", "1"}))

	monthly := ledger.MonthlyRevenue()
	if len(monthly) != 1 || monthly[0].Month != "2024-02" {
		t.Fatalf("expected 2024-02 bucket, got %+v", monthly)
	}
}

func TestSalesLedger_NoGateway(t *testing.T) {
	ledger := NewSalesLedger(nil, quietLogger(), nil)
	res := ledger.Commit(context.Background(), recordAt(t, time.Now(), [2]string{"A", "1"}))
	if !errors.Is(res.Err, ErrLedgerGatewayMissing) || ledger.Len() != 1 {
		t.Fatalf("expected in-memory commit with missing gateway error, got %+v", res)
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/shopspring/decimal"
)

type saleItemJSON struct {
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
}

type saleRecordJSON struct {
	CommittedAt      string         `json:"committedAt"`
	DisplayTimestamp string         `json:"displayTimestamp"`
	Items            []saleItemJSON `json:"items"`
	Subtotal         json.Number    `json:"subtotal"`
	TaxAmount        json.Number    `json:"taxAmount"`
	Total            json.Number    `json:"total"`
	PaymentMethod    PaymentMethod  `json:"paymentMethod"`
	Customer         Customer       `json:"customer"`
}

// Amounts are written from the decimal string, so nothing goes through float64.
func (r SaleRecord) MarshalJSON() ([]byte, error) {
	items := make([]saleItemJSON, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, saleItemJSON{
			Name:      it.Name,
			UnitPrice: json.Number(it.UnitPrice.String()),
			Quantity:  it.Quantity,
		})
	}
	return json.Marshal(saleRecordJSON{
		CommittedAt:      r.CommittedAt,
		DisplayTimestamp: r.DisplayTimestamp,
		Items:            items,
		Subtotal:         json.Number(r.Subtotal.StringFixed(2)),
		TaxAmount:        json.Number(r.TaxAmount.StringFixed(2)),
		Total:            json.Number(r.Total.StringFixed(2)),
		PaymentMethod:    r.PaymentMethod,
		Customer:         r.Customer,
	})
}

// storedSaleItem accepts both the current item shape and the old {item, price, qty} one.
type storedSaleItem struct {
	Name      string `json:"name"`
	Item      any    `json:"item"`
	UnitPrice any    `json:"unitPrice"`
	Price     any    `json:"price"`
	Quantity  any    `json:"quantity"`
	Qty       any    `json:"qty"`
}

type storedSaleRecord struct {
	CommittedAt      string           `json:"committedAt"`
	IsoDate          string           `json:"isoDate"`
	DisplayTimestamp string           `json:"displayTimestamp"`
	DisplayDate      string           `json:"displayDate"`
	Date             string           `json:"date"`
	Items            []storedSaleItem `json:"items"`
	Subtotal         any              `json:"subtotal"`
	TaxAmount        any              `json:"taxAmount"`
	Gst              any              `json:"gst"`
	Total            any              `json:"total"`
	TotalWithGst     any              `json:"totalWithGst"`
	PaymentMethod    string           `json:"paymentMethod"`
	Customer         *Customer        `json:"customer"`
}

func (r *SaleRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s storedSaleRecord
	if err := dec.Decode(&s); err != nil {
		return err
	}
	*r = s.normalize()
	return nil
}

func (s storedSaleRecord) normalize() SaleRecord {
	rec := SaleRecord{
		CommittedAt:      firstNonEmpty(s.CommittedAt, s.IsoDate),
		DisplayTimestamp: firstNonEmpty(s.DisplayTimestamp, s.DisplayDate, s.Date),
		PaymentMethod:    PaymentMethod(s.PaymentMethod),
		Items:            make([]SaleItem, 0, len(s.Items)),
	}
	if s.Customer != nil {
		rec.Customer = *s.Customer
	}

	subtotal := decimal.Zero
	for _, it := range s.Items {
		item := SaleItem{
			Name:      firstNonEmpty(it.Name, stringValue(it.Item)),
			UnitPrice: utils.CoerceAmount(firstPresent(it.UnitPrice, it.Price)),
			Quantity:  quantityValue(firstPresent(it.Quantity, it.Qty)),
		}
		rec.Items = append(rec.Items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}

	if v := firstPresent(s.Subtotal); v != nil {
		rec.Subtotal = utils.CoerceAmount(v)
	} else {
		rec.Subtotal = utils.Round2(subtotal)
	}
	if v := firstPresent(s.TaxAmount, s.Gst); v != nil {
		rec.TaxAmount = utils.CoerceAmount(v)
	} else {
		rec.TaxAmount = utils.CalculateTaxAmount(rec.Subtotal, TaxRate)
	}
	if v := firstPresent(s.Total, s.TotalWithGst); v != nil {
		rec.Total = utils.CoerceAmount(v)
	} else {
		rec.Total = utils.CalculateTotalWithTax(rec.Subtotal, rec.TaxAmount)
	}
	return rec
}

// EncodeLedger serializes records in commit order.
func EncodeLedger(records []SaleRecord) ([]byte, error) {
	if records == nil {
		records = []SaleRecord{}
	}
	return json.Marshal(records)
}

// DecodeLedger reads a persisted ledger. Empty input or JSON null is an empty ledger.
// Any malformed record fails the whole decode.
func DecodeLedger(data []byte) ([]SaleRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []SaleRecord{}, nil
	}
	var records []SaleRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	if records == nil {
		records = []SaleRecord{}
	}
	return records, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPresent(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// quantityValue treats a missing or unusable quantity as a single unit.
func quantityValue(v any) int {
	var n int64
	var err error
	switch q := v.(type) {
	case json.Number:
		n, err = q.Int64()
		if err != nil {
			f, ferr := q.Float64()
			n, err = int64(f), ferr
		}
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(q), 10, 64)
	default:
		return 1
	}
	if err != nil || n <= 0 {
		return 1
	}
	return int(n)
}

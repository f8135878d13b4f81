package models

import (
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/shopspring/decimal"
)

// TaxRate is the single GST rate applied to every sale.
var TaxRate = decimal.RequireFromString("0.18")

const DisplayTimestampLayout = "02 Jan 2006, 03:04:05 PM"

type SaleItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleRecord is a committed sale. Values are snapshots; nothing refers back to the cart.
type SaleRecord struct {
	CommittedAt      string
	DisplayTimestamp string
	Items            []SaleItem
	Subtotal         decimal.Decimal
	TaxAmount        decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    PaymentMethod
	Customer         Customer
}

// NewSaleRecord prices a snapshot of items. Subtotal is rounded to cents first,
// so TaxAmount and Total can always be recomputed from the stored Subtotal.
func NewSaleRecord(items []LineItem, details CustomerDetails, at time.Time, loc *time.Location) SaleRecord {
	if loc == nil {
		loc = time.Local
	}
	snapshot := make([]SaleItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		si := SaleItem{Name: item.Name, UnitPrice: item.UnitPrice, Quantity: item.Quantity}
		snapshot = append(snapshot, si)
		subtotal = subtotal.Add(si.LineTotal())
	}
	subtotal = utils.Round2(subtotal)
	tax := utils.CalculateTaxAmount(subtotal, TaxRate)

	return SaleRecord{
		CommittedAt:      at.UTC().Format(time.RFC3339Nano),
		DisplayTimestamp: at.In(loc).Format(DisplayTimestampLayout),
		Items:            snapshot,
		Subtotal:         subtotal,
		TaxAmount:        tax,
		Total:            utils.CalculateTotalWithTax(subtotal, tax),
		PaymentMethod:    details.PaymentMethod,
		Customer:         details.Customer,
	}
}

// Layouts tried on the display timestamp when a record has no committedAt.
// The slash forms are what browsers produced for older records.
var fallbackTimestampLayouts = []string{
	time.RFC3339Nano,
	DisplayTimestampLayout,
	"2006-01-02 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"2/1/2006, 3:04:05 pm",
	"1/2/2006, 15:04:05",
	"2/1/2006, 15:04:05",
	"2006-01-02",
}

// CommittedTime parses committedAt, falling back to the display timestamp.
func (r SaleRecord) CommittedTime() (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(r.CommittedAt)); err == nil {
		return t, true
	}
	display := strings.TrimSpace(r.DisplayTimestamp)
	if display == "" {
		return time.Time{}, false
	}
	for _, layout := range fallbackTimestampLayouts {
		if t, err := time.ParseInLocation(layout, display, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r SaleRecord) clone() SaleRecord {
	items := make([]SaleItem, len(r.Items))
	copy(items, r.Items)
	r.Items = items
	return r
}

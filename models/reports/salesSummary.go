package reports

import (
	"sort"

	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"github.com/shopspring/decimal"
)

// SalesView is the read side of the ledger that reports are built from.
type SalesView interface {
	Len() int
	TotalRevenue() decimal.Decimal
	ProductCounts() map[string]int
	MonthlyRevenue() []models.MonthlyRevenue
	RecentFirst() []models.SaleRecord
}

type ProductCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type SalesSummary struct {
	RecordCount  int                     `json:"recordCount"`
	TotalRevenue decimal.Decimal         `json:"totalRevenue"`
	Products     []ProductCount          `json:"products"`
	Monthly      []models.MonthlyRevenue `json:"monthly"`
}

// BuildSalesSummary combines the ledger views. Products are ordered by quantity, then name.
func BuildSalesSummary(view SalesView) SalesSummary {
	counts := view.ProductCounts()
	products := make([]ProductCount, 0, len(counts))
	for name, qty := range counts {
		products = append(products, ProductCount{Name: name, Quantity: qty})
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Quantity != products[j].Quantity {
			return products[i].Quantity > products[j].Quantity
		}
		return products[i].Name < products[j].Name
	})

	return SalesSummary{
		RecordCount:  view.Len(),
		TotalRevenue: view.TotalRevenue(),
		Products:     products,
		Monthly:      view.MonthlyRevenue(),
	}
}

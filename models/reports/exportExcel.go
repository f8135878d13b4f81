package reports

import (
	"fmt"
	"io"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSales    = "Sales"
	SheetProducts = "Products"
	SheetMonthly  = "Monthly"

	WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type saleRow models.SaleRecord

func (r saleRow) GetCellValues() []interface{} {
	items := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return []interface{}{
		r.CommittedAt,
		r.DisplayTimestamp,
		r.Customer.Name,
		r.Customer.Phone,
		r.Customer.Address,
		string(r.PaymentMethod),
		strings.Join(items, ", "),
		r.Subtotal.InexactFloat64(),
		r.TaxAmount.InexactFloat64(),
		r.Total.InexactFloat64(),
	}
}

type productRow ProductCount

func (r productRow) GetCellValues() []interface{} {
	return []interface{}{r.Name, r.Quantity}
}

type monthRow models.MonthlyRevenue

func (r monthRow) GetCellValues() []interface{} {
	return []interface{}{r.Month, r.Total.InexactFloat64()}
}

// WriteSalesWorkbook writes Sales (newest first), Products and Monthly sheets to w.
func WriteSalesWorkbook(w io.Writer, view SalesView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSales); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetProducts); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetMonthly); err != nil {
		return err
	}

	records := view.RecentFirst()
	sales := make([]ExcelExporter, 0, len(records))
	for _, r := range records {
		sales = append(sales, saleRow(r))
	}
	if err := writeSheet(f, SheetSales, sales,
		"CommittedAt", "Date", "CustomerName", "Phone", "Address", "PaymentMethod", "Items", "Subtotal", "Tax", "Total"); err != nil {
		return err
	}

	summary := BuildSalesSummary(view)
	products := make([]ExcelExporter, 0, len(summary.Products))
	for _, p := range summary.Products {
		products = append(products, productRow(p))
	}
	if err := writeSheet(f, SheetProducts, products, "Product", "Quantity"); err != nil {
		return err
	}

	months := make([]ExcelExporter, 0, len(summary.Monthly))
	for _, m := range summary.Monthly {
		months = append(months, monthRow(m))
	}
	if err := writeSheet(f, SheetMonthly, months, "Month", "Revenue"); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, rows []ExcelExporter, headings ...string) error {
	for col, h := range headings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		for col, value := range row.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

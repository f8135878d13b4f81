// sales-report prints the sales summary of the configured ledger backend as JSON.
//
// Usage:
//
//	LEDGER_BACKEND=redis REDIS_ADDRESS=... go run ./cmd/sales-report -out summary.json -xlsx sales.xlsx
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/ledgerstore"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/models/reports"
	"bitbucket.org/mmdatafocus/storefront_backend/utils"
)

func main() {
	out := flag.String("out", "", "Write the summary JSON to this file instead of stdout")
	xlsx := flag.String("xlsx", "", "Also write the sales workbook to this path")
	timeout := flag.Duration("timeout", time.Minute, "How long to wait for the ledger backend")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := config.GetLogger()
	store, err := ledgerstore.Open(ctx, config.LedgerBackend(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger backend: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger := models.NewSalesLedger(store, logger, config.StoreLocation())
	ledger.Load(ctx)
	summary := reports.BuildSalesSummary(ledger)

	if *out != "" {
		if err := utils.WriteJSONFile(*out, summary); err != nil {
			fmt.Fprintf(os.Stderr, "write summary: %v\n", err)
			os.Exit(1)
		}
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "encode summary: %v\n", err)
			os.Exit(1)
		}
	}

	if *xlsx != "" {
		f, err := os.Create(*xlsx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create workbook: %v\n", err)
			os.Exit(1)
		}
		if err := reports.WriteSalesWorkbook(f, ledger); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "write workbook: %v\n", err)
			os.Exit(1)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close workbook: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "workbook written to %s\n", *xlsx)
	}
}

// ledger-clear discards every sale record in the configured ledger backend.
//
// Usage:
//
//	LEDGER_BACKEND=mysql DB_USER=... go run ./cmd/ledger-clear -yes
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/ledgerstore"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
)

func main() {
	yes := flag.Bool("yes", false, "Required: confirm that all sales should be deleted")
	timeout := flag.Duration("timeout", time.Minute, "How long to wait for the ledger backend")
	flag.Parse()

	if !*yes {
		fmt.Fprintln(os.Stderr, "set -yes to clear the sales ledger")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := config.GetLogger()
	backend := config.LedgerBackend()
	store, err := ledgerstore.Open(ctx, backend, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger backend: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger := models.NewSalesLedger(store, logger, config.StoreLocation())
	before := ledger.Load(ctx)

	result := ledger.ClearAll(ctx)
	if !result.OK() {
		fmt.Fprintf(os.Stderr, "clear failed: %v\n", result.Err)
		os.Exit(1)
	}
	fmt.Printf("cleared %d sale records from %s (%s)\n", before, backend, config.LedgerKey())
}

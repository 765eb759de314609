package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/models"
	"github.com/rogerio-castellano/stock-ledger/internal/repo"
)

const (
	sku           = "STRESS-SKU"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	store := repo.NewMemoryStore()
	if _, err := store.Create(models.StockItem{SKU: sku, Quantity: initialStock}); err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}
	engine := ledger.NewEngine(store)

	var successCount, conflictCount, failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := engine.Deduct(ctx, sku, 1, uuid.NewString())
			var insufficient *ledger.InsufficientStockError
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.As(err, &insufficient):
				conflictCount.Add(1)
			default:
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := store.GetBySKU(sku)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	_, total, err := repo.NewMemoryLedgerRepository(store).GetBySKU(sku, repo.LedgerFilter{})
	if err != nil {
		log.Fatalf("failed to read ledger: %v", err)
	}

	fmt.Println("========== STRESS RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Out of Stock:     %d\n", conflictCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Final Quantity:   %d\n", final.Quantity)
	fmt.Printf("Ledger Entries:   %d\n", total)
	fmt.Printf("Elapsed:          %v\n", elapsed)

	if int(successCount.Load()) != initialStock || final.Quantity != 0 {
		log.Fatalf("invariant violated: success=%d final=%d", successCount.Load(), final.Quantity)
	}
	fmt.Println("✅ No overselling, no lost updates")
}

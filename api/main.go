package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/stock-ledger/internal/config"
	"github.com/rogerio-castellano/stock-ledger/internal/db"
	api "github.com/rogerio-castellano/stock-ledger/internal/http"
	"github.com/rogerio-castellano/stock-ledger/internal/http/handlers"
	rl "github.com/rogerio-castellano/stock-ledger/internal/http/rate_limiter"
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/redissvc"
	"github.com/rogerio-castellano/stock-ledger/internal/repo"
)

// @title Stock Ledger API
// @version 1.0
// @description REST API for auditable stock deduction, restoration and low-stock alerting.
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.Load()

	rl.Configure(cfg.RateLimit, cfg.RateBurst)
	go rl.StartVisitorCleanupLoop()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Could not connect to Redis: %v", err)
		}
		defer rdb.Close()
		handlers.SetRedisService(redissvc.NewRedisService(rdb))
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Could not connect to database:", err)
	}
	defer database.Close()

	handlers.SetEngine(ledger.NewEngine(repo.NewPostgresStore(database)))
	handlers.SetItemRepo(repo.NewPostgresItemRepository(database))
	handlers.SetLedgerRepo(repo.NewPostgresLedgerRepository(database))
	handlers.SetAlertRepo(repo.NewPostgresAlertRepository(database))

	r := api.NewRouter()
	log.Println("✅ Server running on :" + cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

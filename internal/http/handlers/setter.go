package handlers

import (
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/redissvc"
	repo "github.com/rogerio-castellano/stock-ledger/internal/repo"
)

var (
	engine     *ledger.Engine
	itemRepo   repo.ItemRepository
	ledgerRepo repo.LedgerRepository
	alertRepo  repo.AlertRepository

	redisService *redissvc.RedisService
)

func SetEngine(e *ledger.Engine) {
	engine = e
}

func SetItemRepo(r repo.ItemRepository) {
	itemRepo = r
}

func SetLedgerRepo(r repo.LedgerRepository) {
	ledgerRepo = r
}

func SetAlertRepo(r repo.AlertRepository) {
	alertRepo = r
}

// SetRedisService enables the duplicate-request guard. Passing nil disables
// it.
func SetRedisService(rs *redissvc.RedisService) {
	redisService = rs
}

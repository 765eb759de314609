package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	handler "github.com/rogerio-castellano/stock-ledger/internal/http/handlers"
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/repo"
)

var store *repo.MemoryStore

func init() {
	setupTestRepos()
}

func setupTestRepos() {
	store = repo.NewMemoryStore()

	handler.SetEngine(ledger.NewEngine(store))
	handler.SetItemRepo(store)
	handler.SetLedgerRepo(repo.NewMemoryLedgerRepository(store))
	handler.SetAlertRepo(repo.NewMemoryAlertRepository(store))
	handler.SetRedisService(nil)
}

func clearAllItems() {
	store.Clear()
}

func doJSON(r http.Handler, method, url string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}

	req := httptest.NewRequest(method, url, &body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createItem(r http.Handler, item handler.ItemRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/items", item)
}

func deduct(r http.Handler, sku string, req handler.DeductRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/items/"+sku+"/deduct", req)
}

func restore(r http.Handler, sku string, req handler.RestoreRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/items/"+sku+"/restore", req)
}

func adjust(r http.Handler, sku string, req handler.AdjustRequest) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/items/"+sku+"/adjust", req)
}

func mustCreateItem(r http.Handler, item handler.ItemRequest) {
	if w := createItem(r, item); w.Code != http.StatusCreated {
		panic("failed to create test item " + item.SKU + ": " + w.Body.String())
	}
}

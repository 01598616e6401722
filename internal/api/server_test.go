package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dappmarket/marketplace-core/internal/api"
	"github.com/dappmarket/marketplace-core/internal/event"
	"github.com/dappmarket/marketplace-core/internal/funds"
	"github.com/dappmarket/marketplace-core/internal/marketplace"
	"github.com/dappmarket/marketplace-core/internal/registry"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	marketAddr = "0x00000000000000000000000000000000004d4b54"
	feeAccount = "0xfeefeefeefeefeefeefeefeefeefeefeefeefee0"
	seller     = "0x1111111111111111111111111111111111111111"
	buyer      = "0x2222222222222222222222222222222222222222"
)

func newRouter() *mux.Router {
	reg := registry.NewAssetRegistry(registry.NewStore())
	bank := funds.NewBank()
	ledger := marketplace.NewLedger(reg, bank, event.NewEmitter(), marketAddr, feeAccount, 1)

	return api.NewServer(reg, ledger, bank, nil).Router()
}

func do(t *testing.T, router *mux.Router, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// listed sets up a seller-owned asset listed at 200 and returns the router.
func listed(t *testing.T) *mux.Router {
	router := newRouter()

	rec := do(t, router, "POST", "/assets", seller, map[string]interface{}{"metadataUri": "uri"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "POST", "/approvals", seller, map[string]interface{}{"operator": marketAddr, "approved": true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "POST", "/items", seller, map[string]interface{}{"assetId": 1, "price": 200})
	require.Equal(t, http.StatusCreated, rec.Code)

	return router
}

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(), "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfig(t *testing.T) {
	rec := do(t, newRouter(), "GET", "/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, marketAddr, body["marketAddress"])
	assert.Equal(t, feeAccount, body["feeAccount"])
	assert.Equal(t, float64(1), body["feePercent"])
}

func TestMint(t *testing.T) {
	router := newRouter()

	rec := do(t, router, "POST", "/assets", seller, map[string]interface{}{"metadataUri": "uri"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]uint64
	decode(t, rec, &body)
	assert.Equal(t, uint64(1), body["assetId"])

	rec = do(t, router, "GET", "/assets/1/owner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var owner map[string]string
	decode(t, rec, &owner)
	assert.Equal(t, seller, owner["owner"])
}

func TestMint_MissingCaller(t *testing.T) {
	rec := do(t, newRouter(), "POST", "/assets", "", map[string]interface{}{"metadataUri": "uri"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAsset_Unknown(t *testing.T) {
	rec := do(t, newRouter(), "GET", "/assets/9", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListItem_TransfersCustody(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "GET", "/assets/1/owner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var owner map[string]string
	decode(t, rec, &owner)
	assert.Equal(t, marketAddr, owner["owner"])

	rec = do(t, router, "GET", "/items/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var item map[string]interface{}
	decode(t, rec, &item)
	assert.Equal(t, float64(1), item["itemId"])
	assert.Equal(t, float64(200), item["price"])
	assert.Equal(t, float64(202), item["totalPrice"])
	assert.Equal(t, seller, item["seller"])
	assert.Equal(t, false, item["sold"])
}

func TestListItem_WithoutApproval(t *testing.T) {
	router := newRouter()

	rec := do(t, router, "POST", "/assets", seller, map[string]interface{}{"metadataUri": "uri"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "POST", "/items", seller, map[string]interface{}{"assetId": 1, "price": 200})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListItem_ZeroPrice(t *testing.T) {
	router := newRouter()

	rec := do(t, router, "POST", "/assets", seller, map[string]interface{}{"metadataUri": "uri"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "POST", "/items", seller, map[string]interface{}{"assetId": 1, "price": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTotalPrice(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "GET", "/items/1/total-price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]uint64
	decode(t, rec, &body)
	assert.Equal(t, uint64(202), body["totalPrice"])
}

func TestGetTotalPrice_Unknown(t *testing.T) {
	rec := do(t, listed(t), "GET", "/items/9/total-price", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseItem(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "POST", "/faucet", buyer, map[string]interface{}{"amount": 202})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "POST", "/items/1/purchase", buyer, map[string]interface{}{"payment": 202})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "GET", "/assets/1/owner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var owner map[string]string
	decode(t, rec, &owner)
	assert.Equal(t, buyer, owner["owner"])

	rec = do(t, router, "GET", "/accounts/"+seller+"/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balance map[string]uint64
	decode(t, rec, &balance)
	assert.Equal(t, uint64(200), balance["balance"])
}

func TestPurchaseItem_InsufficientPayment(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "POST", "/faucet", buyer, map[string]interface{}{"amount": 202})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "POST", "/items/1/purchase", buyer, map[string]interface{}{"payment": 200})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestPurchaseItem_AlreadySold(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "POST", "/faucet", buyer, map[string]interface{}{"amount": 404})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "POST", "/items/1/purchase", buyer, map[string]interface{}{"payment": 202})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, "POST", "/items/1/purchase", buyer, map[string]interface{}{"payment": 202})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPurchaseItem_Unknown(t *testing.T) {
	rec := do(t, listed(t), "POST", "/items/9/purchase", buyer, map[string]interface{}{"payment": 202})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetItems(t *testing.T) {
	router := listed(t)

	rec := do(t, router, "GET", "/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]interface{}
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0]["itemId"])
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dappmarket/marketplace-core/internal/entity"
	"github.com/dappmarket/marketplace-core/internal/funds"
	"github.com/dappmarket/marketplace-core/internal/marketplace"
	"github.com/dappmarket/marketplace-core/internal/metadata"
	"github.com/dappmarket/marketplace-core/internal/registry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CallerHeader carries the authenticated principal supplied by the wallet
// layer. The core treats it as opaque.
const CallerHeader = "X-Caller-Address"

type Server struct {
	registry registry.AssetRegistry
	ledger   marketplace.Ledger
	bank     *funds.Bank
	metadata metadata.Service
}

func NewServer(
	assetRegistry registry.AssetRegistry,
	ledger marketplace.Ledger,
	bank *funds.Bank,
	metadataService metadata.Service,
) Server {
	return Server{assetRegistry, ledger, bank, metadataService}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/config", s.handleConfig).Methods("GET")

	r.HandleFunc("/assets", s.handleMint).Methods("POST")
	r.HandleFunc("/assets/{assetId}", s.handleGetAsset).Methods("GET")
	r.HandleFunc("/assets/{assetId}/owner", s.handleOwnerOf).Methods("GET")
	r.HandleFunc("/approvals", s.handleSetApproval).Methods("POST")

	r.HandleFunc("/items", s.handleListItem).Methods("POST")
	r.HandleFunc("/items", s.handleGetItems).Methods("GET")
	r.HandleFunc("/items/{itemId}", s.handleGetItem).Methods("GET")
	r.HandleFunc("/items/{itemId}/total-price", s.handleGetTotalPrice).Methods("GET")
	r.HandleFunc("/items/{itemId}/purchase", s.handlePurchaseItem).Methods("POST")

	r.HandleFunc("/accounts/{address}/balance", s.handleGetBalance).Methods("GET")
	r.HandleFunc("/faucet", s.handleFaucet).Methods("POST")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]interface{}{
		"marketAddress": s.ledger.Address(),
		"feeAccount":    s.ledger.FeeAccount(),
		"feePercent":    s.ledger.FeePercent(),
	})
}

type mintRequest struct {
	MetadataUri string `json:"metadataUri"`
}

func (s Server) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := getCaller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if !decodeBody(w, r, &req) {
		return
	}

	assetId := s.registry.Mint(req.MetadataUri, caller)

	writeJson(w, http.StatusCreated, map[string]interface{}{"assetId": assetId})
}

func (s Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetId, err := pathId(r, "assetId")
	if err != nil {
		http.Error(w, "Invalid asset id", http.StatusBadRequest)
		return
	}

	asset, err := s.registry.Asset(assetId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, asset)
}

func (s Server) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	assetId, err := pathId(r, "assetId")
	if err != nil {
		http.Error(w, "Invalid asset id", http.StatusBadRequest)
		return
	}

	owner, err := s.registry.OwnerOf(assetId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]string{"owner": owner})
}

type approvalRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (s Server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	caller, ok := getCaller(w, r)
	if !ok {
		return
	}

	var req approvalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.registry.SetApprovalForAll(caller, req.Operator, req.Approved)

	w.WriteHeader(http.StatusNoContent)
}

type listItemRequest struct {
	AssetId uint64 `json:"assetId"`
	Price   uint64 `json:"price"`
}

func (s Server) handleListItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := getCaller(w, r)
	if !ok {
		return
	}

	var req listItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	itemId, err := s.ledger.ListItem(req.AssetId, req.Price, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusCreated, map[string]interface{}{"itemId": itemId})
}

type itemView struct {
	entity.Item
	TotalPrice uint64             `json:"totalPrice"`
	Metadata   *metadata.Metadata `json:"metadata,omitempty"`
}

func (s Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	count := s.ledger.ItemCount()
	views := make([]itemView, 0, count)

	for itemId := uint64(1); itemId <= count; itemId++ {
		item, err := s.ledger.Item(itemId)
		if err != nil {
			continue
		}
		views = append(views, s.view(item))
	}

	writeJson(w, http.StatusOK, views)
}

func (s Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemId, err := pathId(r, "itemId")
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	item, err := s.ledger.Item(itemId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, s.view(item))
}

func (s Server) handleGetTotalPrice(w http.ResponseWriter, r *http.Request) {
	itemId, err := pathId(r, "itemId")
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	total, err := s.ledger.GetTotalPrice(itemId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]uint64{"totalPrice": total})
}

type purchaseRequest struct {
	Payment uint64 `json:"payment"`
}

func (s Server) handlePurchaseItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := getCaller(w, r)
	if !ok {
		return
	}

	itemId, err := pathId(r, "itemId")
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	var req purchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.ledger.PurchaseItem(itemId, req.Payment, caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	writeJson(w, http.StatusOK, map[string]uint64{"balance": s.bank.BalanceOf(address)})
}

type faucetRequest struct {
	Amount uint64 `json:"amount"`
}

// handleFaucet funds an account on the in-process bank. Development surface
// only; real deployments take the Transferer from the wallet layer.
func (s Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	caller, ok := getCaller(w, r)
	if !ok {
		return
	}

	var req faucetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.bank.Deposit(caller, req.Amount)

	w.WriteHeader(http.StatusNoContent)
}

func (s Server) view(item entity.Item) itemView {
	view := itemView{Item: item, TotalPrice: item.Price + item.Price*s.ledger.FeePercent()/100}

	asset, err := s.registry.Asset(item.AssetId)
	if err != nil {
		return view
	}

	if s.metadata != nil {
		if md, err := s.metadata.GetMetadata(asset.MetadataUri); err == nil {
			view.Metadata = &md
		}
	}

	return view
}

func getCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(CallerHeader)
	if caller == "" {
		http.Error(w, "Missing caller address", http.StatusUnauthorized)
		return "", false
	}

	return caller, true
}

func pathId(r *http.Request, name string) (uint64, error) {
	value, ok := mux.Vars(r)[name]
	if !ok {
		return 0, errors.New("invalid parameters")
	}

	return strconv.ParseUint(value, 10, 64)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	return true
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, marketplace.ErrItemNotFound), errors.Is(err, registry.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrOwnerMismatch), errors.Is(err, marketplace.ErrAlreadySold):
		return http.StatusConflict
	case errors.Is(err, marketplace.ErrInsufficientPayment), errors.Is(err, funds.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "Page not found")
	})
}

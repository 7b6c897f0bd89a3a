package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/core/service"
	"github.com/rqhall/cowchain-farm/internal/port"
)

// signatureHeader carries the HMAC proof for the principal named in the
// request body (or path, for reads that require authorization).
const signatureHeader = "X-Signature"

type HTTPHandler struct {
	farm *service.FarmService
	auth port.Authenticator
}

func NewHTTPHandler(farm *service.FarmService, auth port.Authenticator) *HTTPHandler {
	return &HTTPHandler{farm: farm, auth: auth}
}

func (h *HTTPHandler) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/init", h.Init).Methods("POST")
	api.HandleFunc("/config/extend", h.ExtendConfigLifetime).Methods("POST")
	api.HandleFunc("/donate", h.Donate).Methods("POST")
	api.HandleFunc("/cows/buy", h.Buy).Methods("POST")
	api.HandleFunc("/cows/sell", h.Sell).Methods("POST")
	api.HandleFunc("/cows/feed", h.Feed).Methods("POST")
	api.HandleFunc("/cows/appraise/{id}", h.Appraise).Methods("GET")
	api.HandleFunc("/cows/{user}", h.ListCows).Methods("GET")
	api.HandleFunc("/auctions/register", h.RegisterAuction).Methods("POST")
	api.HandleFunc("/auctions/bid", h.Bid).Methods("POST")
	api.HandleFunc("/auctions/finalize", h.Finalize).Methods("POST")
	api.HandleFunc("/auctions", h.ListAuctions).Methods("GET")

	return router
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type initRequest struct {
	Admin        string `json:"admin"`
	PaymentToken string `json:"payment_token"`
	Passphrase   string `json:"passphrase"`
}

type extendRequest struct {
	Actor string `json:"actor"`
	Ticks uint64 `json:"ticks"`
}

type donateRequest struct {
	From   string `json:"from"`
	Amount int64  `json:"amount"`
}

type buyRequest struct {
	User  string `json:"user"`
	Name  string `json:"name"`
	Breed string `json:"breed"`
	ID    string `json:"id"`
}

type cowActionRequest struct {
	User string `json:"user"`
	ID   string `json:"id"`
}

type registerAuctionRequest struct {
	User       string `json:"user"`
	CowID      string `json:"cow_id"`
	AuctionID  string `json:"auction_id"`
	StartPrice int64  `json:"start_price"`
}

type bidRequest struct {
	User      string `json:"user"`
	AuctionID string `json:"auction_id"`
	Price     int64  `json:"price"`
}

type finalizeRequest struct {
	AuctionID string `json:"auction_id"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.farm.HealthCheck(r.Context()))
}

func (h *HTTPHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.Admin }) {
		return
	}

	result, err := h.farm.Init(r.Context(), req.Admin, req.PaymentToken, req.Passphrase)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) ExtendConfigLifetime(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.Actor }) {
		return
	}

	result, err := h.farm.ExtendConfigLifetime(r.Context(), req.Actor, req.Ticks)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Donate(w http.ResponseWriter, r *http.Request) {
	var req donateRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.From }) {
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "amount must be positive"})
		return
	}

	result, err := h.farm.Donate(r.Context(), req.From, req.Amount)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.User }) {
		return
	}
	if req.User == "" || req.Name == "" || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "missing required fields"})
		return
	}
	breed := domain.Breed(req.Breed)
	if !breed.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "unknown breed"})
		return
	}

	result, err := h.farm.Buy(r.Context(), req.User, req.Name, breed, req.ID)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req cowActionRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.User }) {
		return
	}

	result, err := h.farm.Sell(r.Context(), req.User, req.ID)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var req cowActionRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.User }) {
		return
	}

	result, err := h.farm.Feed(r.Context(), req.User, req.ID)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Appraise(w http.ResponseWriter, r *http.Request) {
	result, err := h.farm.Appraise(r.Context(), mux.Vars(r)["id"])
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) ListCows(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	if err := h.auth.Verify(user, r.Header.Get(signatureHeader), nil); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Status: "error", Message: "unauthorized"})
		return
	}

	result, err := h.farm.ListCows(r.Context(), user)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) RegisterAuction(w http.ResponseWriter, r *http.Request) {
	var req registerAuctionRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.User }) {
		return
	}
	if req.StartPrice <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "start price must be positive"})
		return
	}

	result, err := h.farm.RegisterAuction(r.Context(), req.User, req.CowID, req.AuctionID, req.StartPrice)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Bid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if !h.decodeSigned(w, r, &req, func() string { return req.User }) {
		return
	}

	result, err := h.farm.Bid(r.Context(), req.User, req.AuctionID, req.Price)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	// Anyone may finalize a closed auction; there is no principal to verify.
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request body"})
		return
	}

	result, err := h.farm.Finalize(r.Context(), req.AuctionID)
	h.respond(w, result.Status, result, err)
}

func (h *HTTPHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	result, err := h.farm.ListAuctions(r.Context())
	h.respond(w, result.Status, result, err)
}

// decodeSigned reads the body, decodes the JSON request, and verifies the
// caller's signature over the raw bytes. A failed verification aborts
// before any core logic runs.
func (h *HTTPHandler) decodeSigned(w http.ResponseWriter, r *http.Request, req any, principal func() string) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "unreadable request body"})
		return false
	}
	if err := json.Unmarshal(body, req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request body"})
		return false
	}
	if err := h.auth.Verify(principal(), r.Header.Get(signatureHeader), body); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Status: "error", Message: "unauthorized"})
		return false
	}
	return true
}

func (h *HTTPHandler) respond(w http.ResponseWriter, status domain.Status, result any, err error) {
	if err != nil {
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: "internal error"})
		return
	}
	writeJSON(w, httpStatus(status), result)
}

func httpStatus(status domain.Status) int {
	switch status {
	case domain.StatusOk:
		return http.StatusOK
	case domain.StatusNotFound:
		return http.StatusNotFound
	case domain.StatusDuplicate, domain.StatusAlreadyInitialized, domain.StatusOnAuction,
		domain.StatusUnderage, domain.StatusFullStomach, domain.StatusBidIsOpen,
		domain.StatusBidIsClosed, domain.StatusCannotBidLower:
		return http.StatusConflict
	case domain.StatusInsufficientFund:
		return http.StatusPaymentRequired
	case domain.StatusMissingOwnership, domain.StatusTryAgain:
		return http.StatusForbidden
	case domain.StatusNotInitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

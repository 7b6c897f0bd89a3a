package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rqhall/cowchain-farm/internal/adapter/auth"
	"github.com/rqhall/cowchain-farm/internal/adapter/payment"
	"github.com/rqhall/cowchain-farm/internal/adapter/storage"
	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/core/service"
)

const (
	testSecret     = "handler-secret"
	testPassphrase = "correct-horse"
)

type manualClock struct {
	tick uint64
}

func (c *manualClock) Now() uint64 { return c.tick }

type testServer struct {
	router http.Handler
	ledger *payment.MemoryLedger
	clock  *manualClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := &manualClock{tick: 1}
	ledger := payment.NewMemoryLedger()
	farm := service.NewFarmService(storage.NewMemoryStore(clk), ledger, clk, "farm-custody", testPassphrase, 64)
	t.Cleanup(farm.Close)
	go func() {
		for range farm.Events() {
		}
	}()

	h := NewHTTPHandler(farm, auth.NewHMACAuthenticator(testSecret))
	return &testServer{router: h.Routes(), ledger: ledger, clock: clk}
}

// post sends a signed JSON request on behalf of principal and decodes the
// response body into out (when out is non-nil).
func (s *testServer) post(t *testing.T, path, principal string, req any, out any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest("POST", path, bytes.NewReader(body))
	httpReq.Header.Set(signatureHeader, auth.Sign(testSecret, principal, body))

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httpReq)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec
}

func (s *testServer) initFarm(t *testing.T) {
	t.Helper()
	req := map[string]string{"admin": "admin", "payment_token": "native-token", "passphrase": testPassphrase}
	rec := s.post(t, "/api/init", "admin", req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("init returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var result service.StatusResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Status != domain.StatusOk {
		t.Errorf("status = %s, want ok", result.Status)
	}
}

func TestBuyEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.initFarm(t)
	srv.ledger.SetBalance(context.Background(), "alice", 100_000*domain.MicroUnitsPerUnit)

	req := map[string]any{"user": "alice", "name": "bessie", "breed": "jersey", "id": "c1"}
	var result service.BuyResult
	rec := srv.post(t, "/api/cows/buy", "alice", req, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if result.Status != domain.StatusOk {
		t.Errorf("status = %s, want ok", result.Status)
	}
	if result.Cow == nil || result.Cow.Name != "bessie" {
		t.Errorf("cow = %+v", result.Cow)
	}

	// A duplicate name maps to 409.
	req["id"] = "c2"
	rec = srv.post(t, "/api/cows/buy", "alice", req, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestBuyEndpoint_Validation(t *testing.T) {
	srv := newTestServer(t)
	srv.initFarm(t)

	req := map[string]any{"user": "alice", "name": "bessie", "breed": "unicorn", "id": "c1"}
	rec := srv.post(t, "/api/cows/buy", "alice", req, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown breed status = %d, want 400", rec.Code)
	}

	req = map[string]any{"user": "alice", "breed": "jersey"}
	rec = srv.post(t, "/api/cows/buy", "alice", req, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields status = %d, want 400", rec.Code)
	}
}

func TestSignatureRequired(t *testing.T) {
	srv := newTestServer(t)
	srv.initFarm(t)

	body, _ := json.Marshal(map[string]any{"user": "alice", "name": "bessie", "breed": "jersey", "id": "c1"})

	// No signature at all.
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/cows/buy", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unsigned status = %d, want 401", rec.Code)
	}

	// A signature from a different principal.
	httpReq := httptest.NewRequest("POST", "/api/cows/buy", bytes.NewReader(body))
	httpReq.Header.Set(signatureHeader, auth.Sign(testSecret, "mallory", body))
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httpReq)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("cross-principal status = %d, want 401", rec.Code)
	}
}

func TestListCowsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.initFarm(t)
	srv.ledger.SetBalance(context.Background(), "alice", 100_000*domain.MicroUnitsPerUnit)

	req := map[string]any{"user": "alice", "name": "bessie", "breed": "jersey", "id": "c1"}
	srv.post(t, "/api/cows/buy", "alice", req, nil)

	// Listing requires a signature over the bare principal.
	httpReq := httptest.NewRequest("GET", "/api/cows/alice", nil)
	httpReq.Header.Set(signatureHeader, auth.Sign(testSecret, "alice", nil))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httpReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result service.ListCowsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Cows) != 1 || result.Cows[0].ID != "c1" {
		t.Errorf("cows = %+v", result.Cows)
	}

	// Without a valid signature the herd stays private.
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/cows/alice", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unsigned list status = %d, want 401", rec.Code)
	}
}

func TestAuctionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	srv.initFarm(t)
	srv.ledger.SetBalance(context.Background(), "alice", 100_000*domain.MicroUnitsPerUnit)
	srv.ledger.SetBalance(context.Background(), "bob", 100_000*domain.MicroUnitsPerUnit)

	buy := map[string]any{"user": "alice", "name": "bessie", "breed": "jersey", "id": "c1"}
	srv.post(t, "/api/cows/buy", "alice", buy, nil)

	register := map[string]any{"user": "alice", "cow_id": "c1", "auction_id": "a1", "start_price": 500}
	var regResult service.AuctionResult
	rec := srv.post(t, "/api/auctions/register", "alice", register, &regResult)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	bid := map[string]any{"user": "bob", "auction_id": "a1", "price": 600}
	rec = srv.post(t, "/api/auctions/bid", "bob", bid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bid status = %d: %s", rec.Code, rec.Body.String())
	}

	lowBid := map[string]any{"user": "bob", "auction_id": "a1", "price": 600}
	rec = srv.post(t, "/api/auctions/bid", "bob", lowBid, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("low bid status = %d, want 409", rec.Code)
	}

	// Finalizing too early conflicts; after the window it settles.
	finalize := map[string]any{"auction_id": "a1"}
	rec = srv.post(t, "/api/auctions/finalize", "", finalize, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("early finalize status = %d, want 409", rec.Code)
	}

	srv.clock.tick += domain.TicksIn12Hours + 1
	rec = srv.post(t, "/api/auctions/finalize", "", finalize, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.post(t, "/api/auctions/finalize", "", finalize, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("re-finalize status = %d, want 404", rec.Code)
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/reloop-exchange/reloop/internal/app/purchase"
	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/proofchain"
	"github.com/reloop-exchange/reloop/internal/infra/sqlite"
)

// ─── API Tests ──────────────────────────────────────────────────────────────

type apiFixture struct {
	server   *Server
	db       *sqlite.DB
	buyerID  int64
	sellerID int64
	matID    int64
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sellerID, _ := db.InsertAccount("EcoSteel GmbH", "Seller", "Hamburg")
	buyerID, _ := db.InsertAccount("GreenFab Ltd", "Buyer", "Rotterdam")
	matID, err := db.InsertMaterial(domain.Material{
		OwnerID:         sellerID,
		Name:            "Copper Scrap",
		Category:        domain.CategoryMetal,
		QuantityGrams:   10_000,
		PriceCentsPerKg: 500,
	})
	if err != nil {
		t.Fatalf("insert material: %v", err)
	}

	stores := purchase.Stores{
		Inventory: db,
		Unit:      db,
		Ledger:    db,
		Reports:   db,
		Proofs:    db,
		Accounts:  db,
	}
	writer := proofchain.NewWriter(db, proofchain.LocalBackend{}, time.Second)
	coordinator := purchase.New(purchase.DefaultConfig(), stores, writer)
	t.Cleanup(coordinator.Close)

	return &apiFixture{
		server:   NewServer(coordinator, purchase.NewAssembler(stores), db, db),
		db:       db,
		buyerID:  buyerID,
		sellerID: sellerID,
		matID:    matID,
	}
}

func TestAPI_Health(t *testing.T) {
	f := setupAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPI_Purchase(t *testing.T) {
	f := setupAPI(t)
	body := `{"material_id": 1, "buyer_id": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["transaction_id"] == float64(0) {
		t.Error("transaction_id missing")
	}
	if resp["proof_status"] != "CONFIRMED" {
		t.Errorf("proof_status = %v, want CONFIRMED", resp["proof_status"])
	}
}

func TestAPI_Purchase_SoldReturnsConflict(t *testing.T) {
	f := setupAPI(t)
	body := `{"material_id": 1, "buyer_id": 2}`

	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first purchase: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("second purchase: expected 409, got %d", w.Code)
	}
}

func TestAPI_Purchase_SelfPurchase(t *testing.T) {
	f := setupAPI(t)
	body := `{"material_id": 1, "buyer_id": 1}` // seller buying own listing
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestAPI_Purchase_BadBody(t *testing.T) {
	f := setupAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAPI_Certificate(t *testing.T) {
	f := setupAPI(t)

	body := `{"material_id": 1, "buyer_id": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("purchase: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/certificates/1", nil)
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("certificate: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view domain.CertificateView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.BuyerName != "GreenFab Ltd" {
		t.Errorf("buyer = %q, want GreenFab Ltd", view.BuyerName)
	}
	if view.TotalCents != 5000 {
		t.Errorf("total = %d, want 5000", view.TotalCents)
	}
}

func TestAPI_Certificate_NotFound(t *testing.T) {
	f := setupAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/certificates/404", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAPI_Materials(t *testing.T) {
	f := setupAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/materials", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Materials []domain.Material `json:"materials"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Materials) != 1 {
		t.Errorf("materials = %d, want 1", len(resp.Materials))
	}
}

func TestAPI_LedgerVerify(t *testing.T) {
	f := setupAPI(t)

	// Two purchases → two chained entries.
	matID2, _ := f.db.InsertMaterial(domain.Material{
		OwnerID:         f.sellerID,
		Name:            "Steel Offcuts",
		Category:        domain.CategoryIndustrial,
		QuantityGrams:   5_000,
		PriceCentsPerKg: 300,
	})
	for _, id := range []int64{f.matID, matID2} {
		body := `{"material_id": ` + strconv.FormatInt(id, 10) + `, "buyer_id": 2}`
		req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
		w := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("purchase %d: expected 200, got %d", id, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/verify", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["valid"] != true {
		t.Errorf("valid = %v, want true: %s", resp["valid"], w.Body.String())
	}
	if resp["entries"] != float64(2) {
		t.Errorf("entries = %v, want 2", resp["entries"])
	}
}

package proofchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/sqlite"
)

func newTestLedger(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testPayload = domain.ProofPayload{
	Buyer:       "GreenFab Ltd",
	Seller:      "EcoSteel GmbH",
	Material:    "Copper Scrap",
	AmountCents: 5000,
}

// ─── Payload Encoding ───────────────────────────────────────────────────────

func TestEncodePayload_Deterministic(t *testing.T) {
	a := EncodePayload(testPayload)
	b := EncodePayload(testPayload)
	if string(a) != string(b) {
		t.Errorf("identical payloads encoded differently: %q vs %q", a, b)
	}
}

func TestEncodePayload_DistinctPayloadsDiffer(t *testing.T) {
	other := testPayload
	other.AmountCents = 5001
	if string(EncodePayload(testPayload)) == string(EncodePayload(other)) {
		t.Error("distinct payloads must not encode identically")
	}
}

// ─── Local Backend ──────────────────────────────────────────────────────────

func TestLocalBackend_StableHash(t *testing.T) {
	var b LocalBackend
	h1, err := b.Submit(context.Background(), testPayload)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	h2, _ := b.Submit(context.Background(), testPayload)
	if h1 != h2 {
		t.Errorf("hash not stable: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestLocalBackend_DistinctPayloads(t *testing.T) {
	var b LocalBackend
	h1, _ := b.Submit(context.Background(), testPayload)
	other := testPayload
	other.Material = "Aluminium Scrap"
	h2, _ := b.Submit(context.Background(), other)
	if h1 == h2 {
		t.Error("distinct payloads hashed identically")
	}
}

// ─── Remote Backend ─────────────────────────────────────────────────────────

func TestRemoteBackend_Submit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions" {
			t.Errorf("path = %q, want /transactions", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hash":"0xabc123"}`))
	}))
	defer srv.Close()

	b := NewRemoteBackend(srv.URL, time.Second)
	hash, err := b.Submit(context.Background(), testPayload)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if hash != "0xabc123" {
		t.Errorf("hash = %q, want 0xabc123", hash)
	}
}

func TestRemoteBackend_Unreachable(t *testing.T) {
	b := NewRemoteBackend("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := b.Submit(context.Background(), testPayload); !errors.Is(err, domain.ErrProofBackendDown) {
		t.Errorf("error = %v, want ErrProofBackendDown", err)
	}
}

func TestRemoteBackend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewRemoteBackend(srv.URL, time.Second)
	if _, err := b.Submit(context.Background(), testPayload); !errors.Is(err, domain.ErrProofBackendDown) {
		t.Errorf("error = %v, want ErrProofBackendDown", err)
	}
}

// ─── Writer ─────────────────────────────────────────────────────────────────

func TestWriter_AppendRecordsEntry(t *testing.T) {
	db := newTestLedger(t)
	w := NewWriter(db, LocalBackend{}, time.Second)

	hash, err := w.Append(context.Background(), 1, testPayload)
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entry, err := db.GetProof(1)
	if err != nil {
		t.Fatalf("GetProof() error: %v", err)
	}
	if entry == nil {
		t.Fatal("entry not recorded")
	}
	if entry.CurrHash != hash {
		t.Errorf("curr_hash = %q, want %q", entry.CurrHash, hash)
	}
	if entry.PrevHash != domain.GenesisHash {
		t.Errorf("prev_hash = %q, want GENESIS", entry.PrevHash)
	}
}

func TestWriter_AppendIdempotent(t *testing.T) {
	db := newTestLedger(t)
	w := NewWriter(db, LocalBackend{}, time.Second)

	h1, err := w.Append(context.Background(), 1, testPayload)
	if err != nil {
		t.Fatalf("first Append() error: %v", err)
	}
	// Simulate a retry after a timeout on the caller's side.
	h2, err := w.Append(context.Background(), 1, testPayload)
	if err != nil {
		t.Fatalf("retry Append() error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("retry hash = %q, want %q", h2, h1)
	}

	entries, _ := db.ListProofs()
	if len(entries) != 1 {
		t.Errorf("entries = %d, want exactly 1", len(entries))
	}
}

func TestWriter_ConcurrentAppendsDistinctTransactions(t *testing.T) {
	db := newTestLedger(t)
	w := NewWriter(db, LocalBackend{}, time.Second)

	// A purchase burst: every transaction gets its own proof writer.
	// None may fail on write contention, and the chain must not fork.
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		id := int64(i + 1)
		p := testPayload
		p.AmountCents = id * 100
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Append(context.Background(), id, p)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Append() error: %v", err)
		}
	}

	entries, err := db.ListProofs()
	if err != nil {
		t.Fatalf("ListProofs() error: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("entries = %d, want %d", len(entries), workers)
	}
	if err := VerifyChain(entries); err != nil {
		t.Errorf("VerifyChain() error: %v", err)
	}
}

type failingBackend struct{}

func (failingBackend) Submit(context.Context, domain.ProofPayload) (string, error) {
	return "", domain.ErrProofBackendDown
}

func TestWriter_BackendFailureLeavesNoEntry(t *testing.T) {
	db := newTestLedger(t)
	w := NewWriter(db, failingBackend{}, time.Second)

	if _, err := w.Append(context.Background(), 1, testPayload); err == nil {
		t.Fatal("expected backend failure")
	}
	entries, _ := db.ListProofs()
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0 after failure", len(entries))
	}
}

// ─── Chain Verification ─────────────────────────────────────────────────────

func TestVerifyChain_Valid(t *testing.T) {
	db := newTestLedger(t)
	w := NewWriter(db, LocalBackend{}, time.Second)

	for i := int64(1); i <= 3; i++ {
		p := testPayload
		p.AmountCents = i * 100
		if _, err := w.Append(context.Background(), i, p); err != nil {
			t.Fatalf("Append(%d) error: %v", i, err)
		}
	}

	entries, _ := db.ListProofs()
	if err := VerifyChain(entries); err != nil {
		t.Errorf("VerifyChain() error: %v", err)
	}
}

func TestVerifyChain_BrokenLink(t *testing.T) {
	entries := []domain.ProofChainEntry{
		{TransactionID: 1, PrevHash: domain.GenesisHash, CurrHash: "a"},
		{TransactionID: 2, PrevHash: "tampered", CurrHash: "b"},
	}
	if err := VerifyChain(entries); !errors.Is(err, domain.ErrChainBroken) {
		t.Errorf("error = %v, want ErrChainBroken", err)
	}
}

func TestVerifyChain_Empty(t *testing.T) {
	if err := VerifyChain(nil); err != nil {
		t.Errorf("empty chain should verify, got %v", err)
	}
}

package proofchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Local Backend ──────────────────────────────────────────────────────────

// LocalBackend derives the proof hash as a SHA-256 content hash of the
// canonical payload. Used when no external ledger node is configured.
type LocalBackend struct{}

// Submit hashes the payload locally. Never fails and never blocks.
func (LocalBackend) Submit(_ context.Context, payload domain.ProofPayload) (string, error) {
	return domain.SHA256Hex(EncodePayload(payload)), nil
}

// ─── Remote Backend ─────────────────────────────────────────────────────────

// RemoteBackend submits the payload as opaque transaction data to an
// external ledger node over HTTP and uses the returned transaction hash
// as the proof hash. Submission may block for a network round trip plus
// confirmation wait, bounded by the configured timeout.
type RemoteBackend struct {
	endpoint string
	client   *http.Client
}

// NewRemoteBackend creates a backend for the given ledger node endpoint.
func NewRemoteBackend(endpoint string, timeout time.Duration) *RemoteBackend {
	return &RemoteBackend{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	RequestID   string `json:"request_id"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	Material    string `json:"material"`
	AmountCents int64  `json:"amount_cents"`
}

type submitResponse struct {
	Hash string `json:"hash"`
}

// Submit posts the payload to the ledger node and awaits its transaction
// hash. The request id is for backend-side tracing only; it is not part
// of the hashed content.
func (b *RemoteBackend) Submit(ctx context.Context, payload domain.ProofPayload) (string, error) {
	body, err := json.Marshal(submitRequest{
		RequestID:   uuid.NewString(),
		Buyer:       payload.Buyer,
		Seller:      payload.Seller,
		Material:    payload.Material,
		AmountCents: payload.AmountCents,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProofBackendDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ledger node returned %d", domain.ErrProofBackendDown, resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("ledger node returned empty hash")
	}
	return out.Hash, nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/proofchain"
)

// ─── Purchase Endpoint ──────────────────────────────────────────────────────
// POST /api/purchases
//
// A purchase either clearly fails before any record exists, or it
// succeeds with a transaction id; proof confirmation is communicated as a
// separate, possibly-delayed status in the response body.

type purchaseRequest struct {
	MaterialID int64 `json:"material_id"`
	BuyerID    int64 `json:"buyer_id"`
}

type purchaseResponse struct {
	TransactionID int64  `json:"transaction_id"`
	ProofStatus   string `json:"proof_status"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaterialID <= 0 || req.BuyerID <= 0 {
		writeError(w, http.StatusBadRequest, "material_id and buyer_id are required")
		return
	}

	res, err := s.coordinator.Purchase(r.Context(), req.MaterialID, req.BuyerID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, purchaseResponse{
			TransactionID: res.TransactionID,
			ProofStatus:   res.Proof.String(),
		})
	case errors.Is(err, domain.ErrMaterialUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSelfPurchase):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ─── Certificate Endpoint ───────────────────────────────────────────────────
// GET /api/certificates/{transactionID}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	view, err := s.assembler.Assemble(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, domain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ─── Market Endpoint ────────────────────────────────────────────────────────
// GET /api/materials

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.inventory.ListAvailable()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if materials == nil {
		materials = []domain.Material{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"materials": materials,
	})
}

// ─── Ledger Endpoints ───────────────────────────────────────────────────────
// GET /api/ledger
// GET /api/ledger/verify

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.proofs.ListProofs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.ProofChainEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

func (s *Server) handleLedgerVerify(w http.ResponseWriter, r *http.Request) {
	entries, err := s.proofs.ListProofs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := proofchain.VerifyChain(entries); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":   false,
			"entries": len(entries),
			"reason":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"entries": len(entries),
	})
}

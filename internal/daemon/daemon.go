package daemon

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reloop-exchange/reloop/internal/api"
	"github.com/reloop-exchange/reloop/internal/app/purchase"
	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/observability"
	"github.com/reloop-exchange/reloop/internal/infra/proofchain"
	"github.com/reloop-exchange/reloop/internal/infra/sqlite"
)

// Daemon is the assembled reloop service.
type Daemon struct {
	cfg         Config
	db          *sqlite.DB
	coordinator *purchase.Coordinator
	server      *http.Server
}

// New opens the stores and wires the coordinator and HTTP server.
func New(cfg Config, home string) (*Daemon, error) {
	db, err := sqlite.Open(cfg.DataDir(home))
	if err != nil {
		return nil, err
	}

	var backend domain.ProofBackend
	if cfg.Proof.Endpoint != "" {
		backend = proofchain.NewRemoteBackend(cfg.Proof.Endpoint, cfg.Proof.SubmitTimeoutDuration())
		log.Printf("proof backend: ledger node at %s", cfg.Proof.Endpoint)
	} else {
		backend = proofchain.LocalBackend{}
		log.Printf("proof backend: local content hash")
	}

	stores := purchase.Stores{
		Inventory: db,
		Unit:      db,
		Ledger:    db,
		Reports:   db,
		Proofs:    db,
		Accounts:  db,
	}
	writer := proofchain.NewWriter(db, backend, cfg.Proof.SubmitTimeoutDuration())

	// Seed the chain length gauge from the persisted ledger.
	if entries, err := db.ListProofs(); err == nil {
		observability.ProofChainLength.Set(float64(len(entries)))
	}

	coordCfg := purchase.Config{
		ProofGraceWindow: cfg.Proof.GraceWindowDuration(),
		RetryBatch:       cfg.Proof.RetryBatch,
	}
	coordinator := purchase.New(coordCfg, stores, writer)

	srv := api.NewServer(coordinator, purchase.NewAssembler(stores), db, db)
	if cfg.Metrics.Enabled {
		srv.EnableMetrics()
	}

	return &Daemon{
		cfg:         cfg,
		db:          db,
		coordinator: coordinator,
		server: &http.Server{
			Addr:    cfg.API.Addr(),
			Handler: srv.Handler(),
		},
	}, nil
}

// Run serves until the context is cancelled or an interrupt arrives,
// then shuts down gracefully. The reconciliation sweep runs in the
// background, re-submitting proofs for transactions that have none.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go d.reconcileLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("reloop listening on %s", d.server.Addr)
		if err := d.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	d.coordinator.Close()
	return d.db.Close()
}

// reconcileLoop periodically retries proof submission for transactions
// stuck in the pending state.
func (d *Daemon) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Proof.RetryIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.coordinator.RetryPending(ctx)
			if err != nil {
				log.Printf("reconcile: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reconcile: recorded %d pending proofs", n)
			}
		}
	}
}

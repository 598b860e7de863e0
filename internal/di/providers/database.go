package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/logger"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the entity store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the badger entity store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	db, err := store.New(cfg.EntityStorePath(), log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Entity store initialized", "path", cfg.EntityStorePath())

	return &StoreHandle{Store: db}, nil
}

// LedgerHandle wraps the stake ledger with shutdown capability.
type LedgerHandle struct {
	*ledger.Store
}

// Shutdown implements do.Shutdownable.
func (h *LedgerHandle) Shutdown() error {
	return h.Close()
}

// ProvideLedger provides the append-only stake ledger.
func ProvideLedger(i do.Injector) (*LedgerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := ledger.Open(cfg.LedgerPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Stake ledger opened", "path", cfg.LedgerPath())

	return &LedgerHandle{Store: db}, nil
}

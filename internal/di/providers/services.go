package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/logger"
	"github.com/stackedapp/stacked-server/internal/ratelimit"
	"github.com/stackedapp/stacked-server/internal/service"
)

// SignalServiceHandle wraps the signal service with its sweeper lifecycle.
type SignalServiceHandle struct {
	*service.SignalService
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SignalServiceHandle) Shutdown() error {
	h.cancel()
	h.Stop()
	return nil
}

// ProvideSignalService provides the signal calculator with its background sweeper.
func ProvideSignalService(i do.Injector) (*SignalServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewSignalService(storeHandle.Store, ledgerHandle.Store, cfg.Signals, sseHandle.Manager, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	return &SignalServiceHandle{SignalService: svc, cancel: cancel}, nil
}

// ProvideNotificationService provides the notification service.
func ProvideNotificationService(i do.Injector) (*service.NotificationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNotificationService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideAtomService provides the atom service.
func ProvideAtomService(i do.Injector) (*service.AtomService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAtomService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideTripleService provides the triple service.
func ProvideTripleService(i do.Injector) (*service.TripleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	atoms := do.MustInvoke[*service.AtomService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTripleService(storeHandle.Store, atoms, sseHandle.Manager, log.Logger), nil
}

// ProvideStackService provides the stack service.
func ProvideStackService(i do.Injector) (*service.StackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)
	atoms := do.MustInvoke[*service.AtomService](i)
	signalHandle := do.MustInvoke[*SignalServiceHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStackService(storeHandle.Store, ledgerHandle.Store, atoms, signalHandle.SignalService, notifications, sseHandle.Manager, log.Logger), nil
}

// ProvideLedgerService provides the staking service with its rate limiter.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)
	signalHandle := do.MustInvoke[*SignalServiceHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(cfg.Limits.StakesPerSecond, cfg.Limits.StakeBurst)

	return service.NewLedgerService(storeHandle.Store, ledgerHandle.Store, limiter, signalHandle.SignalService, notifications, sseHandle.Manager, log.Logger), nil
}

// ProvideFeedService provides the feed composer.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(storeHandle.Store, ledgerHandle.Store, log.Logger), nil
}

// ProvideProfileService provides the profile and follow service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, notifications, sseHandle.Manager, log.Logger), nil
}

// ProvideInboxService provides the messaging service.
func ProvideInboxService(i do.Injector) (*service.InboxService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInboxService(storeHandle.Store, notifications, sseHandle.Manager, log.Logger), nil
}

// ProvideAuthService provides the registration and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}

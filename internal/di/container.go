// Package di provides dependency injection configuration for the Stacked server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/di/providers"
	"github.com/stackedapp/stacked-server/internal/logger"
	"github.com/stackedapp/stacked-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLedger)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideNotificationService)
	do.Provide(injector, providers.ProvideSignalService)
	do.Provide(injector, providers.ProvideAtomService)
	do.Provide(injector, providers.ProvideTripleService)
	do.Provide(injector, providers.ProvideStackService)
	do.Provide(injector, providers.ProvideLedgerService)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideInboxService)
	do.Provide(injector, providers.ProvideAuthService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once everything is wired.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.LedgerHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.NotificationService](injector)
	_ = do.MustInvoke[*providers.SignalServiceHandle](injector)
	_ = do.MustInvoke[*service.AtomService](injector)
	_ = do.MustInvoke[*service.TripleService](injector)
	_ = do.MustInvoke[*service.StackService](injector)
	_ = do.MustInvoke[*service.LedgerService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.InboxService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Server last, after all dependencies exist.
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

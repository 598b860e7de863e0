package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/stackedapp/stacked-server/internal/api"
	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/logger"
	"github.com/stackedapp/stacked-server/internal/service"
	"github.com/stackedapp/stacked-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server with all routes wired.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	services := &api.Services{
		Auth:          do.MustInvoke[*service.AuthService](i),
		Profiles:      do.MustInvoke[*service.ProfileService](i),
		Stacks:        do.MustInvoke[*service.StackService](i),
		Stakes:        do.MustInvoke[*service.LedgerService](i),
		Atoms:         do.MustInvoke[*service.AtomService](i),
		Triples:       do.MustInvoke[*service.TripleService](i),
		Feed:          do.MustInvoke[*service.FeedService](i),
		Notifications: do.MustInvoke[*service.NotificationService](i),
		Inbox:         do.MustInvoke[*service.InboxService](i),
		Search:        do.MustInvoke[*service.SearchService](i),
	}

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)
	handler := api.NewServer(storeHandle.Store, services, tokens, sseHandler, cfg.Server.CORSOrigins, log.Logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: server}, nil
}

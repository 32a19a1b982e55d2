// Package agent composes the storefront session: one profile, one lock, one
// local database, and the cart and chat components wired over a shared event
// bus.
package agent

import (
	"context"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/auth"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/cart"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/chat"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/config"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/lock"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/logging"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/profile"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/upload"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Config      *config.Config
}

// Module returns the fx module for the session agent, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("agent",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideAuthManager,
			provideClient,
			provideCartStore,
			provideChatSync,
			provideUploader,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*localstore.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := localstore.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideAuthManager(db *localstore.DB, b *bus.Bus, logger *zap.Logger) *auth.Manager {
	return auth.NewManager(db, b, logger)
}

func provideClient(p Params, mgr *auth.Manager, logger *zap.Logger) *api.Client {
	return api.NewClient(p.Config.APIBaseURL, mgr, logger)
}

func provideCartStore(db *localstore.DB, client *api.Client, mgr *auth.Manager, b *bus.Bus, logger *zap.Logger) *cart.Store {
	return cart.NewStore(db, client, mgr, b, logger)
}

func provideChatSync(p Params, db *localstore.DB, client *api.Client, b *bus.Bus, logger *zap.Logger) *chat.Synchronizer {
	return chat.NewSynchronizer(client, db, b, logger, p.Config.PollInterval())
}

// provideUploader returns nil when no bucket is configured; image sends then
// fall back to text-only.
func provideUploader(p Params, logger *zap.Logger) (*upload.Uploader, error) {
	if p.Config.StorageBucket == "" {
		logger.Info("no storage bucket configured, uploads disabled")
		return nil, nil
	}
	return upload.NewUploader(context.Background(), p.Config.StorageBucket, p.Config.StorageCredentials, logger)
}

// reconcileTimeout bounds one reconciliation pass (cart merge plus the two
// chat fetches) so a stalled server cannot pin the event goroutine.
const reconcileTimeout = 30 * time.Second

func withReconcileTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, reconcileTimeout)
}

func registerLifecycle(lc fx.Lifecycle, p Params, lk *lock.Lock, db *localstore.DB, mgr *auth.Manager, carts *cart.Store, sync *chat.Synchronizer, uploader *upload.Uploader, b *bus.Bus, logger *zap.Logger) {
	var stopEvents func()

	reconcile := func(parent context.Context) {
		ctx, cancel := withReconcileTimeout(parent)
		defer cancel()
		if err := carts.SyncWithServer(ctx); err != nil {
			logger.Warn("cart reconciliation failed", zap.Error(err))
		}
		if err := sync.FetchRooms(ctx); err != nil {
			logger.Warn("room list fetch failed", zap.Error(err))
		}
		if err := sync.FetchUnreadCount(ctx); err != nil {
			logger.Warn("unread count fetch failed", zap.Error(err))
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			events, cancel := b.Subscribe("session.", 16)
			stopEvents = cancel
			go func() {
				for evt := range events {
					switch evt.Kind {
					case "session.authenticated":
						logger.Info("session authenticated, reconciling")
						reconcile(context.Background())
					case "session.expired":
						logger.Info("session expired, leaving room")
						sync.LeaveRoom()
					}
				}
			}()

			if mgr.Authenticated() {
				logger.Info("cached session found, reconciling",
					zap.String("profile", p.ProfileName))
				go reconcile(context.Background())
			} else {
				logger.Info("no cached session, browsing anonymously")
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			sync.LeaveRoom()
			if stopEvents != nil {
				stopEvents()
			}
			if uploader != nil {
				_ = uploader.Close()
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("agent stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

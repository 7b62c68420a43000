package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fabula/internal/bookmark"
	bookmarkhandler "fabula/internal/bookmark/handler"
	bookmarkservice "fabula/internal/bookmark/service"
	"fabula/internal/comment"
	commenthandler "fabula/internal/comment/handler"
	commentservice "fabula/internal/comment/service"
	"fabula/internal/platform/config"
	"fabula/internal/platform/httpserver"
	"fabula/internal/platform/logger"
	"fabula/internal/platform/metrics"
	"fabula/internal/platform/postgres"
	platformredis "fabula/internal/platform/redis"
	"fabula/internal/tale"
	"fabula/internal/tale/cache"
	talehandler "fabula/internal/tale/handler"
	talemetrics "fabula/internal/tale/metrics"
	taleservice "fabula/internal/tale/service"
	"fabula/internal/token"
	httptransport "fabula/internal/transport/http"
	"fabula/internal/user"
	userhandler "fabula/internal/user/handler"
	userservice "fabula/internal/user/service"
	id "fabula/pkg/domain"
	"fabula/pkg/platform/audit/publisher"
	auditmem "fabula/pkg/platform/audit/store/memory"
	auditpg "fabula/pkg/platform/audit/store/postgres"
	"fabula/pkg/platform/middleware/admin"
	"fabula/pkg/platform/middleware/auth"
)

// principalResolver adapts the user service to the authentication gate.
type principalResolver struct {
	users *userservice.Service
}

func (p principalResolver) ResolvePrincipal(ctx context.Context, userID id.UserID) (auth.Principal, error) {
	u, err := p.users.Resolve(ctx, userID)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{ID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin, Verified: u.Verified}, nil
}

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// The signing secret is validated once here; the gate never has to
	// report misconfiguration per request in a correctly started process.
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Error("token codec init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userStore     user.Store
		taleStore     tale.Store
		commentStore  comment.Store
		bookmarkStore bookmark.Store
		taleTx        taleservice.StoreTx
		auditPub      *publisher.Publisher
		checks        = map[string]httptransport.HealthChecker{}
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.ApplySchema(ctx, db); err != nil {
			log.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}

		userStore = user.NewPostgresStore(db)
		taleStore = tale.NewPostgresStore(db)
		commentStore = comment.NewPostgresStore(db)
		bookmarkStore = bookmark.NewPostgresStore(db)
		taleTx = taleservice.NewPostgresTx(db)
		auditPub = publisher.NewPublisher(auditpg.New(db), publisher.WithAsyncBuffer(256))
		log.Info("using postgres storage")
	} else {
		memTales := tale.NewInMemoryStore()
		memComments := comment.NewInMemoryStore()
		memBookmarks := bookmark.NewInMemoryStore()

		userStore = user.NewInMemoryStore()
		taleStore = memTales
		commentStore = memComments
		bookmarkStore = memBookmarks
		taleTx = taleservice.NewMemoryTx(taleservice.Stores{
			Tales:     memTales,
			Comments:  memComments,
			Bookmarks: memBookmarks,
		})
		auditPub = publisher.NewPublisher(auditmem.NewInMemoryStore(), publisher.WithAsyncBuffer(256))
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}
	defer auditPub.Close()

	taleOpts := []taleservice.Option{
		taleservice.WithAudit(auditPub),
		taleservice.WithMetrics(talemetrics.New()),
	}
	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = rdb
		taleOpts = append(taleOpts, taleservice.WithCache(
			cache.NewRedisCache(rdb.Client, cfg.TaleCacheTTL, log)))
		log.Info("tale cache enabled")
	}

	m := metrics.New()
	users := userservice.New(userStore, codec, log, auditPub)
	tales := taleservice.New(taleStore, taleTx, log, taleOpts...)
	comments := commentservice.New(commentStore, taleStore, log, auditPub)
	bookmarks := bookmarkservice.New(bookmarkStore, taleStore, log)

	requireAuth := auth.RequireAuth(codec, principalResolver{users: users}, log, m)
	requireAdmin := admin.RequireAdmin(log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Handlers: []httptransport.Registrar{
			userhandler.New(users, log, m, requireAuth, requireAdmin),
			talehandler.New(tales, log, requireAuth, requireAdmin),
			commenthandler.New(comments, log, requireAuth),
			bookmarkhandler.New(bookmarks, log, requireAuth),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fabula", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

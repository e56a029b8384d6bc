package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelcraft/internal/config"
	"github.com/pixelcraft/internal/email"
	"github.com/pixelcraft/internal/fileserver"
	"github.com/pixelcraft/internal/handler"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/middleware"
	"github.com/pixelcraft/internal/push"
	"github.com/pixelcraft/internal/repository"
	"github.com/pixelcraft/internal/service"
	"github.com/pixelcraft/internal/startup"
	"github.com/pixelcraft/internal/storage"
	"github.com/pixelcraft/internal/storage/devstore"
	"github.com/pixelcraft/internal/storage/memory"
	"github.com/pixelcraft/internal/ws"
	"github.com/pixelcraft/migrations"
)

const maxWSClients = 64

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL (no external DB or Redis required)")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 2

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second)
	defer pool.Close()

	runMigrations(pool)
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	orderRepo := repository.NewOrderRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	pushRepo := repository.NewPushRepository(pool)

	// Хранилище токенов: в dev — БД напрямую, иначе Redis (или память,
	// если Redis явно отключён).
	var tokenStore storage.AdminTokenStore
	switch {
	case *dev:
		tokenStore = devstore.New(sessionRepo)
		logger.Info("token store: devstore (database-backed)")
	case cfg.Redis.URL == "" || cfg.Redis.URL == "memory":
		tokenStore = memory.New()
		logger.Info("token store: in-process memory")
	default:
		tokenStore = startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second)
		logger.Info("token store: redis")
	}
	defer tokenStore.Close()

	authSvc := service.NewAdminAuthService(adminRepo, sessionRepo, tokenStore,
		cfg.Admin.SeedEmail, cfg.Admin.SeedPassword, cfg.Admin.SessionTTL)

	vapidKeys, err := push.EnsureVAPIDKeys("")
	if err != nil {
		logger.Errorf("vapid keys unavailable, web push disabled: %v", err)
		vapidKeys = nil
	}
	notifier := push.NewNotifier(pushRepo, vapidKeys, cfg.Admin.SeedEmail)
	if vapidKeys != nil {
		cfg.PushVAPIDPublicKey = vapidKeys.PublicKey
	}

	files := fileserver.New(cfg.UploadDir, cfg.MaxUploadSize)
	mailer := email.NewSender(&cfg.SMTP)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := ws.NewHub(maxWSClients)
	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	// Housekeeping: давно истёкшие сессии чистим раз в час.
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	go sessionJanitor(janitorCtx, sessionRepo)

	authH := handler.NewAuthHandler(authSvc)
	orderH := handler.NewOrderHandler(orderRepo, files, hub, notifier, mailer, cfg.OrderNotifyEmail)
	contentH := handler.NewContentHandler(contentRepo, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	pushH := handler.NewPushHandler(pushRepo)
	configH := handler.NewConfigHandler(cfg)
	wsH := handler.NewWSHandler(hub)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(middleware.RecoverJSON)
	// Не сжимать WebSocket — иначе ResponseWriter не реализует http.Hijacker и upgrade даёт 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, req)
				return
			}
			chimw.Compress(5)(next).ServeHTTP(w, req)
		})
	})
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Token"},
		ExposedHeaders:   []string{"X-Session-Expires-At", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Get("/api/config", configH.Get)
	r.Get("/api/content/{section}", contentH.Get)
	r.Post("/api/orders", orderH.Create)

	r.Post("/api/admin/login", authH.Login)
	r.Post("/api/admin/logout", authH.Logout)
	r.Get("/api/admin/exists", authH.Exists)
	r.Post("/api/admin/bootstrap", authH.Bootstrap)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(authSvc))
		r.Get("/api/admin/orders", orderH.List)
		r.Get("/api/admin/orders/{id}", orderH.Get)
		r.Delete("/api/admin/orders/{id}", orderH.Delete)
		r.Get("/api/admin/orders/{id}/file", orderH.File)
		r.Put("/api/admin/content/{section}", contentH.Set)
		r.Post("/api/admin/push/subscribe", pushH.Subscribe)
		r.Post("/api/admin/push/unsubscribe", pushH.Unsubscribe)
		r.Get("/api/admin/ws", wsH.Serve)
	})

	webDist := "./web/dist"
	if info, err := os.Stat(webDist); err == nil && info.IsDir() {
		r.Get("/*", spaHandler(webDist))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	janitorCancel()
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

// sessionJanitor удаляет давно истёкшие admin-сессии: сразу при старте,
// затем раз в час. Удаляем только истёкшие более суток назад, чтобы не
// мешать отладке свежих проблем с сессиями.
func sessionJanitor(ctx context.Context, repo *repository.SessionRepository) {
	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		n, err := repo.DeleteExpired(sweepCtx, 24*time.Hour)
		if err != nil {
			logger.Errorf("session janitor: %v", err)
			return
		}
		if n > 0 {
			logger.Infof("session janitor: removed %d expired sessions", n)
		}
	}

	sweep()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func spaHandler(dir string) http.HandlerFunc {
	fileSystem := http.Dir(dir)
	fileServer := http.FileServer(fileSystem)
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
		if path == "" {
			path = "index.html"
		}
		if f, err := fileSystem.Open(path); err != nil {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		} else {
			f.Close()
			fileServer.ServeHTTP(w, r)
		}
	}
}

func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		logger.Errorf("list migrations: %v", err)
		os.Exit(1)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			logger.Errorf("read migration %s: %v", name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", name, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "pixelcraft"
		password = "pixelcraft_secret"
		database = "pixelcraft"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/auth"
	authPostgres "github.com/frahmantamala/visitor-management/internal/auth/postgres"
	"github.com/frahmantamala/visitor-management/internal/core/events"
	"github.com/frahmantamala/visitor-management/internal/menu"
	menuPostgres "github.com/frahmantamala/visitor-management/internal/menu/postgres"
	"github.com/frahmantamala/visitor-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/visitor-management/internal/permission/postgres"
	"github.com/frahmantamala/visitor-management/internal/rbac"
	rbacPostgres "github.com/frahmantamala/visitor-management/internal/rbac/postgres"
	"github.com/frahmantamala/visitor-management/internal/transport"
	"github.com/frahmantamala/visitor-management/internal/transport/middleware"
	"github.com/frahmantamala/visitor-management/internal/transport/rest"
	"github.com/frahmantamala/visitor-management/internal/user"
	userPostgres "github.com/frahmantamala/visitor-management/internal/user/postgres"
	"github.com/frahmantamala/visitor-management/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// permissionCache is a permission.Cache the health check can ping.
type permissionCache interface {
	permission.Cache
	rest.Pinger
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Cache    permissionCache
	Resolver *permission.Resolver
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Router   *chi.Mux
	Logger   *slog.Logger

	closers []func() error
}

// Close releases the cache client and the database pool, in that order.
func (d *Dependencies) Close() {
	if d.Bus != nil {
		d.Bus.Wait()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("failed to release resource", "error", err)
		}
	}
}

func startHTTPServer() {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env, "cache_driver", deps.Config.Cache.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	rbacRepo := rbacPostgres.NewRepository(deps.Gorm)
	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTCodec(cfg.Security.JWTSecret),
		cfg.Security.TokenTTL,
		lg,
	)
	userService := user.NewService(userPostgres.NewRepository(deps.DB), deps.Resolver, lg)
	rbacService := rbac.NewService(rbacRepo, deps.Resolver, deps.Bus, lg)

	policy, err := menu.ParseOrphanPolicy(cfg.Menu.OrphanPolicy)
	if err != nil {
		lg.Warn("unknown menu orphan policy, dropping orphans", "policy", cfg.Menu.OrphanPolicy)
		policy = menu.OrphanDrop
	}
	assembler := menu.NewAssembler(menuPostgres.NewRepository(deps.Gorm), deps.Resolver, lg,
		menu.WithOrphanPolicy(policy),
		menu.WithPlaceholder(cfg.Menu.Placeholder),
	)

	var httpMetrics *middleware.HTTPMetrics
	var metricsHandler http.Handler
	if cfg.Observability.Metrics.Enabled {
		httpMetrics = middleware.NewHTTPMetrics(deps.Registry)
		metricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	}

	rest.RegisterAllRoutes(deps.Router, cfg, rest.Routes{
		Health:         rest.NewHealthHandler(deps.DB.DB, deps.Cache),
		Auth:           auth.NewHandler(base, authService),
		User:           user.NewHandler(base, userService),
		RBAC:           rbac.NewHandler(base, rbacService),
		Menu:           menu.NewHandler(base, assembler),
		Permissions:    rbac.NewMiddleware(base, rbac.NewGuard(deps.Resolver, lg)),
		Metrics:        httpMetrics,
		MetricsHandler: metricsHandler,
	}, lg)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		Logger:   logger.Configure(os.Stdout, config.Observability.Logging.Level, config.Observability.Logging.Format),
		Router:   chi.NewRouter(),
		Registry: prometheus.NewRegistry(),
	}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db
	deps.closers = append(deps.closers, db.Close)

	deps.Gorm, err = initGorm(db)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	cache, closeCache, err := initPermissionCache(ctx, config.Cache)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize permission cache: %w", err)
	}
	deps.Cache = cache
	deps.closers = append(deps.closers, closeCache)

	var metrics *permission.Metrics
	if config.Observability.Metrics.Enabled {
		metrics = permission.NewMetrics(deps.Registry)
	}
	deps.Resolver = permission.NewResolver(
		permissionPostgres.NewRepository(deps.Gorm),
		cache,
		permission.ResolverConfig{TTL: config.Cache.TTL, CacheTimeout: config.Cache.Timeout},
		deps.Logger,
		metrics,
	)

	deps.Bus = events.NewEventBus(deps.Logger)
	events.RegisterAudit(deps.Bus, deps.Logger)

	return deps, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same limits.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}

func initPermissionCache(ctx context.Context, cfg internal.CacheConfig) (permissionCache, func() error, error) {
	if cfg.Driver == "memory" {
		return permission.NewMemoryCache(cfg.Size, cfg.TTL), func() error { return nil }, nil
	}

	client, err := permission.NewRedisClient(ctx, cfg.Addr(), cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return permission.NewRedisCache(client), client.Close, nil
}

// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"squadhub-service/internal/config"
	"squadhub-service/internal/db"
	"squadhub-service/internal/middleware"
	"squadhub-service/internal/pkg/jwt"
	"squadhub-service/internal/pkg/kv"
	"squadhub-service/internal/pkg/paygate"
	"squadhub-service/internal/repository/memory"
	"squadhub-service/internal/repository/postgres"
	redisrepo "squadhub-service/internal/repository/redis"
	entsvc "squadhub-service/internal/service/entitlement"
	"squadhub-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger

	// guarded by mu; Start and Shutdown run on different goroutines
	mu      sync.Mutex
	http    *http.Server
	cancel  context.CancelFunc
	closers []func()
}

func NewServer(logger *zap.Logger) *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

func (s *Server) Start() error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	// ----- Storage -----
	store, err := s.openStore(ctx)
	if err != nil {
		return err
	}

	// ----- Plan Catalog -----
	catalog, err := entsvc.LoadCatalog(s.cfg.PlanCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}

	// ----- JWT -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Payment Provider -----
	gateway, err := paygate.NewRedirectGateway(paygate.Config{
		CheckoutURL: s.cfg.PaymentCheckoutURL,
		Business:    s.cfg.PaymentBusiness,
		ReturnURL:   s.cfg.PaymentReturnURL,
		CancelURL:   s.cfg.PaymentCancelURL,
	})
	if err != nil {
		return fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, s.logger)
	go hub.Run(ctx)

	// ----- Services -----
	svc := NewServices(store, catalog, gateway, paygate.NewMockConfirmer(), hub, s.logger)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := NewHandlers(svc, jwtManager.Verifier, s.cfg.ServiceKeyHash, s.cfg.CORSOrigins, s.logger)
	SetupRouter(s.engine, s.logger, handlers)

	// ----- Start HTTP -----
	httpSrv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = httpSrv
	s.mu.Unlock()

	s.logger.Info("server running",
		zap.String("addr", s.cfg.HTTPAddr),
		zap.String("storage", s.cfg.StorageBackend),
		zap.Int("plans", len(catalog.All())),
	)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openStore connects the configured KV backend.
func (s *Server) openStore(ctx context.Context) (kv.Store, error) {
	switch s.cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := db.ConnectDB(db.PostgresConfig{
			DSN:      s.cfg.PostgresDSN,
			MaxConns: s.cfg.PostgresConns,
		})
		if err != nil {
			return nil, err
		}
		database := postgres.NewDB(pool)
		s.addCloser(database.Close)

		store := postgres.NewKVStore(database, s.cfg.KVTable)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare KV table: %w", err)
		}
		s.logger.Info("connected to PostgreSQL", zap.String("table", s.cfg.KVTable))
		return store, nil

	case config.StorageRedis:
		client, err := db.NewRedisClient(db.RedisConfig{
			ClusterMode: s.cfg.RedisCluster,
			Addresses:   s.cfg.RedisAddrs,
			Password:    s.cfg.RedisPass,
			DB:          s.cfg.RedisDB,
			PoolSize:    10,
		})
		if err != nil {
			return nil, err
		}
		s.addCloser(func() { _ = client.Close() })
		s.logger.Info("connected to Redis", zap.Strings("addrs", s.cfg.RedisAddrs))
		return redisrepo.NewKVStore(client, s.cfg.RedisPrefix), nil

	default:
		s.logger.Warn("using in-memory storage; state is lost on restart")
		return memory.NewKVStore(), nil
	}
}

// Shutdown drains HTTP traffic, stops the hub and releases storage.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpSrv, cancel, closers := s.http, s.cancel, s.closers
	s.closers = nil
	s.mu.Unlock()

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	}
	if cancel != nil {
		cancel()
	}
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	return err
}

func (s *Server) addCloser(fn func()) {
	s.mu.Lock()
	s.closers = append(s.closers, fn)
	s.mu.Unlock()
}

// Package tarotminiapp собирает и запускает HTTP-сервис мини-приложения.
package tarotminiapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/config"
	"github.com/taroteka/tarot-miniapp/internal/interpreter"
	"github.com/taroteka/tarot-miniapp/internal/lib/jwt"
	"github.com/taroteka/tarot-miniapp/internal/migrations"
	"github.com/taroteka/tarot-miniapp/internal/paymentprovider"
	"github.com/taroteka/tarot-miniapp/internal/rabbitmq"
	authservice "github.com/taroteka/tarot-miniapp/internal/services/auth"
	"github.com/taroteka/tarot-miniapp/internal/services/entitlement"
	paymentservice "github.com/taroteka/tarot-miniapp/internal/services/payment"
	readingservice "github.com/taroteka/tarot-miniapp/internal/services/reading"
	reviewservice "github.com/taroteka/tarot-miniapp/internal/services/review"
	supportservice "github.com/taroteka/tarot-miniapp/internal/services/support"
	"github.com/taroteka/tarot-miniapp/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

// New собирает приложение: хранилище, кеш, брокер, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(logger, db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpCh, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues(), cfg.RabbitMQConcurrency)
	if err != nil {
		return nil, err
	}
	publisher := &rabbitmq.Publisher{Ch: amqpCh}

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.ShopID, cfg.YooKassa.SecretKey)
	aiInterpreter := interpreter.NewOpenAI(cfg.OpenAI)

	entitlementService := entitlement.New(db, logger)
	readingService := readingservice.New(db, aiInterpreter, entitlementService, cacheRedis, logger)
	authService := authservice.New(db, maker, cfg.BotToken, logger)
	paymentService := paymentservice.New(db, providerClient, publisher,
		cfg.SubscriptionPrice, cfg.ReturnURL, logger)
	supportService := supportservice.New(db, publisher, logger)
	reviewService := reviewservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, cacheRedis, maker, RouteServices{
		Auth:    authService,
		Reading: readingService,
		Payment: paymentService,
		Support: supportService,
		Review:  reviewService,
	})

	router.Get("/docs/*", httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}

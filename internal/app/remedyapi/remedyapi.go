package remedyapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/remedyhub/remedy-api/internal/aiclient"
	"github.com/remedyhub/remedy-api/internal/cache"
	"github.com/remedyhub/remedy-api/internal/config"
	"github.com/remedyhub/remedy-api/internal/imagesearch"
	"github.com/remedyhub/remedy-api/internal/lib/jwt"
	"github.com/remedyhub/remedy-api/internal/migrations"
	"github.com/remedyhub/remedy-api/internal/paymentprovider"
	"github.com/remedyhub/remedy-api/internal/rabbitmq"
	"github.com/remedyhub/remedy-api/internal/storage/repository"

	ailmentservice "github.com/remedyhub/remedy-api/internal/services/ailment"
	articleservice "github.com/remedyhub/remedy-api/internal/services/article"
	authservice "github.com/remedyhub/remedy-api/internal/services/auth"
	entitlementservice "github.com/remedyhub/remedy-api/internal/services/entitlement"
	moderationservice "github.com/remedyhub/remedy-api/internal/services/moderation"
	paymentservice "github.com/remedyhub/remedy-api/internal/services/payment"
	planservice "github.com/remedyhub/remedy-api/internal/services/plan"
	remedyservice "github.com/remedyhub/remedy-api/internal/services/remedy"
	reviewservice "github.com/remedyhub/remedy-api/internal/services/review"
	subscriptionservice "github.com/remedyhub/remedy-api/internal/services/subscription"
	userservice "github.com/remedyhub/remedy-api/internal/services/user"
)

// App собирает все зависимости основного HTTP-приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// services группирует сервисы приложения для регистрации маршрутов.
type services struct {
	auth         *authservice.Service
	user         *userservice.Service
	ailment      *ailmentservice.Service
	remedy       *remedyservice.Service
	review       *reviewservice.Service
	article      *articleservice.Service
	plan         *planservice.Service
	subscription *subscriptionservice.Service
	entitlement  *entitlementservice.Service
	payment      *paymentservice.Service
	moderation   *moderationservice.Service
}

// New инициализирует хранилище, кэш, брокер сообщений, внешних клиентов
// и собирает HTTP-сервер с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	emailQueue := rabbitmq.NewEmailQueue(ch)

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.PaymentSecretKey, cfg.WebhookSecret)
	aiClient := aiclient.New(cfg.OpenAI)
	imageClient := imagesearch.NewClient(logger, cfg.PlaceholderURL)

	svcs := &services{
		auth:         authservice.New(db, cacheRedis, emailQueue, jwtMaker, cfg, logger),
		user:         userservice.New(db, logger),
		ailment:      ailmentservice.New(db, cacheRedis, logger),
		remedy:       remedyservice.New(db, cacheRedis, logger),
		review:       reviewservice.New(db, logger),
		article:      articleservice.New(db, aiClient, imageClient, logger),
		plan:         planservice.New(db, cacheRedis, logger),
		subscription: subscriptionservice.New(db, providerClient, logger),
		entitlement:  entitlementservice.New(db, logger),
		payment:      paymentservice.New(db, providerClient, logger),
		moderation:   moderationservice.New(db, emailQueue, cfg.FlagThreshold, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, svcs)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
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
		_ = a.ch.Close()
		_ = a.conn.Close()
		_ = a.db.Close()
		return err
	}
}

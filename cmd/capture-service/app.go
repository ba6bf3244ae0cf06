package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"mirror/internal/api"
	"mirror/internal/boundary"
	"mirror/internal/broker"
	"mirror/internal/capture"
	"mirror/internal/classifier"
	"mirror/internal/config"
	"mirror/internal/config_handler"
	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/internal/notification"
	"mirror/internal/permissions"
	"mirror/internal/scraper"
	"mirror/pkg/bootstrap"
	"mirror/pkg/cel"
	"mirror/pkg/circuitbreaker"
	"mirror/pkg/health"
	"mirror/pkg/logging"
	"mirror/pkg/metrics"
	"mirror/pkg/middleware"
	"mirror/pkg/ratelimit"
	"mirror/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	classifier     *classifier.Switch
	configHandler  *config_handler.Handler
	controller     *capture.Controller
	hub            *boundary.Hub
	permissions    *permissions.Service
	tracerProvider *tracing.TracerProvider
	router         *gin.Engine
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.Register()

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	kafkaCfg := a.Config.Broker.Kafka
	if err := a.InitBroker(constants.ServiceName,
		kafkaCfg.NotificationTopic,
		kafkaCfg.AccessibilityTopic,
		kafkaCfg.ConfigUpdateTopic,
	); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initCapture(); err != nil {
		return fmt.Errorf("failed to initialize capture: %w", err)
	}

	a.initPermissions()
	a.initRouter(ctx)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) initRedis(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	if rdb == nil {
		a.Logger.WarnwCtx(ctx, "Redis not configured, permission queries will report false")
	}
	a.redis = rdb
	return nil
}

func (a *App) initCapture() error {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	configured, err := classifier.FromConfig(a.Config.Capture.Classifier, evaluator)
	if err != nil {
		return err
	}
	a.classifier = classifier.NewSwitch(configured)
	a.configHandler = config_handler.NewHandler(a.classifier, evaluator, configured, a.Logger)

	if hasTransport(a.Config.Boundary.Transports, constants.TransportWebSocket) {
		a.hub = boundary.NewHub(a.Config.Boundary.AllowedOrigins, a.Config.Boundary.SendBuffer, a.Logger)
	}

	a.controller = capture.NewController(
		a.Config.Capture,
		a.Config.Deduplication,
		a.openBoundary,
		notification.NewExtractor(a.Config.Capture.Packages),
		scraper.New(a.Config.Capture, a.classifier, a.Logger),
		a.Logger,
		capture.WithStateHook(newSystemdNotifier(a.Config.Systemd, a.Logger).stateChanged),
	)
	return nil
}

// openBoundary builds the channel from the configured transports. With more
// than one transport records fan out to all of them.
func (a *App) openBoundary(ctx context.Context) (boundary.Channel, error) {
	var members []boundary.Channel

	for _, transport := range a.Config.Boundary.Transports {
		switch strings.ToLower(transport) {
		case constants.TransportKafka:
			var breaker *circuitbreaker.Wrapper
			if a.Config.CircuitBreaker.Enabled {
				breaker = circuitbreaker.NewWrapper(circuitbreaker.FromConfig("boundary-kafka", a.Config.CircuitBreaker))
			}
			members = append(members, boundary.NewKafkaChannel(a.Producer, a.Config.Broker.Kafka.OutputTopic, breaker, a.Config.Boundary.SendBuffer, a.Logger))
		case constants.TransportWebSocket:
			if a.hub != nil {
				members = append(members, a.hub)
			}
		}
	}

	switch len(members) {
	case 0:
		return nil, fmt.Errorf("no boundary transport configured")
	case 1:
		return members[0], nil
	default:
		return boundary.NewFanout(members...), nil
	}
}

func (a *App) initPermissions() {
	var store permissions.SettingsStore
	if a.redis != nil {
		store = permissions.NewRedisSettingsStore(a.redis)
	}

	var intents permissions.IntentPublisher
	if topic := a.Config.Broker.Kafka.SettingsTopic; topic != "" && a.Producer != nil {
		intents = permissions.NewBrokerIntentPublisher(a.Producer, topic, a.Config.Permissions.PackageName)
	}

	a.permissions = permissions.NewService(store, intents, a.Config.Permissions, a.Logger)
}

func (a *App) initRouter(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	router.Use(middleware.RequestContext(constants.ServiceName))
	router.Use(middleware.Recovery(a.Logger))
	router.Use(middleware.Logger(a.Logger))

	if rl := a.Config.Management.RateLimit; rl.Enabled {
		rateLimitConfig := ratelimit.FromConfig(rl)
		router.Use(ratelimit.Middleware(ctx, rateLimitConfig))
		a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	var stream http.Handler
	if a.hub != nil {
		stream = a.hub
	}
	api.NewHandler(a.permissions, stream, a.Logger).RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	router.GET("/health", api.HealthHandler(healthRegistry, func() string {
		return a.controller.State().String()
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
}

func (a *App) Run(ctx context.Context) error {
	if err := a.controller.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect capture service: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	kafkaCfg := a.Config.Broker.Kafka
	a.consume(g, gCtx, kafkaCfg.NotificationTopic, a.controller.NotificationHandler())
	a.consume(g, gCtx, kafkaCfg.AccessibilityTopic, a.controller.AccessibilityHandler())
	a.consume(g, gCtx, kafkaCfg.ConfigUpdateTopic, a.configHandler.HandleConfigUpdateEvent)

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

func (a *App) consume(g *errgroup.Group, ctx context.Context, topic string, handler broker.HandlerFunc) {
	consumer, ok := a.Consumers[topic]
	if topic == "" || !ok {
		return
	}
	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "Starting consumer", "topic", topic)
		if err := consumer.Consume(ctx, topic, handler); err != nil && !stderrors.Is(err, context.Canceled) {
			return fmt.Errorf("consumer %s: %w", topic, err)
		}
		return nil
	})
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down capture service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			serverCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(serverCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.controller != nil {
			if err := a.controller.Destroy(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis)...)

		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}

func hasTransport(transports []string, want string) bool {
	for _, t := range transports {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

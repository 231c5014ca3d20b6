package app

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

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/memory"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/notification/logsink"
	notificationrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/notification/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/outbox/postgres"
	sessionrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/session/redis"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/otel"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/notification"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/invoicesvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/menusvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/usersvc"
	grpctransport "github.com/corray333/backend-labs/fooddelivery/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/fooddelivery/internal/transport/http"
	"github.com/corray333/backend-labs/fooddelivery/internal/worker/outbox"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	PublishOrderEvents(ctx context.Context, events []notification.OrderEvent) error
}

type sessionStore interface {
	Save(ctx context.Context, userID int64, token string, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (string, error)
}

// App represents the application.
type App struct {
	httpTransport *httptransport.HTTPTransport
	grpcTransport *grpctransport.GRPCTransport
	outboxWorker  *outbox.Worker

	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	redisClient    *redis.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application from the loaded configuration.
func MustNewApp() *App {
	a := &App{}

	if viper.GetBool("tracing.enabled") {
		a.otelController = otel.MustInitOtel()
	}

	var (
		factory    uow.Factory
		outboxRepo ioutboxrepo.IOutboxRepository
		storage    interface{ Ping(ctx context.Context) error }
	)

	driver := viper.GetString("storage.driver")
	switch driver {
	case "postgres":
		a.postgresClient = postgres.MustNewClient()
		factory = uow.NewFactory(a.postgresClient)
		outboxRepo = outboxrepo.NewOutboxRepository(a.postgresClient.Pool())
		storage = a.postgresClient
	case "memory":
		store := memory.NewStore()
		factory = store.Factory()
		outboxRepo = store.OutboxRepository()
	default:
		panic(fmt.Sprintf("unknown storage driver %q", driver))
	}

	notify := a.mustNewNotifier(outboxRepo)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithUnitOfWorkFactory(factory),
		ordersvc.WithEventPublisher(notify),
	)
	invoiceSvc := invoicesvc.NewInvoiceService(factory, orderSvc)
	menuSvc := menusvc.NewMenuService(factory)
	userSvc := usersvc.MustNewUserService(
		usersvc.WithUnitOfWorkFactory(factory),
		usersvc.WithMailer(notify),
		usersvc.WithSessionStore(a.mustNewSessionStore()),
		usersvc.WithTokenSecret(
			[]byte(os.Getenv("JWT_SECRET")),
			time.Duration(viper.GetInt("sessions.ttl_hours"))*time.Hour,
		),
	)

	a.httpTransport = httptransport.NewHTTPTransport(httptransport.Services{
		Orders:   orderSvc,
		Invoices: invoiceSvc,
		Users:    userSvc,
		Menus:    menuSvc,
	})
	a.httpTransport.RegisterRoutes()

	a.grpcTransport = grpctransport.NewGRPCTransport(storage)

	return a
}

func (a *App) mustNewNotifier(outboxRepo ioutboxrepo.IOutboxRepository) notifier {
	driver := viper.GetString("messaging.driver")
	switch driver {
	case "rabbitmq":
		a.rabbitClient = rabbitmq.MustNewClient()
		a.rabbitClient.MustDeclareDurableQueues(notificationrepo.EmailQueue, notificationrepo.OrderEventsQueue)
		a.outboxWorker = outbox.NewWorker(outboxRepo, a.rabbitClient.Channel())

		return notificationrepo.NewNotificationRepository(a.rabbitClient.Channel(), outboxRepo)
	case "log":
		return logsink.NewLogNotificationRepository(slog.Default().With("component", "notifications"))
	default:
		panic(fmt.Sprintf("unknown messaging driver %q", driver))
	}
}

func (a *App) mustNewSessionStore() sessionStore {
	driver := viper.GetString("sessions.driver")
	switch driver {
	case "redis":
		a.redisClient = sessionrepo.MustNewClient(context.Background())

		return sessionrepo.NewSessionRepository(a.redisClient)
	case "memory":
		return memory.NewSessionRepository()
	default:
		panic(fmt.Sprintf("unknown sessions driver %q", driver))
	}
}

// Run starts the servers and the outbox worker and blocks until SIGINT or SIGTERM,
// then shuts everything down gracefully.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := a.grpcTransport.Run(ctx); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}

		return nil
	})

	if a.outboxWorker != nil {
		g.Go(func() error {
			return a.outboxWorker.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutdown signal received")

		return a.shutdown()
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	a.closeClients()
	slog.Info("Application shutdown complete")
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	if a.otelController != nil {
		if err := a.otelController.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *App) closeClients() {
	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		}
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"chefmarket/approval"
	"chefmarket/db"
	"chefmarket/db/bookings"
	"chefmarket/http"
	"chefmarket/pkg/log"
	"chefmarket/pubsub"
	"chefmarket/pubsub/event"
	"chefmarket/pubsub/outbox"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	httpServer      *http.Server
}

func New(
	addr string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	payments approval.PaymentGateway,
	notifications event.NotificationsService,
) Service {
	watermillLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	bookingsRepo := bookings.NewPostgresRepository(dbConn)

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)
	postgresSubscriber := outbox.NewPostgresSubscriber(dbConn.DB, watermillLogger)

	outboxBus := outbox.NewEventBus(dbConn, watermillLogger)
	engine := approval.NewEngine(bookingsRepo, payments, outboxBus)

	eventsHandler := event.NewHandler(notifications)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	watermillRouter, err := pubsub.NewWatermillRouter(
		postgresSubscriber,
		redisPublisher,
		eventProcessorConfig,
		eventsHandler,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	httpServer := http.NewServer(addr, engine, bookingsRepo)

	return Service{
		db:              dbConn,
		watermillRouter: watermillRouter,
		httpServer:      httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the HTTP server starts only once the router is ready, so the
		// service is not healthy before it can process events
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}

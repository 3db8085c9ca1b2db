package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"chefmarket/gateway"
	"chefmarket/pkg/log"
	"chefmarket/service"
	"chefmarket/tracing"
)

type options struct {
	Addr              string `long:"addr" env:"ADDR" default:":8080" description:"HTTP listen address"`
	PostgresURL       string `long:"postgres-url" env:"POSTGRES_URL" required:"true" description:"Postgres connection string"`
	RedisAddr         string `long:"redis-addr" env:"REDIS_ADDR" required:"true" description:"Redis address"`
	StripeKey         string `long:"stripe-key" env:"STRIPE_KEY" required:"true" description:"Stripe secret key"`
	NotificationsAddr string `long:"notifications-addr" env:"NOTIFICATIONS_ADDR" required:"true" description:"Notification service base URL"`
	JaegerEndpoint    string `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" default:"http://localhost:14268/api/traces" description:"Jaeger collector endpoint"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	log.Init(logrus.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp := tracing.ConfigureTraceProvider(opts.JaegerEndpoint)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("failed to shutdown trace provider")
		}
	}()

	dbConn, err := sqlx.Open("postgres", opts.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: opts.RedisAddr,
	})
	defer redisClient.Close()

	paymentsClient := gateway.NewPaymentsClient(opts.StripeKey)
	notificationsClient := gateway.NewNotificationsClient(opts.NotificationsAddr)

	svc := service.New(opts.Addr, dbConn, redisClient, paymentsClient, notificationsClient)

	if err := svc.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("service stopped")
	}
}

package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"chefmarket/approval"
	"chefmarket/entity"
	"chefmarket/pkg/log"
)

type DecisionEngine interface {
	Decide(ctx context.Context, managerID int64, decision entity.ApprovalDecision) (approval.Result, error)
}

type BookingsRepository interface {
	LoadForApproval(ctx context.Context, bookingID int64) (entity.BookingAggregate, error)
}

type Server struct {
	addr         string
	e            *echo.Echo
	engine       DecisionEngine
	bookingsRepo BookingsRepository
}

func NewServer(
	addr string,
	engine DecisionEngine,
	bookingsRepo BookingsRepository,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("chefmarket"))
	e.Use(correlationMiddleware)

	server := &Server{
		addr:         addr,
		e:            e,
		engine:       engine,
		bookingsRepo: bookingsRepo,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	manager := e.Group("/api/manager", managerAuthMiddleware)
	manager.GET("/bookings/:booking_id", server.GetBooking)
	manager.POST("/bookings/:booking_id/decision", server.PostBookingDecision)

	return server
}

// ServeHTTP dispatches through the full middleware chain. It lets tests and
// embedding servers drive the router without binding a port.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := s.e.Shutdown(context.Background()); err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

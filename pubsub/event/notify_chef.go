package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"chefmarket/entity"
	"chefmarket/pkg/log"
)

type NotificationsService interface {
	Notify(ctx context.Context, notification entity.ChefNotification) error
}

type Handler struct {
	notifications NotificationsService
}

func NewHandler(notifications NotificationsService) Handler {
	return Handler{notifications: notifications}
}

func (h Handler) NotifyChefHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"NotifyChefHandler",
		func(ctx context.Context, event *entity.BookingDecided) error {
			log.FromContext(ctx).
				WithField("booking_id", event.BookingID).
				WithField("chef_id", event.ChefID).
				Info("Notifying chef of booking decision")

			err := h.notifications.Notify(ctx, entity.ChefNotification{
				ChefID:    event.ChefID,
				BookingID: event.BookingID,
				Summary:   event.Summary,
			})
			if err != nil {
				return fmt.Errorf("failed to notify chef: %w", err)
			}

			return nil
		},
	)
}

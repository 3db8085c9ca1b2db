package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"

	"chefmarket/pubsub/bus"
)

// EventBus publishes an event into the outbox in its own short transaction.
// The approval engine uses it after the status commit, so a publish failure
// never rolls back a decision.
type EventBus struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewEventBus(db *sqlx.DB, logger watermill.LoggerAdapter) EventBus {
	return EventBus{db: db, logger: logger}
}

func (b EventBus) Publish(ctx context.Context, event any) (err error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin outbox transaction: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
			return
		}
		err = tx.Commit()
	}()

	publisher, err := NewPublisherForDb(tx, b.logger)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(publisher)
	if err != nil {
		return fmt.Errorf("could not create event bus: %w", err)
	}

	if err = eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}

package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"chefmarket/entity"
)

// claimStaleAfter bounds the window during which a crashed approval keeps a
// booking claimed. A claim older than this is abandoned and re-claimable.
const claimStaleAfter = "2 minutes"

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LoadForApproval reads a booking with all attached line items in one
// consistent snapshot.
func (r *PostgresRepository) LoadForApproval(ctx context.Context, bookingID int64) (agg entity.BookingAggregate, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return entity.BookingAggregate{}, fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	err = tx.GetContext(ctx, &agg.Booking, `
		SELECT id, location_id, manager_id, chef_id, status, booking_date, start_time, end_time, timezone,
		       total_price_cents, payment_intent_id, captured_amount_cents, charge_id, decision_claimed_at
		FROM kitchen_bookings
		WHERE id = $1
	`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.BookingAggregate{}, entity.ErrNotFound
		}
		return entity.BookingAggregate{}, fmt.Errorf("could not get booking: %w", err)
	}

	err = tx.SelectContext(ctx, &agg.StorageItems, `
		SELECT id, booking_id, storage_booking_id, name, storage_type, status,
		       total_price_cents, start_date, end_date, payment_intent_id, captured_amount_cents, charge_id
		FROM storage_items
		WHERE booking_id = $1
		ORDER BY id
	`, bookingID)
	if err != nil {
		return entity.BookingAggregate{}, fmt.Errorf("could not get storage items: %w", err)
	}

	err = tx.SelectContext(ctx, &agg.EquipmentItems, `
		SELECT id, booking_id, name, total_price_cents
		FROM equipment_items
		WHERE booking_id = $1
		ORDER BY id
	`, bookingID)
	if err != nil {
		return entity.BookingAggregate{}, fmt.Errorf("could not get equipment items: %w", err)
	}

	return agg, nil
}

// ClaimForDecision is the concurrency gate for approvals: a conditional
// update that only one of two racing requests can win. The claim is committed
// before any payment-provider call, so no transaction is held open across
// slow external I/O. A booking stays claimable while any of its units is
// still pending, which covers retries after a partial payment failure.
func (r *PostgresRepository) ClaimForDecision(ctx context.Context, bookingID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE kitchen_bookings kb
		SET decision_claimed_at = NOW()
		WHERE kb.id = $1
		  AND (kb.status = 'pending' OR EXISTS (
		      SELECT 1 FROM storage_items si
		      WHERE si.booking_id = kb.id AND si.status = 'pending'
		  ))
		  AND (kb.decision_claimed_at IS NULL OR kb.decision_claimed_at < NOW() - INTERVAL '`+claimStaleAfter+`')
	`, bookingID)
	if err != nil {
		return fmt.Errorf("could not claim booking: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 1 {
		return nil
	}

	// Lost the claim: distinguish "gone" from "already decided or in flight".
	var status entity.BookingStatus
	err = r.db.GetContext(ctx, &status, `SELECT status FROM kitchen_bookings WHERE id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not check booking status: %w", err)
	}
	return entity.ErrInvalidState
}

// ReleaseClaim frees the decision gate without changing any unit status. Used
// when the final persist fails, so the manager can retry before the stale
// window expires.
func (r *PostgresRepository) ReleaseClaim(ctx context.Context, bookingID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE kitchen_bookings SET decision_claimed_at = NULL WHERE id = $1
	`, bookingID)
	return err
}

// PersistOutcomes commits the post-decision statuses for every unit that
// settled successfully and releases the claim, all in one transaction. If any
// per-item update fails the whole commit rolls back and the booking stays
// retryable.
func (r *PostgresRepository) PersistOutcomes(ctx context.Context, bookingID int64, outcomes entity.DecisionOutcomes) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	if outcomes.Kitchen != nil {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE kitchen_bookings
			SET status = $2, captured_amount_cents = captured_amount_cents + $3, charge_id = $4, decision_claimed_at = NULL
			WHERE id = $1 AND status = 'pending'
		`, bookingID, outcomes.Kitchen.Status, outcomes.Kitchen.CapturedAmountCents, outcomes.Kitchen.ChargeID)
		if err != nil {
			return fmt.Errorf("could not update booking status: %w", err)
		}

		var rowsAffected int64
		rowsAffected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			err = entity.ErrInvalidState
			return err
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE kitchen_bookings SET decision_claimed_at = NULL WHERE id = $1
		`, bookingID)
		if err != nil {
			return fmt.Errorf("could not release claim: %w", err)
		}
	}

	for storageBookingID, outcome := range outcomes.Storage {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE storage_items
			SET status = $3, captured_amount_cents = captured_amount_cents + $4, charge_id = $5
			WHERE storage_booking_id = $1 AND booking_id = $2 AND status = 'pending'
		`, storageBookingID, bookingID, outcome.Status, outcome.CapturedAmountCents, outcome.ChargeID)
		if err != nil {
			return fmt.Errorf("could not update storage item %d: %w", storageBookingID, err)
		}

		var rowsAffected int64
		rowsAffected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			err = fmt.Errorf("storage booking %d: %w", storageBookingID, entity.ErrInvalidState)
			return err
		}
	}

	return nil
}

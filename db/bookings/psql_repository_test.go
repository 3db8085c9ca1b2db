package bookings

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutils "chefmarket/db"
	"chefmarket/entity"
)

func seedBooking(t *testing.T, db *sqlx.DB, priceCents *int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO kitchen_bookings (location_id, manager_id, chef_id, status, booking_date, start_time, end_time, timezone, total_price_cents, payment_intent_id)
		VALUES (1, 10, 20, 'pending', '2026-03-05', '09:00', '13:00', 'America/New_York', $1, 'pi_test')
		RETURNING id
	`, priceCents).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedStorageItem(t *testing.T, db *sqlx.DB, bookingID, storageBookingID int64, priceCents *int64) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO storage_items (booking_id, storage_booking_id, name, storage_type, status, total_price_cents, start_date, end_date, payment_intent_id)
		VALUES ($1, $2, 'Walk-in shelf', 'cold', 'pending', $3, '2026-03-05', '2026-03-12', 'pi_storage')
	`, bookingID, storageBookingID, priceCents)
	require.NoError(t, err)
}

func intPtr(v int64) *int64 { return &v }

func TestLoadForApproval(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(12000))
	seedStorageItem(t, db, bookingID, bookingID*1000+1, intPtr(3000))
	_, err := db.ExecContext(ctx, `
		INSERT INTO equipment_items (booking_id, name, total_price_cents) VALUES ($1, 'Stand mixer', NULL)
	`, bookingID)
	require.NoError(t, err)

	agg, err := repo.LoadForApproval(ctx, bookingID)
	require.NoError(t, err)

	assert.Equal(t, bookingID, agg.Booking.ID)
	assert.Equal(t, entity.BookingStatusPending, agg.Booking.Status)
	assert.Equal(t, int64(12000), agg.Booking.PriceCents())
	assert.Equal(t, "America/New_York", agg.Booking.Timezone)

	require.Len(t, agg.StorageItems, 1)
	assert.Equal(t, entity.StorageTypeCold, agg.StorageItems[0].StorageType)
	assert.Equal(t, int64(3000), agg.StorageItems[0].PriceCents())
	require.NotNil(t, agg.StorageItems[0].StartDate)

	require.Len(t, agg.EquipmentItems, 1)
	assert.Equal(t, int64(0), func() int64 {
		if agg.EquipmentItems[0].TotalPriceCents == nil {
			return 0
		}
		return *agg.EquipmentItems[0].TotalPriceCents
	}())
}

func TestLoadForApproval_notFound(t *testing.T) {
	repo := NewPostgresRepository(dbutils.GetDb(t))

	_, err := repo.LoadForApproval(context.Background(), 999999999)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestClaimForDecision_onlyOneWinner(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(5000))

	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))

	// a racing duplicate loses the claim
	err := repo.ClaimForDecision(ctx, bookingID)
	require.ErrorIs(t, err, entity.ErrInvalidState)

	// release makes it claimable again for a retry
	require.NoError(t, repo.ReleaseClaim(ctx, bookingID))
	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
}

func TestClaimForDecision_notFound(t *testing.T) {
	repo := NewPostgresRepository(dbutils.GetDb(t))

	err := repo.ClaimForDecision(context.Background(), 999999999)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestClaimForDecision_decidedBookingRejected(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(5000))
	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
	require.NoError(t, repo.PersistOutcomes(ctx, bookingID, entity.DecisionOutcomes{
		Kitchen: &entity.UnitOutcome{Status: entity.BookingStatusConfirmed, CapturedAmountCents: 5000, ChargeID: "ch_1"},
	}))

	err := repo.ClaimForDecision(ctx, bookingID)
	require.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestClaimForDecision_allowedWhileStorageStillPending(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(5000))
	storageBookingID := bookingID*1000 + 1
	seedStorageItem(t, db, bookingID, storageBookingID, intPtr(3000))

	// kitchen settles, the storage unit's payment failed and stays pending
	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
	require.NoError(t, repo.PersistOutcomes(ctx, bookingID, entity.DecisionOutcomes{
		Kitchen: &entity.UnitOutcome{Status: entity.BookingStatusConfirmed, CapturedAmountCents: 5000, ChargeID: "ch_1"},
	}))

	// the retry of the failed subset can claim the booking again
	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
}

func TestPersistOutcomes(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(12000))
	storageBookingID := bookingID*1000 + 1
	seedStorageItem(t, db, bookingID, storageBookingID, intPtr(3000))

	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
	err := repo.PersistOutcomes(ctx, bookingID, entity.DecisionOutcomes{
		Kitchen: &entity.UnitOutcome{Status: entity.BookingStatusConfirmed, CapturedAmountCents: 12000, ChargeID: "ch_kitchen"},
		Storage: map[int64]entity.UnitOutcome{
			storageBookingID: {Status: entity.BookingStatusCancelled},
		},
	})
	require.NoError(t, err)

	agg, err := repo.LoadForApproval(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, agg.Booking.Status)
	assert.Equal(t, int64(12000), agg.Booking.CapturedAmountCents)
	assert.Equal(t, "ch_kitchen", agg.Booking.ChargeID)
	assert.Nil(t, agg.Booking.DecisionClaimedAt)
	assert.Equal(t, entity.BookingStatusCancelled, agg.StorageItems[0].Status)
}

func TestPersistOutcomes_atomicRollback(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(12000))
	storageBookingID := bookingID*1000 + 1
	seedStorageItem(t, db, bookingID, storageBookingID, intPtr(3000))

	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))

	// one outcome references a storage booking this aggregate does not own,
	// so the whole persist must roll back
	err := repo.PersistOutcomes(ctx, bookingID, entity.DecisionOutcomes{
		Kitchen: &entity.UnitOutcome{Status: entity.BookingStatusConfirmed, CapturedAmountCents: 12000, ChargeID: "ch_kitchen"},
		Storage: map[int64]entity.UnitOutcome{
			storageBookingID: {Status: entity.BookingStatusConfirmed, CapturedAmountCents: 3000},
			424242:           {Status: entity.BookingStatusConfirmed},
		},
	})
	require.Error(t, err)

	agg, err := repo.LoadForApproval(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, agg.Booking.Status)
	assert.Equal(t, int64(0), agg.Booking.CapturedAmountCents)
	assert.Equal(t, entity.BookingStatusPending, agg.StorageItems[0].Status)
}

func TestPersistOutcomes_partialFailureKeepsFailedUnitPending(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	repo := NewPostgresRepository(db)

	bookingID := seedBooking(t, db, intPtr(12000))
	okStorage := bookingID*1000 + 1
	failedStorage := bookingID*1000 + 2
	seedStorageItem(t, db, bookingID, okStorage, intPtr(3000))
	seedStorageItem(t, db, bookingID, failedStorage, intPtr(4000))

	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))

	// kitchen failed during the payment phase: nil Kitchen releases the claim
	// and leaves the booking pending while the settled storage unit commits
	err := repo.PersistOutcomes(ctx, bookingID, entity.DecisionOutcomes{
		Kitchen: nil,
		Storage: map[int64]entity.UnitOutcome{
			okStorage: {Status: entity.BookingStatusCancelled},
		},
	})
	require.NoError(t, err)

	agg, err := repo.LoadForApproval(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, agg.Booking.Status)
	assert.Nil(t, agg.Booking.DecisionClaimedAt)

	byID := map[int64]entity.StorageItem{}
	for _, item := range agg.StorageItems {
		byID[item.StorageBookingID] = item
	}
	assert.Equal(t, entity.BookingStatusCancelled, byID[okStorage].Status)
	assert.Equal(t, entity.BookingStatusPending, byID[failedStorage].Status)

	// the manager can immediately retry the failed subset
	require.NoError(t, repo.ClaimForDecision(ctx, bookingID))
}

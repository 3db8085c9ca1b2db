package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"chefmarket/db/bookings"
	"chefmarket/entity"
	"chefmarket/gateway"
	"chefmarket/service"
)

var (
	httpAddress = ":8080"
)

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	dbconn, err := sqlx.Open("postgres", postgresURL)
	if err != nil {
		panic(err)
	}
	defer dbconn.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	defer redisClient.Close()

	paymentsClient := &gateway.PaymentsMock{}
	notificationsClient := &gateway.NotificationsMock{}

	done := make(chan struct{})
	go func() {
		<-done
		e := syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		require.NoError(t, e)
	}()

	finished := make(chan struct{})
	go func() {
		svc := service.New(
			httpAddress,
			dbconn,
			redisClient,
			paymentsClient,
			notificationsClient,
		)
		assert.NoError(t, svc.Run(ctx))
		close(finished)
	}()

	defer func() {
		close(done)
		<-finished
	}()

	waitForHttpServer(t)

	managerID := int64(10)
	bookingID := seedBooking(t, dbconn, managerID)
	keepStorage := seedStorageItem(t, dbconn, bookingID, bookingID*1000+1, 3000)
	dropStorage := seedStorageItem(t, dbconn, bookingID, bookingID*1000+2, 4000)
	seedEquipmentItem(t, dbconn, bookingID, "Stand mixer")

	decision := decisionRequest{
		Status: "confirmed",
		StorageActions: []storageAction{
			{StorageBookingID: dropStorage, Action: "cancelled"},
		},
	}

	res := sendDecision(t, bookingID, managerID, decision, http.StatusOK)
	assert.True(t, res.Kitchen.Succeeded)
	assert.Equal(t, "confirmed", res.Status)

	assertBookingDecided(t, dbconn, bookingID, keepStorage, dropStorage)
	assertChefNotified(t, notificationsClient, bookingID)

	// replaying the decision must not settle anything twice
	opsBeforeReplay := paymentsClient.OperationCount()
	sendDecisionRaw(t, bookingID, managerID, decision, http.StatusConflict)
	assert.Equal(t, opsBeforeReplay, paymentsClient.OperationCount())

	// another manager cannot decide this booking
	sendDecisionRaw(t, bookingID, managerID+1, decision, http.StatusForbidden)
}

func assertBookingDecided(t *testing.T, db *sqlx.DB, bookingID, keepStorage, dropStorage int64) {
	repo := bookings.NewPostgresRepository(db)

	agg, err := repo.LoadForApproval(context.Background(), bookingID)
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusConfirmed, agg.Booking.Status)
	assert.Equal(t, int64(12000), agg.Booking.CapturedAmountCents)
	assert.Nil(t, agg.Booking.DecisionClaimedAt)

	byID := map[int64]entity.StorageItem{}
	for _, item := range agg.StorageItems {
		byID[item.StorageBookingID] = item
	}
	assert.Equal(t, entity.BookingStatusConfirmed, byID[keepStorage].Status)
	assert.Equal(t, int64(3000), byID[keepStorage].CapturedAmountCents)
	assert.Equal(t, entity.BookingStatusCancelled, byID[dropStorage].Status)
	assert.Equal(t, int64(0), byID[dropStorage].CapturedAmountCents)
}

func assertChefNotified(t *testing.T, notificationsClient *gateway.NotificationsMock, bookingID int64) {
	assert.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			delivered := notificationsClient.Delivered()
			if !assert.Len(t, delivered, 1) {
				return
			}
			assert.Equal(t, bookingID, delivered[0].BookingID)
			assert.Equal(t, int64(20), delivered[0].ChefID)
			assert.Contains(t, delivered[0].Summary, "confirmed")
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

type decisionRequest struct {
	Status         string          `json:"status"`
	StorageActions []storageAction `json:"storageActions"`
}

type storageAction struct {
	StorageBookingID int64  `json:"storageBookingId"`
	Action           string `json:"action"`
}

type unitResult struct {
	Kind                string `json:"kind"`
	StorageBookingID    int64  `json:"storageBookingId"`
	Outcome             string `json:"outcome"`
	CapturedAmountCents int64  `json:"capturedAmountCents"`
	Succeeded           bool   `json:"succeeded"`
}

type decisionResult struct {
	BookingID      int64        `json:"bookingId"`
	Status         string       `json:"status"`
	Kitchen        unitResult   `json:"kitchen"`
	StorageResults []unitResult `json:"storageResults"`
}

func sendDecision(t *testing.T, bookingID, managerID int64, decision decisionRequest, wantStatus int) decisionResult {
	t.Helper()

	body := sendDecisionRaw(t, bookingID, managerID, decision, wantStatus)

	var res decisionResult
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func sendDecisionRaw(t *testing.T, bookingID, managerID int64, decision decisionRequest, wantStatus int) *bytes.Buffer {
	t.Helper()

	payload, err := json.Marshal(decision)
	require.NoError(t, err)

	url := fmt.Sprintf("http://localhost%s/api/manager/bookings/%d/decision", httpAddress, bookingID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Manager-Id", fmt.Sprint(managerID))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)

	body := &bytes.Buffer{}
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return body
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(fmt.Sprintf("http://localhost%s/health", httpAddress))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

func seedBooking(t *testing.T, db *sqlx.DB, managerID int64) int64 {
	t.Helper()

	var bookingID int64
	err := db.Get(&bookingID, `
		INSERT INTO kitchen_bookings (location_id, manager_id, chef_id, status, booking_date, start_time, end_time, timezone, total_price_cents, payment_intent_id)
		VALUES (1, $1, 20, 'pending', '2026-03-05', '09:00', '13:00', 'America/New_York', 12000, 'pi_component_kitchen')
		RETURNING id
	`, managerID)
	require.NoError(t, err)
	return bookingID
}

func seedStorageItem(t *testing.T, db *sqlx.DB, bookingID, storageBookingID, priceCents int64) int64 {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO storage_items (booking_id, storage_booking_id, name, storage_type, status, total_price_cents, start_date, end_date, payment_intent_id)
		VALUES ($1, $2, 'Shelf', 'cold', 'pending', $3, '2026-03-05', '2026-03-12', 'pi_component_storage_' || $2)
	`, bookingID, storageBookingID, priceCents)
	require.NoError(t, err)
	return storageBookingID
}

func seedEquipmentItem(t *testing.T, db *sqlx.DB, bookingID int64, name string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO equipment_items (booking_id, name, total_price_cents)
		VALUES ($1, $2, 1500)
	`, bookingID, name)
	require.NoError(t, err)
}

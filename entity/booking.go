package entity

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type StorageType string

const (
	StorageTypeDry     StorageType = "dry"
	StorageTypeCold    StorageType = "cold"
	StorageTypeFreezer StorageType = "freezer"
)

// KitchenBooking is a chef's reservation of a kitchen slot. StartTime and
// EndTime are wall-clock HH:MM strings interpreted in the location's timezone.
type KitchenBooking struct {
	ID                  int64         `db:"id" json:"id"`
	LocationID          int64         `db:"location_id" json:"location_id"`
	ManagerID           int64         `db:"manager_id" json:"manager_id"`
	ChefID              int64         `db:"chef_id" json:"chef_id"`
	Status              BookingStatus `db:"status" json:"status"`
	BookingDate         time.Time     `db:"booking_date" json:"booking_date"`
	StartTime           string        `db:"start_time" json:"start_time"`
	EndTime             string        `db:"end_time" json:"end_time"`
	Timezone            string        `db:"timezone" json:"timezone"`
	TotalPriceCents     *int64        `db:"total_price_cents" json:"total_price_cents"`
	PaymentIntentID     string        `db:"payment_intent_id" json:"-"`
	CapturedAmountCents int64         `db:"captured_amount_cents" json:"-"`
	ChargeID            string        `db:"charge_id" json:"-"`
	DecisionClaimedAt   *time.Time    `db:"decision_claimed_at" json:"-"`
}

// PriceCents treats an absent price as "no charge".
func (b KitchenBooking) PriceCents() int64 {
	if b.TotalPriceCents == nil {
		return 0
	}
	return *b.TotalPriceCents
}

// StorageItem is a storage rental attached to a kitchen booking. The rental
// has its own lifecycle keyed by StorageBookingID, so a manager decides it
// independently of the parent booking.
type StorageItem struct {
	ID                  int64         `db:"id" json:"id"`
	BookingID           int64         `db:"booking_id" json:"booking_id"`
	StorageBookingID    int64         `db:"storage_booking_id" json:"storage_booking_id"`
	Name                string        `db:"name" json:"name"`
	StorageType         StorageType   `db:"storage_type" json:"storage_type"`
	Status              BookingStatus `db:"status" json:"status"`
	TotalPriceCents     *int64        `db:"total_price_cents" json:"total_price_cents"`
	StartDate           *time.Time    `db:"start_date" json:"start_date"`
	EndDate             *time.Time    `db:"end_date" json:"end_date"`
	PaymentIntentID     string        `db:"payment_intent_id" json:"-"`
	CapturedAmountCents int64         `db:"captured_amount_cents" json:"-"`
	ChargeID            string        `db:"charge_id" json:"-"`
}

func (s StorageItem) PriceCents() int64 {
	if s.TotalPriceCents == nil {
		return 0
	}
	return *s.TotalPriceCents
}

// EquipmentItem carries no decision of its own: it always follows the parent
// kitchen booking's outcome and its charge is bundled into the booking price.
type EquipmentItem struct {
	ID              int64  `db:"id" json:"id"`
	BookingID       int64  `db:"booking_id" json:"booking_id"`
	Name            string `db:"name" json:"name"`
	TotalPriceCents *int64 `db:"total_price_cents" json:"total_price_cents"`
}

// BookingAggregate is a kitchen booking with all attached line items, loaded
// in one consistent read.
type BookingAggregate struct {
	Booking        KitchenBooking
	StorageItems   []StorageItem
	EquipmentItems []EquipmentItem
}

func (a BookingAggregate) StorageItemByStorageBookingID(storageBookingID int64) (StorageItem, bool) {
	for _, item := range a.StorageItems {
		if item.StorageBookingID == storageBookingID {
			return item, true
		}
	}
	return StorageItem{}, false
}

// UnitOutcome is the persisted result of a decision for one billable unit.
type UnitOutcome struct {
	Status              BookingStatus
	CapturedAmountCents int64
	ChargeID            string
}

// DecisionOutcomes carries the statuses to persist after the payment phase.
// Kitchen is nil when the kitchen unit's payment operation failed; Storage is
// keyed by storage booking id and contains only the units that succeeded.
type DecisionOutcomes struct {
	Kitchen *UnitOutcome
	Storage map[int64]UnitOutcome
}

func (o UnitOutcome) String() string {
	return fmt.Sprintf("%s (captured %d)", o.Status, o.CapturedAmountCents)
}

package entity

// Requests to the payment provider. IdempotencyKey is derived from the unit
// reference and the operation kind, so a retried decision cannot double-charge
// or double-void.

type CaptureRequest struct {
	AuthorizationRef string
	AmountCents      int64
	IdempotencyKey   string
}

type CaptureResult struct {
	CapturedAmountCents int64
	ChargeID            string
}

type VoidRequest struct {
	AuthorizationRef string
	IdempotencyKey   string
}

type VoidResult struct{}

type RefundRequest struct {
	ChargeRef      string
	AmountCents    int64
	IdempotencyKey string
}

type RefundResult struct {
	RefundID string
}

// ChefNotification is the narrow contract of the notification service.
type ChefNotification struct {
	ChefID    int64  `json:"chef_id"`
	BookingID int64  `json:"booking_id"`
	Summary   string `json:"summary"`
}

package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"chefmarket/entity"
)

// PaymentsClient is the only component that talks to the payment provider.
// Bookings carry an authorization hold (a PaymentIntent in manual-capture
// mode) created when the chef booked; this client converts that hold into a
// charge, cancels it, or refunds a captured portion. Every operation carries
// an idempotency key so a retried decision has no additional effect.
type PaymentsClient struct {
	api *client.API
}

func NewPaymentsClient(apiKey string) PaymentsClient {
	api := &client.API{}
	api.Init(apiKey, nil)
	return PaymentsClient{api: api}
}

func (c PaymentsClient) Capture(ctx context.Context, request entity.CaptureRequest) (entity.CaptureResult, error) {
	// A unit approved at zero cost is a no-charge confirm, not an error.
	if request.AmountCents == 0 {
		return entity.CaptureResult{}, nil
	}

	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(request.AmountCents),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(request.IdempotencyKey)

	intent, err := c.api.PaymentIntents.Capture(request.AuthorizationRef, params)
	if err != nil {
		return entity.CaptureResult{}, CaptureError{Ref: request.AuthorizationRef, Err: err}
	}

	result := entity.CaptureResult{
		CapturedAmountCents: request.AmountCents,
	}
	if intent.LatestCharge != nil {
		result.ChargeID = intent.LatestCharge.ID
	}
	return result, nil
}

func (c PaymentsClient) Void(ctx context.Context, request entity.VoidRequest) (entity.VoidResult, error) {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(request.IdempotencyKey)

	if _, err := c.api.PaymentIntents.Cancel(request.AuthorizationRef, params); err != nil {
		return entity.VoidResult{}, VoidError{Ref: request.AuthorizationRef, Err: err}
	}
	return entity.VoidResult{}, nil
}

func (c PaymentsClient) Refund(ctx context.Context, request entity.RefundRequest) (entity.RefundResult, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(request.ChargeRef),
		Amount: stripe.Int64(request.AmountCents),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(request.IdempotencyKey)

	refund, err := c.api.Refunds.New(params)
	if err != nil {
		return entity.RefundResult{}, RefundError{Ref: request.ChargeRef, Err: err}
	}
	return entity.RefundResult{RefundID: refund.ID}, nil
}

type CaptureError struct {
	Ref string
	Err error
}

func (e CaptureError) Error() string {
	return fmt.Sprintf("capture failed for %s: %v", e.Ref, e.Err)
}

func (e CaptureError) Unwrap() error { return e.Err }

type VoidError struct {
	Ref string
	Err error
}

func (e VoidError) Error() string {
	return fmt.Sprintf("void failed for %s: %v", e.Ref, e.Err)
}

func (e VoidError) Unwrap() error { return e.Err }

type RefundError struct {
	Ref string
	Err error
}

func (e RefundError) Error() string {
	return fmt.Sprintf("refund failed for %s: %v", e.Ref, e.Err)
}

func (e RefundError) Unwrap() error { return e.Err }

package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefmarket/entity"
)

func TestPaymentsClient_Capture_zeroAmountIsNoOp(t *testing.T) {
	// No API key and no network: a zero-amount capture must succeed without
	// ever reaching the provider.
	client := NewPaymentsClient("")

	result, err := client.Capture(context.Background(), entity.CaptureRequest{
		AuthorizationRef: "pi_included_use",
		AmountCents:      0,
		IdempotencyKey:   "booking-1:capture",
	})
	require.NoError(t, err)
	assert.Zero(t, result.CapturedAmountCents)
	assert.Empty(t, result.ChargeID)
}

func TestPaymentsMock_Capture_zeroAmountSkipsFailureInjection(t *testing.T) {
	mock := &PaymentsMock{
		FailCaptures: map[string]error{"pi_included_use": assert.AnError},
	}

	// an amount the adapter never sends to the provider cannot fail in the
	// mock either
	result, err := mock.Capture(context.Background(), entity.CaptureRequest{
		AuthorizationRef: "pi_included_use",
		AmountCents:      0,
		IdempotencyKey:   "booking-1:capture",
	})
	require.NoError(t, err)
	assert.Zero(t, result.CapturedAmountCents)
	assert.Equal(t, 0, mock.OperationCount())

	_, err = mock.Capture(context.Background(), entity.CaptureRequest{
		AuthorizationRef: "pi_included_use",
		AmountCents:      500,
		IdempotencyKey:   "booking-1:capture",
	})
	require.Error(t, err)
}

package gateway

import (
	"context"
	"sync"

	"chefmarket/entity"
)

// PaymentsMock records operations keyed by idempotency key, so a retried
// operation overwrites its previous record instead of counting twice. Seed
// FailVoids / FailCaptures / FailRefunds with an authorization or charge ref
// to simulate provider failures for specific units.
type PaymentsMock struct {
	lock sync.Mutex

	Captures map[string]entity.CaptureRequest
	Voids    map[string]entity.VoidRequest
	Refunds  map[string]entity.RefundRequest

	FailCaptures map[string]error
	FailVoids    map[string]error
	FailRefunds  map[string]error
}

func (m *PaymentsMock) Capture(_ context.Context, request entity.CaptureRequest) (entity.CaptureResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	// mirror the adapter: a zero-amount capture never reaches the provider,
	// so it cannot fail either
	if request.AmountCents == 0 {
		return entity.CaptureResult{}, nil
	}
	if err, ok := m.FailCaptures[request.AuthorizationRef]; ok {
		return entity.CaptureResult{}, CaptureError{Ref: request.AuthorizationRef, Err: err}
	}

	if m.Captures == nil {
		m.Captures = map[string]entity.CaptureRequest{}
	}
	m.Captures[request.IdempotencyKey] = request

	return entity.CaptureResult{
		CapturedAmountCents: request.AmountCents,
		ChargeID:            "ch_" + request.AuthorizationRef,
	}, nil
}

func (m *PaymentsMock) Void(_ context.Context, request entity.VoidRequest) (entity.VoidResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err, ok := m.FailVoids[request.AuthorizationRef]; ok {
		return entity.VoidResult{}, VoidError{Ref: request.AuthorizationRef, Err: err}
	}

	if m.Voids == nil {
		m.Voids = map[string]entity.VoidRequest{}
	}
	m.Voids[request.IdempotencyKey] = request

	return entity.VoidResult{}, nil
}

func (m *PaymentsMock) Refund(_ context.Context, request entity.RefundRequest) (entity.RefundResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err, ok := m.FailRefunds[request.ChargeRef]; ok {
		return entity.RefundResult{}, RefundError{Ref: request.ChargeRef, Err: err}
	}

	if m.Refunds == nil {
		m.Refunds = map[string]entity.RefundRequest{}
	}
	m.Refunds[request.IdempotencyKey] = request

	return entity.RefundResult{RefundID: "re_" + request.ChargeRef}, nil
}

// OperationCount is the number of distinct payment operations performed.
func (m *PaymentsMock) OperationCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.Captures) + len(m.Voids) + len(m.Refunds)
}

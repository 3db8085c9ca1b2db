// Package approval implements the booking decision state machine: it applies
// a manager's per-item decisions to a kitchen booking aggregate, settles each
// billable unit against the payment provider, and persists the surviving
// statuses.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"chefmarket/entity"
	"chefmarket/metrics"
	"chefmarket/pkg/log"
	"chefmarket/pkg/money"
	"chefmarket/pkg/timeslot"
)

type PaymentGateway interface {
	Capture(ctx context.Context, request entity.CaptureRequest) (entity.CaptureResult, error)
	Void(ctx context.Context, request entity.VoidRequest) (entity.VoidResult, error)
	Refund(ctx context.Context, request entity.RefundRequest) (entity.RefundResult, error)
}

type BookingRepository interface {
	LoadForApproval(ctx context.Context, bookingID int64) (entity.BookingAggregate, error)
	ClaimForDecision(ctx context.Context, bookingID int64) error
	ReleaseClaim(ctx context.Context, bookingID int64) error
	PersistOutcomes(ctx context.Context, bookingID int64, outcomes entity.DecisionOutcomes) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Engine struct {
	repo     BookingRepository
	payments PaymentGateway
	events   EventPublisher
}

func NewEngine(repo BookingRepository, payments PaymentGateway, events EventPublisher) *Engine {
	return &Engine{
		repo:     repo,
		payments: payments,
		events:   events,
	}
}

type UnitKind string

const (
	UnitKitchen UnitKind = "kitchen"
	UnitStorage UnitKind = "storage"
)

// UnitResult reports how a single billable unit settled. Failed units keep
// their persisted status pending so the manager can retry just those.
type UnitResult struct {
	Kind                UnitKind      `json:"kind"`
	StorageBookingID    int64         `json:"storageBookingId,omitempty"`
	Outcome             entity.Action `json:"outcome,omitempty"`
	CapturedAmountCents int64         `json:"capturedAmountCents"`
	Succeeded           bool          `json:"succeeded"`
	Error               string        `json:"error,omitempty"`
}

type Result struct {
	BookingID         int64                `json:"bookingId"`
	Status            entity.BookingStatus `json:"status"`
	Kitchen           UnitResult           `json:"kitchen"`
	StorageResults    []UnitResult         `json:"storageResults"`
	EquipmentFollowed bool                 `json:"equipmentFollowed"`
}

func (r Result) AllSucceeded() bool {
	if !r.Kitchen.Succeeded {
		return false
	}
	for _, sr := range r.StorageResults {
		if !sr.Succeeded {
			return false
		}
	}
	return true
}

// billableUnit is one capturable amount against the chef's authorization:
// the kitchen booking itself or one storage rental.
type billableUnit struct {
	kind             UnitKind
	ref              string
	storageBookingID int64
	outcome          entity.Action
	priceCents       int64
	authorizationRef string
	capturedCents    int64
	chargeID         string
}

// Decide runs the full approval lifecycle for one decision payload. All
// client-error checks happen before the claim and before any payment call;
// after the payment phase every settled unit is persisted even if a sibling
// failed, because its money has already moved.
func (e *Engine) Decide(ctx context.Context, managerID int64, decision entity.ApprovalDecision) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	}()

	agg, err := e.repo.LoadForApproval(ctx, decision.BookingID)
	if err != nil {
		return Result{}, err
	}

	if agg.Booking.ManagerID != managerID {
		return Result{}, entity.ErrForbidden
	}

	// Re-deciding a fully settled booking is rejected, not silently repeated.
	// A booking with only some units still pending stays decidable so the
	// manager can retry the failed subset of a partial failure.
	if !hasPendingUnits(agg) {
		return Result{}, entity.ErrInvalidState
	}

	// Reject cross-booking storage references before touching any money.
	storageActions := lo.Associate(decision.StorageActions, func(a entity.StorageAction) (int64, entity.Action) {
		return a.StorageBookingID, a.Action
	})
	for storageBookingID := range storageActions {
		if _, ok := agg.StorageItemByStorageBookingID(storageBookingID); !ok {
			return Result{}, fmt.Errorf("storage booking %d: %w", storageBookingID, entity.ErrUnknownStorageReference)
		}
	}

	if err := e.repo.ClaimForDecision(ctx, decision.BookingID); err != nil {
		return Result{}, err
	}

	// Reload under the claim: the first snapshot validated ownership and
	// storage references (both immutable), but unit statuses may have moved
	// if this request raced a finishing decision. Settling from the fresh
	// snapshot keeps already-persisted units out of the payment phase.
	agg, err = e.repo.LoadForApproval(ctx, decision.BookingID)
	if err != nil {
		if releaseErr := e.repo.ReleaseClaim(ctx, decision.BookingID); releaseErr != nil {
			log.FromContext(ctx).WithError(releaseErr).Error("failed to release decision claim")
		}
		return Result{}, err
	}

	units := buildUnits(agg, decision.Status, storageActions)
	settled := e.settleUnits(ctx, units)

	res := buildResult(agg, decision, units, settled)
	outcomes := buildOutcomes(units, settled)

	if err := e.repo.PersistOutcomes(ctx, decision.BookingID, outcomes); err != nil {
		// Money already moved for the settled units; release the gate so a
		// retry (idempotent at the payment layer) can reconcile.
		if releaseErr := e.repo.ReleaseClaim(ctx, decision.BookingID); releaseErr != nil {
			log.FromContext(ctx).WithError(releaseErr).Error("failed to release decision claim")
		}
		return res, fmt.Errorf("%w: %w", entity.ErrPersistence, err)
	}

	e.notifyChef(ctx, agg, res)

	if !res.AllSucceeded() {
		metrics.DecisionsTotal.WithLabelValues("partial_failure").Inc()
		return res, entity.ErrPaymentIncomplete
	}

	metrics.DecisionsTotal.WithLabelValues(string(decision.Status)).Inc()
	return res, nil
}

func hasPendingUnits(agg entity.BookingAggregate) bool {
	if agg.Booking.Status == entity.BookingStatusPending {
		return true
	}
	for _, item := range agg.StorageItems {
		if item.Status == entity.BookingStatusPending {
			return true
		}
	}
	return false
}

// buildUnits selects the billable units this decision still has to settle.
// Units already decided in an earlier partially failed run are skipped, which
// makes a retry of the failed subset touch only the failed money.
func buildUnits(agg entity.BookingAggregate, kitchenAction entity.Action, storageActions map[int64]entity.Action) []billableUnit {
	var units []billableUnit
	if agg.Booking.Status == entity.BookingStatusPending {
		units = append(units, billableUnit{
			kind:             UnitKitchen,
			ref:              fmt.Sprintf("booking-%d", agg.Booking.ID),
			outcome:          kitchenAction,
			priceCents:       agg.Booking.PriceCents(),
			authorizationRef: agg.Booking.PaymentIntentID,
			capturedCents:    agg.Booking.CapturedAmountCents,
			chargeID:         agg.Booking.ChargeID,
		})
	}

	for _, item := range agg.StorageItems {
		if item.Status != entity.BookingStatusPending {
			continue
		}
		outcome, ok := storageActions[item.StorageBookingID]
		if !ok {
			// no explicit action: the item follows the kitchen decision
			outcome = kitchenAction
		}
		units = append(units, billableUnit{
			kind:             UnitStorage,
			ref:              fmt.Sprintf("storage-%d", item.StorageBookingID),
			storageBookingID: item.StorageBookingID,
			outcome:          outcome,
			priceCents:       item.PriceCents(),
			authorizationRef: item.PaymentIntentID,
			capturedCents:    item.CapturedAmountCents,
			chargeID:         item.ChargeID,
		})
	}

	return units
}

type settlement struct {
	capturedCents int64
	chargeID      string
	err           error
}

// settleUnits runs the provider calls for all units concurrently. Each call
// targets a disjoint payment reference, so concurrency is a latency
// optimization only; failures are collected per unit and never abort
// siblings.
func (e *Engine) settleUnits(ctx context.Context, units []billableUnit) []settlement {
	settled := make([]settlement, len(units))

	var g errgroup.Group
	for i := range units {
		i := i
		g.Go(func() error {
			settled[i] = e.settleUnit(ctx, units[i])
			return nil
		})
	}
	_ = g.Wait()

	return settled
}

func (e *Engine) settleUnit(ctx context.Context, unit billableUnit) settlement {
	logger := log.FromContext(ctx).WithField("unit", unit.ref)

	switch unit.outcome {
	case entity.ActionConfirmed:
		result, err := e.payments.Capture(ctx, entity.CaptureRequest{
			AuthorizationRef: unit.authorizationRef,
			AmountCents:      unit.priceCents,
			IdempotencyKey:   unit.ref + ":capture",
		})
		if err != nil {
			metrics.PaymentOperationsTotal.WithLabelValues("capture", "failed").Inc()
			logger.WithError(err).Error("capture failed")
			return settlement{err: err}
		}
		metrics.PaymentOperationsTotal.WithLabelValues("capture", "ok").Inc()
		return settlement{capturedCents: result.CapturedAmountCents, chargeID: result.ChargeID}

	case entity.ActionCancelled:
		// funds captured in an earlier partial flow must be refunded, a
		// still-open hold is voided
		if unit.capturedCents > 0 {
			_, err := e.payments.Refund(ctx, entity.RefundRequest{
				ChargeRef:      unit.chargeID,
				AmountCents:    unit.capturedCents,
				IdempotencyKey: unit.ref + ":refund",
			})
			if err != nil {
				metrics.PaymentOperationsTotal.WithLabelValues("refund", "failed").Inc()
				logger.WithError(err).Error("refund failed")
				return settlement{err: err}
			}
			metrics.PaymentOperationsTotal.WithLabelValues("refund", "ok").Inc()
			return settlement{capturedCents: -unit.capturedCents}
		}

		_, err := e.payments.Void(ctx, entity.VoidRequest{
			AuthorizationRef: unit.authorizationRef,
			IdempotencyKey:   unit.ref + ":void",
		})
		if err != nil {
			metrics.PaymentOperationsTotal.WithLabelValues("void", "failed").Inc()
			logger.WithError(err).Error("void failed")
			return settlement{err: err}
		}
		metrics.PaymentOperationsTotal.WithLabelValues("void", "ok").Inc()
		return settlement{}

	default:
		return settlement{err: fmt.Errorf("unknown action %q", unit.outcome)}
	}
}

func buildResult(agg entity.BookingAggregate, decision entity.ApprovalDecision, units []billableUnit, settled []settlement) Result {
	res := Result{
		BookingID:         agg.Booking.ID,
		Status:            agg.Booking.Status,
		EquipmentFollowed: len(agg.EquipmentItems) > 0,
	}
	if agg.Booking.Status != entity.BookingStatusPending {
		// kitchen unit settled in an earlier run; this call retries storage only
		res.Kitchen = UnitResult{
			Kind:      UnitKitchen,
			Outcome:   entity.Action(agg.Booking.Status),
			Succeeded: true,
		}
	}

	for i, unit := range units {
		ur := UnitResult{
			Kind:                unit.kind,
			StorageBookingID:    unit.storageBookingID,
			Outcome:             unit.outcome,
			CapturedAmountCents: settled[i].capturedCents,
			Succeeded:           settled[i].err == nil,
		}
		if settled[i].err != nil {
			ur.Error = settled[i].err.Error()
			ur.CapturedAmountCents = 0
		}

		if unit.kind == UnitKitchen {
			if ur.Succeeded {
				res.Status = entity.BookingStatus(decision.Status)
			}
			res.Kitchen = ur
		} else {
			res.StorageResults = append(res.StorageResults, ur)
		}
	}

	return res
}

func buildOutcomes(units []billableUnit, settled []settlement) entity.DecisionOutcomes {
	outcomes := entity.DecisionOutcomes{
		Storage: map[int64]entity.UnitOutcome{},
	}

	for i, unit := range units {
		if settled[i].err != nil {
			continue
		}

		outcome := entity.UnitOutcome{
			Status:              entity.BookingStatus(unit.outcome),
			CapturedAmountCents: settled[i].capturedCents,
			ChargeID:            settled[i].chargeID,
		}
		if unit.kind == UnitKitchen {
			outcomes.Kitchen = &outcome
		} else {
			outcomes.Storage[unit.storageBookingID] = outcome
		}
	}

	return outcomes
}

// notifyChef emits the decided event through the outbox. Best effort: a
// publish failure is logged, never surfaced, so the notification side channel
// cannot fail an approval.
func (e *Engine) notifyChef(ctx context.Context, agg entity.BookingAggregate, res Result) {
	// partial failures are retried by the manager; the chef hears about the
	// final state only
	if !res.AllSucceeded() {
		return
	}

	event := entity.BookingDecided{
		Header:    entity.NewEventHeaderWithIdempotencyKey(fmt.Sprintf("booking-%d:decided", agg.Booking.ID)),
		BookingID: agg.Booking.ID,
		ChefID:    agg.Booking.ChefID,
		Status:    res.Kitchen.Outcome,
		Summary:   buildSummary(agg, res),
	}

	if err := e.events.Publish(ctx, event); err != nil {
		log.FromContext(ctx).WithError(err).Error("failed to publish BookingDecided")
	}
}

func buildSummary(agg entity.BookingAggregate, res Result) string {
	slot, err := timeslot.FormatSlot(agg.Booking.BookingDate, agg.Booking.StartTime, agg.Booking.EndTime, agg.Booking.Timezone)
	if err != nil {
		slot = agg.Booking.BookingDate.Format("2006-01-02")
	}

	summary := fmt.Sprintf("Kitchen slot %s: %s", slot, res.Kitchen.Outcome)
	if res.Kitchen.Outcome == entity.ActionConfirmed && res.Kitchen.Succeeded {
		summary += fmt.Sprintf(" (%s)", money.FormatCents(agg.Booking.PriceCents()))
	}

	for _, sr := range res.StorageResults {
		if !sr.Succeeded {
			continue
		}
		item, ok := agg.StorageItemByStorageBookingID(sr.StorageBookingID)
		if !ok {
			continue
		}
		summary += fmt.Sprintf("; storage %q %s", item.Name, sr.Outcome)
	}

	return summary
}

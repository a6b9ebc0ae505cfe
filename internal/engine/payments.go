package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
)

const (
	kindPaymentPreDue         = "payment_predue"
	kindPaymentDueToday       = "payment_due_today"
	kindPaymentOverdue        = "payment_overdue"
	kindPaymentOverdueManager = "payment_overdue_manager"
	kindPaymentEscalation     = "payment_escalation_admin"
	kindPaymentCancelledAlert = "payment_cancelled_alert"
	kindCaseCreatedAlert      = "case_created_alert"
)

const day = 24 * time.Hour

// scanPaymentsPreDue walks dunnable payments due within the next seven
// days. Rungs, most severe first: due today (gated by the sweep wall-clock
// hour window), T-2d, T-7d. The due-today ledger kind embeds the calendar
// date so multiple window-aligned sweeps in one day still send at most once.
func (e *Engine) scanPaymentsPreDue(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	// The window opens at the start of the sweep day so a payment due
	// earlier today still lands on the due-today rung.
	payments, err := e.payments.ListDueWithin(ctx, dayStart(now), now.Add(7*day))
	if err != nil {
		e.log.Warn("payment pre-due query failed", "error", err)
		return res
	}

	for _, payment := range payments {
		if payment.DueDate == nil {
			continue
		}
		due := *payment.DueDate
		remaining := due.Sub(now)

		var kind, template, days string
		switch {
		case sameDay(due, now):
			// Sweeps outside the hour window skip the due-today rung
			// entirely; it is not picked up later that day unless the
			// cadence re-enters the window.
			hour := now.Hour()
			if hour < snap.DueHourStart || hour >= snap.DueHourEnd {
				continue
			}
			kind = kindPaymentDueToday + "_" + now.UTC().Format("2006-01-02")
			template = kindPaymentDueToday
		case remaining <= 2*day:
			kind = "predue_2d"
			template = kindPaymentPreDue
			days = "2"
		default:
			kind = "predue_7d"
			template = kindPaymentPreDue
			days = "7"
		}

		contact, err := e.payments.ClientContact(ctx, payment.ID)
		if err != nil {
			e.log.StoreError("payment client lookup", payment.ID.String(), err)
			res.SkippedEntities++
			continue
		}

		n := notify.Notification{
			Kind:     template,
			Tier:     domain.TierClient,
			EntityID: payment.ID,
			Phone:    contact.Phone,
			Data: map[string]string{
				"Name":   contact.Name,
				"Amount": formatAmount(payment.AmountCents),
				"Days":   days,
			},
		}
		// The ledger slot key may differ from the template kind (dated
		// due-today slots), so consume it explicitly.
		if e.remindAs(ctx, kind, n) {
			res.PaymentPreReminders++
		}
	}

	return res
}

// overdueRungs is the post-due ladder, most severe first. D+7 is an
// admin-only escalation with no further client contact.
var overdueRungs = []struct {
	days int
	kind string
}{
	{7, "overdue_7d"},
	{3, "overdue_3d"},
	{1, "overdue_1d"},
}

// scanPaymentsOverdue walks dunnable payments past their due date. Past the
// cancel threshold the non-payment cascade runs; otherwise the highest
// crossed rung fires once.
func (e *Engine) scanPaymentsOverdue(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	payments, err := e.payments.ListOverdue(ctx, now)
	if err != nil {
		e.log.Warn("payment overdue query failed", "error", err)
		return res
	}

	for _, payment := range payments {
		if payment.DueDate == nil {
			continue
		}
		overdueFor := now.Sub(*payment.DueDate)

		if overdueFor >= snap.PaymentCancelAfter {
			e.cancelPayment(ctx, payment, &res)
			continue
		}

		for _, rung := range overdueRungs {
			if overdueFor < time.Duration(rung.days)*day {
				continue
			}
			e.sendOverdueRung(ctx, payment, rung.days, rung.kind, &res)
			break
		}
	}

	return res
}

func (e *Engine) sendOverdueRung(ctx context.Context, payment domain.Payment, days int, kind string, res *SweepResult) {
	contact, err := e.payments.ClientContact(ctx, payment.ID)
	if err != nil {
		e.log.StoreError("payment client lookup", payment.ID.String(), err)
		res.SkippedEntities++
		return
	}

	data := map[string]string{
		"Name":      contact.Name,
		"Amount":    formatAmount(payment.AmountCents),
		"Days":      strconv.Itoa(days),
		"PaymentID": payment.ID.String(),
	}

	var n notify.Notification
	switch days {
	case 7:
		n = notify.Notification{
			Kind:     kindPaymentEscalation,
			Tier:     domain.TierAdmin,
			EntityID: payment.ID,
			Subject:  fmt.Sprintf("Escalada de inadimplência: pagamento %s", payment.ID),
			Data:     data,
		}
	default:
		n = notify.Notification{
			Kind:     kindPaymentOverdue,
			Tier:     domain.TierClient,
			EntityID: payment.ID,
			Phone:    contact.Phone,
			Data:     data,
		}
	}

	if !e.remindAs(ctx, kind, n) {
		return
	}
	res.PaymentPostReminders++

	// The D+3 rung notifies the manager tier alongside the client message.
	// The manager copy shares the rung's slot, so it is attempted once.
	if days == 3 {
		e.dispatch(ctx, notify.Notification{
			Kind:     kindPaymentOverdueManager,
			Tier:     domain.TierManager,
			EntityID: payment.ID,
			Subject:  fmt.Sprintf("Pagamento %s em atraso há 3 dias", payment.ID),
			Data:     data,
		})
	}
}

// cancelPayment applies the D+8 cascade: payment CANCELLED, linked contract
// (if any) CANCELLED, opportunity LOST with the non-payment reason.
func (e *Engine) cancelPayment(ctx context.Context, payment domain.Payment, res *SweepResult) {
	cancelled, err := e.payments.Cancel(ctx, payment.ID)
	if err != nil {
		e.log.StoreError("payment cancel", payment.ID.String(), err)
		res.SkippedEntities++
		return
	}
	if !cancelled {
		return
	}
	res.PaymentsCancelled++

	if payment.ContractID != nil {
		contractCancelled, err := e.contracts.Cancel(ctx, *payment.ContractID)
		if err != nil {
			e.log.StoreError("contract cancel (non-payment)", payment.ContractID.String(), err)
		} else if contractCancelled {
			res.ContractsCancelled++
		}
	}

	if err := e.opportunities.MarkLost(ctx, payment.OpportunityID, domain.LostReasonNonPayment); err != nil {
		e.log.StoreError("opportunity mark lost", payment.OpportunityID.String(), err)
	}

	e.dispatch(ctx, notify.Notification{
		Kind:     kindPaymentCancelledAlert,
		Tier:     domain.TierAdmin,
		EntityID: payment.ID,
		Subject:  fmt.Sprintf("Cascata de cancelamento: pagamento %s", payment.ID),
		Data: map[string]string{
			"PaymentID": payment.ID.String(),
		},
	})
}

// scanPaymentCascades handles confirmed payments whose contract has not yet
// been started. The whole cascade commits or rolls back as one transaction
// behind StartCase: the conditional claim on the contract's payment state
// guards against double case creation, and a store failure mid-cascade
// leaves the contract unclaimed so the next sweep retries the full unit.
func (e *Engine) scanPaymentCascades(ctx context.Context, now time.Time, _ settings.Snapshot) SweepResult {
	var res SweepResult

	payments, err := e.payments.ListConfirmedAwaitingCascade(ctx)
	if err != nil {
		e.log.Warn("payment cascade query failed", "error", err)
		return res
	}

	for _, payment := range payments {
		if payment.ContractID == nil {
			e.log.CascadeSkipped(payment.ID.String(), "confirmed payment has no linked contract")
			continue
		}

		contact, err := e.payments.ClientContact(ctx, payment.ID)
		if err != nil {
			e.log.StoreError("payment client lookup", payment.ID.String(), err)
			contact = ClientContact{}
		}

		sector := domain.SectorForInterest(contact.ServiceInterest)
		created, claimed, err := e.cascades.StartCase(ctx, StartCaseParams{
			ContractID:    *payment.ContractID,
			OpportunityID: payment.OpportunityID,
			Sector:        sector,
			ClientName:    contact.Name,
			ClientPhone:   contact.Phone,
			RoutingTitle:  "Roteamento inicial do caso",
			Now:           now,
		})
		if err != nil {
			e.log.StoreError("payment cascade", payment.ID.String(), err)
			res.SkippedEntities++
			continue
		}
		if !claimed {
			// Another sweep or the mirrored mutation got here first.
			// Skip-and-log, never retry in place.
			e.log.CascadeSkipped(payment.ID.String(), "contract payment state was not NOT_STARTED")
			continue
		}

		res.CasesCreated++

		e.dispatch(ctx, notify.Notification{
			Kind:     kindCaseCreatedAlert,
			Tier:     domain.TierManager,
			EntityID: created.ID,
			Subject:  fmt.Sprintf("Novo caso técnico criado (%s)", sector),
			Data: map[string]string{
				"Sector":     sector,
				"ContractID": payment.ContractID.String(),
			},
		})
	}

	return res
}

// remindAs consumes the given ledger slot and, when fresh, dispatches the
// notification. Used when the slot key differs from the template kind.
func (e *Engine) remindAs(ctx context.Context, slot string, n notify.Notification) bool {
	already, err := e.ledger.AlreadySent(ctx, n.EntityID, slot)
	if err != nil {
		e.log.StoreError("ledger check", n.EntityID.String(), err)
		return false
	}
	if already {
		return false
	}
	if err := e.ledger.MarkSent(ctx, n.EntityID, slot); err != nil {
		e.log.StoreError("ledger mark", n.EntityID.String(), err)
		return false
	}
	e.dispatch(ctx, n)
	return true
}

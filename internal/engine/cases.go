package engine

import (
	"context"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
)

const (
	kindDocReminder = "doc_reminder"
	kindTIEPickup   = "tie_pickup"
	kindOnboarding  = "onboarding"
)

// scanDocumentReminders nudges clients of cases parked waiting on documents.
// The cadence comes from the case priority and restarts from the last touch,
// so these repeat until the case moves on. Repetition is bounded by the
// touch timestamp rather than the ledger.
func (e *Engine) scanDocumentReminders(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	cases, err := e.cases.ListByStatus(ctx, []domain.CaseStatus{domain.CaseAguardandoDocumentos})
	if err != nil {
		e.log.Warn("document reminder query failed", "error", err)
		return res
	}

	for _, sc := range cases {
		cadence := snap.DocCadenceNormal
		if sc.Priority == domain.PriorityUrgent {
			cadence = snap.DocCadenceUrgent
		}
		if now.Sub(sc.LastTouchedAt) < cadence {
			continue
		}

		// Touch before dispatching so a send failure does not cause a
		// re-send on the very next sweep.
		if err := e.cases.TouchReminder(ctx, sc.ID, now); err != nil {
			e.log.StoreError("case touch", sc.ID.String(), err)
			res.SkippedEntities++
			continue
		}

		e.dispatch(ctx, notify.Notification{
			Kind:     kindDocReminder,
			Tier:     domain.TierClient,
			EntityID: sc.ID,
			Phone:    sc.ClientPhone,
			Data: map[string]string{
				"Name":   sc.ClientName,
				"Sector": sc.Sector,
			},
		})
		res.DocumentReminders++
	}

	return res
}

// scanTIEPickup reminds clients whose residence card is ready for pickup
// and has not been collected yet.
func (e *Engine) scanTIEPickup(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	cases, err := e.cases.ListByStatus(ctx, []domain.CaseStatus{domain.CaseDisponivelRetiradaTIE})
	if err != nil {
		e.log.Warn("tie pickup query failed", "error", err)
		return res
	}

	for _, sc := range cases {
		if sc.TIEPickedUpAt != nil {
			continue
		}
		if now.Sub(sc.LastTouchedAt) < snap.TIEPickupCadence {
			continue
		}

		if err := e.cases.TouchReminder(ctx, sc.ID, now); err != nil {
			e.log.StoreError("case touch", sc.ID.String(), err)
			res.SkippedEntities++
			continue
		}

		e.dispatch(ctx, notify.Notification{
			Kind:     kindTIEPickup,
			Tier:     domain.TierClient,
			EntityID: sc.ID,
			Phone:    sc.ClientPhone,
			Data: map[string]string{
				"Name": sc.ClientName,
			},
		})
		res.TIEPickupReminders++
	}

	return res
}

// scanOnboarding chases freshly created cases whose intake checklist is
// still open.
func (e *Engine) scanOnboarding(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	cases, err := e.cases.ListByStatus(ctx, []domain.CaseStatus{domain.CaseContatoInicial})
	if err != nil {
		e.log.Warn("onboarding query failed", "error", err)
		return res
	}

	for _, sc := range cases {
		if sc.OnboardingDone {
			continue
		}
		if now.Sub(sc.LastTouchedAt) < snap.OnboardingCadence {
			continue
		}

		if err := e.cases.TouchReminder(ctx, sc.ID, now); err != nil {
			e.log.StoreError("case touch", sc.ID.String(), err)
			res.SkippedEntities++
			continue
		}

		e.dispatch(ctx, notify.Notification{
			Kind:     kindOnboarding,
			Tier:     domain.TierClient,
			EntityID: sc.ID,
			Phone:    sc.ClientPhone,
			Data: map[string]string{
				"Name": sc.ClientName,
			},
		})
		res.OnboardingReminders++
	}

	return res
}

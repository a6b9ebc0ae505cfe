package engine

import (
	"context"
	"fmt"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
	"tramita_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	kindRequirementReminder = "requirement_reminder"
	kindMaxExtensions       = "requirement_max_extensions"
)

// scanRequirementReminders chases open authority exigencies on the same
// touch-based cadence as document reminders. The cadence follows the case
// priority, and the internal deadline decides urgency independently of it:
// within a day of the internal deadline the urgent cadence applies.
func (e *Engine) scanRequirementReminders(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	reqs, err := e.requirements.ListActive(ctx)
	if err != nil {
		e.log.Warn("requirement query failed", "error", err)
		return res
	}

	for _, req := range reqs {
		sc, err := e.cases.Get(ctx, req.CaseID)
		if err != nil {
			e.log.StoreError("requirement case lookup", req.CaseID.String(), err)
			res.SkippedEntities++
			continue
		}

		cadence := snap.DocCadenceNormal
		if sc.Priority == domain.PriorityUrgent || req.InternalDeadline.Sub(now) <= day {
			cadence = snap.DocCadenceUrgent
		}
		if now.Sub(req.UpdatedAt) < cadence {
			continue
		}

		if err := e.requirements.Touch(ctx, req.ID, now); err != nil {
			e.log.StoreError("requirement touch", req.ID.String(), err)
			res.SkippedEntities++
			continue
		}

		e.dispatch(ctx, notify.Notification{
			Kind:     kindRequirementReminder,
			Tier:     domain.TierClient,
			EntityID: req.ID,
			Phone:    sc.ClientPhone,
			Data: map[string]string{
				"Name":     sc.ClientName,
				"Deadline": formatDate(req.InternalDeadline),
			},
		})
		res.DocumentReminders++
	}

	return res
}

// RequestExtension pushes a requirement's official deadline by the
// configured increment and bumps its extension count. The count is bounded:
// past the soft limit an admin alert fires once, and an optional hard cap
// rejects further extensions outright.
func (e *Engine) RequestExtension(ctx context.Context, id uuid.UUID) (domain.Requirement, error) {
	snap := e.settings.Load(ctx)

	req, err := e.requirements.Get(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return domain.Requirement{}, err
		}
		return domain.Requirement{}, apperr.Store("requirement lookup failed", err)
	}

	if req.Status == domain.RequirementResponded || req.Status == domain.RequirementClosed {
		return domain.Requirement{}, apperr.Conflict("requirement is no longer extendable")
	}
	if snap.ExtensionHardCap && req.ExtensionCount >= snap.MaxExtensions {
		return domain.Requirement{}, apperr.Conflict(
			fmt.Sprintf("requirement reached the extension cap of %d", snap.MaxExtensions))
	}

	newDeadline := req.OfficialDeadline.Add(snap.ExtensionIncrement)
	newCount := req.ExtensionCount + 1
	if err := e.requirements.RecordExtension(ctx, id, newDeadline, newCount); err != nil {
		return domain.Requirement{}, apperr.Store("requirement extension failed", err)
	}
	req.OfficialDeadline = newDeadline
	req.ExtensionCount = newCount

	if newCount >= snap.MaxExtensions {
		e.remind(ctx, notify.Notification{
			Kind:     kindMaxExtensions,
			Tier:     domain.TierAdmin,
			EntityID: req.ID,
			Subject:  fmt.Sprintf("Exigência %s atingiu %d prorrogações", req.ID, newCount),
			Data: map[string]string{
				"RequirementID": req.ID.String(),
				"Max":           fmt.Sprintf("%d", snap.MaxExtensions),
			},
		})
	}

	return req, nil
}

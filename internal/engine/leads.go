package engine

import (
	"context"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
)

// Template kinds for the lead scanners. Welcome and re-engagement dedup via
// the lead's own message log, not the permanent ledger: welcome is guarded
// by "no outbound ever" and re-engagement by a 24h sliding window, because
// re-engagement may legitimately repeat.
const (
	kindLeadWelcome      = "lead_welcome"
	kindLeadReengagement = "lead_reengagement"
)

// scanLeads evaluates the lead ladder per entity, most severe first:
// auto-archive, then re-engagement, then welcome. At most one threshold
// fires per lead per sweep.
func (e *Engine) scanLeads(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	leads, err := e.leads.ListActive(ctx)
	if err != nil {
		e.log.Warn("lead scan query failed", "error", err)
		return res
	}

	for _, lead := range leads {
		switch {
		case e.tryArchiveLead(ctx, lead, now, snap, &res):
		case e.tryReengageLead(ctx, lead, now, snap, &res):
		default:
			e.tryWelcomeLead(ctx, lead, now, snap, &res)
		}
	}

	return res
}

func (e *Engine) tryArchiveLead(ctx context.Context, lead domain.Lead, now time.Time, snap settings.Snapshot, res *SweepResult) bool {
	if now.Sub(lead.UpdatedAt) < snap.ArchiveAfter {
		return false
	}
	if !domain.CanTransitionLead(lead.Status, domain.LeadArchived) {
		return false
	}

	boundary := now.Add(-snap.ArchiveAfter)
	replied, err := e.leads.HasInboundSince(ctx, lead.ID, boundary)
	if err != nil {
		e.log.StoreError("lead inbound check", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}
	if replied {
		return false
	}

	if err := e.leads.Archive(ctx, lead.ID); err != nil {
		e.log.StoreError("lead archive", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}

	res.Archived++
	return true
}

func (e *Engine) tryReengageLead(ctx context.Context, lead domain.Lead, now time.Time, snap settings.Snapshot, res *SweepResult) bool {
	if lead.Status != domain.LeadIncomplete {
		return false
	}
	if now.Sub(lead.UpdatedAt) < snap.ReengagementAfter {
		return false
	}

	contacted, err := e.leads.HasOutboundSince(ctx, lead.ID, now.Add(-snap.ReengagementQuiet))
	if err != nil {
		e.log.StoreError("lead outbound window check", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}
	if contacted {
		return false
	}

	if err := e.leads.RecordOutbound(ctx, lead.ID, now); err != nil {
		e.log.StoreError("lead outbound record", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}

	e.dispatch(ctx, notify.Notification{
		Kind:     kindLeadReengagement,
		Tier:     domain.TierClient,
		EntityID: lead.ID,
		Phone:    lead.ContactPhone,
		Data: map[string]string{
			"Name": lead.ContactName,
		},
	})
	res.Reengagements++
	return true
}

func (e *Engine) tryWelcomeLead(ctx context.Context, lead domain.Lead, now time.Time, snap settings.Snapshot, res *SweepResult) bool {
	if now.Sub(lead.CreatedAt) < snap.WelcomeDelay {
		return false
	}

	contacted, err := e.leads.HasOutboundMessage(ctx, lead.ID)
	if err != nil {
		e.log.StoreError("lead outbound check", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}
	if contacted {
		return false
	}

	if err := e.leads.RecordOutbound(ctx, lead.ID, now); err != nil {
		e.log.StoreError("lead outbound record", lead.ID.String(), err)
		res.SkippedEntities++
		return true
	}

	e.dispatch(ctx, notify.Notification{
		Kind:     kindLeadWelcome,
		Tier:     domain.TierClient,
		EntityID: lead.ID,
		Phone:    lead.ContactPhone,
		Data: map[string]string{
			"Name":     lead.ContactName,
			"Interest": lead.ServiceInterest,
		},
	})
	res.WelcomeMessages++
	return true
}

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
	kindContractReminder       = "contract_reminder"
	kindContractCancelledAlert = "contract_cancelled_alert"
)

// contractRungs is the reminder ladder for unsigned contracts, most severe
// first. Each rung is independently deduplicated under its own ledger kind.
var contractRungs = []struct {
	days int
	kind string
}{
	{3, "D3"},
	{2, "D2"},
	{1, "D1"},
}

// scanContracts walks contracts awaiting signature. Past the cancel
// threshold the contract is cancelled unconditionally and its opportunity
// marked lost; otherwise the highest crossed reminder rung fires once.
func (e *Engine) scanContracts(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult {
	var res SweepResult

	contracts, err := e.contracts.ListAwaitingSignature(ctx)
	if err != nil {
		e.log.Warn("contract scan query failed", "error", err)
		return res
	}

	for _, contract := range contracts {
		base := contract.CreatedAt
		if contract.SentAt != nil {
			base = *contract.SentAt
		}
		elapsed := now.Sub(base)

		if elapsed >= snap.ContractCancelAfter {
			e.cancelContract(ctx, contract, snap, &res)
			continue
		}

		for _, rung := range contractRungs {
			if elapsed < time.Duration(rung.days)*24*time.Hour {
				continue
			}
			// Only the highest crossed rung is considered; lower rungs
			// are superseded once a more severe one is reached.
			contact, err := e.contracts.ClientContact(ctx, contract.ID)
			if err != nil {
				e.log.StoreError("contract client lookup", contract.ID.String(), err)
				res.SkippedEntities++
				break
			}
			if e.remindAs(ctx, rung.kind, notify.Notification{
				Kind:     kindContractReminder,
				Tier:     domain.TierClient,
				EntityID: contract.ID,
				Phone:    contact.Phone,
				Data: map[string]string{
					"Name": contact.Name,
					"Days": strconv.Itoa(rung.days),
				},
			}) {
				res.ContractReminders++
			}
			break
		}
	}

	return res
}

// cancelContract applies the D+7 cascade: contract CANCELLED, opportunity
// LOST with the fixed reason. The cancellation is idempotent and not itself
// deduplicated; the internal alert fires only when this sweep did the cancel.
func (e *Engine) cancelContract(ctx context.Context, contract domain.Contract, snap settings.Snapshot, res *SweepResult) {
	cancelled, err := e.contracts.Cancel(ctx, contract.ID)
	if err != nil {
		e.log.StoreError("contract cancel", contract.ID.String(), err)
		res.SkippedEntities++
		return
	}
	if !cancelled {
		return
	}

	if err := e.opportunities.MarkLost(ctx, contract.OpportunityID, domain.LostReasonContractExpired); err != nil {
		e.log.StoreError("opportunity mark lost", contract.OpportunityID.String(), err)
	}

	res.ContractsCancelled++

	days := int(snap.ContractCancelAfter / (24 * time.Hour))
	e.dispatch(ctx, notify.Notification{
		Kind:     kindContractCancelledAlert,
		Tier:     domain.TierManager,
		EntityID: contract.ID,
		Subject:  fmt.Sprintf("Contrato %s cancelado por falta de assinatura", contract.ID),
		Data: map[string]string{
			"ContractID": contract.ID.String(),
			"Days":       strconv.Itoa(days),
		},
	})
}

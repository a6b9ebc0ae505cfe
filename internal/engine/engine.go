// Package engine implements the periodic workflow sweep: it evaluates every
// active entity against the resolved SLA thresholds, emits at-most-once
// reminders per threshold crossing, and applies the cascading state
// transitions. One invocation is one logical sweep; the caller injects `now`
// so sweeps are deterministic under test.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
	"tramita_backend/platform/apperr"
	"tramita_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Deps wires the engine's collaborators. Stores and the notifier are
// interfaces so sweeps can run against in-memory fakes.
type Deps struct {
	Settings      *settings.Resolver
	Leads         LeadStore
	Contracts     ContractStore
	Opportunities OpportunityStore
	Payments      PaymentStore
	Cascades      CascadeStore
	Cases         CaseStore
	Requirements  RequirementStore
	Ledger        Ledger
	Notifier      Notifier
	Health        HealthChecker
	Logger        *logger.Logger
}

// Engine runs sweeps. Scanners touch disjoint entity categories and may run
// concurrently; all writes for a single entity happen sequentially inside
// its scanner.
type Engine struct {
	settings      *settings.Resolver
	leads         LeadStore
	contracts     ContractStore
	opportunities OpportunityStore
	payments      PaymentStore
	cascades      CascadeStore
	cases         CaseStore
	requirements  RequirementStore
	ledger        Ledger
	notifier      Notifier
	health        HealthChecker
	log           *logger.Logger
}

// New creates an engine from its dependencies.
func New(deps Deps) *Engine {
	return &Engine{
		settings:      deps.Settings,
		leads:         deps.Leads,
		contracts:     deps.Contracts,
		opportunities: deps.Opportunities,
		payments:      deps.Payments,
		cascades:      deps.Cascades,
		cases:         deps.Cases,
		requirements:  deps.Requirements,
		ledger:        deps.Ledger,
		notifier:      deps.Notifier,
		health:        deps.Health,
		log:           deps.Logger,
	}
}

// scanner is one entity-category pass over the store.
type scanner struct {
	name string
	run  func(ctx context.Context, now time.Time, snap settings.Snapshot) SweepResult
}

// RunSweep executes one full sweep as of `now`. It returns an error only
// when the store is unreachable before any write happens; every other
// failure is scoped to a single entity's unit of work and logged.
func (e *Engine) RunSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	started := time.Now()

	if e.health != nil {
		if err := e.health.Ping(ctx); err != nil {
			return SweepResult{}, apperr.Store("store unreachable, sweep aborted", err)
		}
	}

	snap := e.settings.Load(ctx)

	scanners := []scanner{
		{name: "leads", run: e.scanLeads},
		{name: "contracts", run: e.scanContracts},
		{name: "payments_predue", run: e.scanPaymentsPreDue},
		{name: "payments_overdue", run: e.scanPaymentsOverdue},
		{name: "payment_cascade", run: e.scanPaymentCascades},
		{name: "documents", run: e.scanDocumentReminders},
		{name: "requirements", run: e.scanRequirementReminders},
		{name: "tie_pickup", run: e.scanTIEPickup},
		{name: "onboarding", run: e.scanOnboarding},
	}

	result := SweepResult{Timestamp: now.UTC()}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, s := range scanners {
		s := s
		g.Go(func() error {
			part := s.run(gctx, now, snap)
			mu.Lock()
			result.add(part)
			mu.Unlock()
			return nil
		})
	}
	// Scanners never return errors; per-entity failures are logged and
	// skipped inside each run.
	_ = g.Wait()

	e.log.SweepCompleted(float64(time.Since(started).Milliseconds()), result.TotalActions())
	return result, nil
}

// dispatch fires one notification and swallows the failure. State
// transitions and ledger marks are already committed by the time this runs.
func (e *Engine) dispatch(ctx context.Context, n notify.Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Dispatch(ctx, n); err != nil {
		e.log.DispatchFailed(n.Kind, n.EntityID.String(), err)
	}
}

// remind consumes the (entity, kind) reminder slot and then dispatches.
// Returns false when the slot was already consumed or could not be marked;
// the dispatch only happens after the mark is committed, so a crash between
// the two costs a message, never a duplicate.
func (e *Engine) remind(ctx context.Context, n notify.Notification) bool {
	return e.remindAs(ctx, n.Kind, n)
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("€ %d,%02d", cents/100, cents%100)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

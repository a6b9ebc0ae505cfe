package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"
	"tramita_backend/internal/settings"
	"tramita_backend/platform/logger"

	"github.com/google/uuid"
)

// fixture bundles the in-memory fakes behind the engine's ports. All fakes
// are safe for the engine's concurrent scanners.

type fixture struct {
	leads         *fakeLeads
	contracts     *fakeContracts
	opportunities *fakeOpportunities
	payments      *fakePayments
	cascades      *fakeCascades
	cases         *fakeCases
	requirements  *fakeRequirements
	ledger        *memLedger
	notifier      *recordingNotifier
	settings      map[string]string
}

func newFixture() *fixture {
	f := &fixture{
		leads:         &fakeLeads{outbound: map[uuid.UUID][]time.Time{}, inbound: map[uuid.UUID][]time.Time{}},
		contracts:     &fakeContracts{byID: map[uuid.UUID]*domain.Contract{}, contacts: map[uuid.UUID]ClientContact{}},
		opportunities: &fakeOpportunities{lost: map[uuid.UUID]string{}, won: map[uuid.UUID]bool{}},
		payments:      &fakePayments{byID: map[uuid.UUID]*domain.Payment{}, contacts: map[uuid.UUID]ClientContact{}},
		cases:         &fakeCases{byID: map[uuid.UUID]*domain.ServiceCase{}},
		requirements:  &fakeRequirements{byID: map[uuid.UUID]*domain.Requirement{}},
		ledger:        &memLedger{slots: map[string]bool{}},
		notifier:      &recordingNotifier{},
		settings:      map[string]string{},
	}
	f.cascades = &fakeCascades{contracts: f.contracts, opportunities: f.opportunities, cases: f.cases}
	return f
}

func (f *fixture) engine() *Engine {
	log := logger.New("development")
	return New(Deps{
		Settings:      settings.NewResolver(staticReader(f.settings), log),
		Leads:         f.leads,
		Contracts:     f.contracts,
		Opportunities: f.opportunities,
		Payments:      f.payments,
		Cascades:      f.cascades,
		Cases:         f.cases,
		Requirements:  f.requirements,
		Ledger:        f.ledger,
		Notifier:      f.notifier,
		Health:        healthOK{},
		Logger:        log,
	})
}

type healthOK struct{}

func (healthOK) Ping(context.Context) error { return nil }

type staticReader map[string]string

func (r staticReader) ReadSettings(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, key := range keys {
		if v, ok := r[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

type fakeLeads struct {
	mu       sync.Mutex
	leads    []domain.Lead
	outbound map[uuid.UUID][]time.Time
	inbound  map[uuid.UUID][]time.Time
	archived []uuid.UUID
}

func (f *fakeLeads) add(l domain.Lead) { f.leads = append(f.leads, l) }

func (f *fakeLeads) ListActive(context.Context) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Lead
	for _, l := range f.leads {
		if !domain.IsTerminalLead(l.Status) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeads) HasOutboundMessage(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outbound[id]) > 0, nil
}

func (f *fakeLeads) HasOutboundSince(_ context.Context, id uuid.UUID, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, at := range f.outbound[id] {
		if !at.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeads) HasInboundSince(_ context.Context, id uuid.UUID, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, at := range f.inbound[id] {
		if !at.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeads) RecordOutbound(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbound[id] = append(f.outbound[id], at)
	return nil
}

func (f *fakeLeads) Archive(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leads {
		if f.leads[i].ID == id {
			f.leads[i].Status = domain.LeadArchived
		}
	}
	f.archived = append(f.archived, id)
	return nil
}

type fakeContracts struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*domain.Contract
	contacts map[uuid.UUID]ClientContact
}

func (f *fakeContracts) add(c domain.Contract, contact ClientContact) {
	cc := c
	f.byID[c.ID] = &cc
	f.contacts[c.ID] = contact
}

func (f *fakeContracts) ListAwaitingSignature(context.Context) ([]domain.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Contract
	for _, c := range f.byID {
		if c.Status == domain.ContractSent {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeContracts) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || domain.IsTerminalContract(c.Status) {
		return false, nil
	}
	c.Status = domain.ContractCancelled
	return true, nil
}

func (f *fakeContracts) claimPaymentStart(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.PaymentState != domain.PaymentNotStarted {
		return false
	}
	c.PaymentState = domain.PaymentStarted
	return true
}

func (f *fakeContracts) releaseClaim(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		c.PaymentState = domain.PaymentNotStarted
	}
}

func (f *fakeContracts) ClientContact(_ context.Context, id uuid.UUID) (ClientContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts[id], nil
}

func (f *fakeContracts) get(id uuid.UUID) domain.Contract {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

type fakeOpportunities struct {
	mu   sync.Mutex
	won  map[uuid.UUID]bool
	lost map[uuid.UUID]string
}

func (f *fakeOpportunities) MarkWon(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.won[id] = true
	return nil
}

func (f *fakeOpportunities) MarkLost(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lost[id] = reason
	return nil
}

type fakePayments struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*domain.Payment
	contacts map[uuid.UUID]ClientContact
}

func (f *fakePayments) add(p domain.Payment, contact ClientContact) {
	pp := p
	f.byID[p.ID] = &pp
	f.contacts[p.ID] = contact
}

func (f *fakePayments) dunnable(p *domain.Payment) bool {
	for _, s := range domain.DunnablePaymentStatuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

func (f *fakePayments) ListDueWithin(_ context.Context, from, until time.Time) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.byID {
		if !f.dunnable(p) || p.DueDate == nil {
			continue
		}
		if p.DueDate.Before(from) || p.DueDate.After(until) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakePayments) ListOverdue(_ context.Context, now time.Time) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.byID {
		if !f.dunnable(p) || p.DueDate == nil {
			continue
		}
		if p.DueDate.Before(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakePayments) ListConfirmedAwaitingCascade(context.Context) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.byID {
		if p.Status == domain.PaymentConfirmed {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakePayments) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status == domain.PaymentCancelled {
		return false, nil
	}
	p.Status = domain.PaymentCancelled
	return true, nil
}

func (f *fakePayments) ClientContact(_ context.Context, id uuid.UUID) (ClientContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts[id], nil
}

func (f *fakePayments) get(id uuid.UUID) domain.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

type fakeCases struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.ServiceCase
	routing []uuid.UUID
}

func (f *fakeCases) add(sc domain.ServiceCase) {
	cc := sc
	f.byID[sc.ID] = &cc
}

func (f *fakeCases) Get(_ context.Context, id uuid.UUID) (domain.ServiceCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id], nil
}

func (f *fakeCases) ListByStatus(_ context.Context, statuses []domain.CaseStatus) ([]domain.ServiceCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServiceCase
	for _, sc := range f.byID {
		for _, status := range statuses {
			if sc.Status == status {
				out = append(out, *sc)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeCases) TouchReminder(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].LastTouchedAt = at
	return nil
}

func (f *fakeCases) insert(sc domain.ServiceCase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cc := sc
	f.byID[sc.ID] = &cc
}

func (f *fakeCases) addRoutingTask(caseID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routing = append(f.routing, caseID)
}

func (f *fakeCases) countByContract(contract uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sc := range f.byID {
		if sc.ContractID == contract {
			n++
		}
	}
	return n
}

// fakeCascades mimics the transactional cascade store: a failure injected
// via failures rolls the claim back, like an aborted transaction would.
type fakeCascades struct {
	mu            sync.Mutex
	contracts     *fakeContracts
	opportunities *fakeOpportunities
	cases         *fakeCases
	failures      int
}

func (f *fakeCascades) StartCase(ctx context.Context, params StartCaseParams) (domain.ServiceCase, bool, error) {
	if !f.contracts.claimPaymentStart(params.ContractID) {
		return domain.ServiceCase{}, false, nil
	}

	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		f.contracts.releaseClaim(params.ContractID)
		return domain.ServiceCase{}, false, errors.New("insert service case: connection reset")
	}

	_ = f.opportunities.MarkWon(ctx, params.OpportunityID)

	sc := domain.ServiceCase{
		ID:            uuid.New(),
		ContractID:    params.ContractID,
		Sector:        params.Sector,
		Status:        domain.CaseContatoInicial,
		Priority:      domain.PriorityNormal,
		ClientName:    params.ClientName,
		ClientPhone:   params.ClientPhone,
		LastTouchedAt: params.Now,
		CreatedAt:     params.Now,
	}
	f.cases.insert(sc)
	f.cases.addRoutingTask(sc.ID)
	return sc, true, nil
}

type fakeRequirements struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Requirement
}

func (f *fakeRequirements) add(r domain.Requirement) {
	rr := r
	f.byID[r.ID] = &rr
}

func (f *fakeRequirements) Get(_ context.Context, id uuid.UUID) (domain.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id], nil
}

func (f *fakeRequirements) ListActive(context.Context) ([]domain.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Requirement
	for _, r := range f.byID {
		for _, status := range domain.ActiveRequirementStatuses {
			if r.Status == status {
				out = append(out, *r)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeRequirements) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].UpdatedAt = at
	return nil
}

func (f *fakeRequirements) RecordExtension(_ context.Context, id uuid.UUID, newDeadline time.Time, newCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.byID[id]
	r.OfficialDeadline = newDeadline
	r.ExtensionCount = newCount
	r.Status = domain.RequirementExtended
	return nil
}

// memLedger is the in-memory at-most-once slot store.
type memLedger struct {
	mu    sync.Mutex
	slots map[string]bool
	marks int
}

func slotKey(entityID uuid.UUID, kind string) string {
	return entityID.String() + "/" + kind
}

func (l *memLedger) AlreadySent(_ context.Context, entityID uuid.UUID, kind string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots[slotKey(entityID, kind)], nil
}

func (l *memLedger) MarkSent(_ context.Context, entityID uuid.UUID, kind string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[slotKey(entityID, kind)] = true
	l.marks++
	return nil
}

func (l *memLedger) has(entityID uuid.UUID, kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots[slotKey(entityID, kind)]
}

// recordingNotifier captures dispatched notifications; when err is set every
// dispatch fails.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Dispatch(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind string) []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Notification
	for _, msg := range n.sent {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

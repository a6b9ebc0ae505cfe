package engine

import (
	"context"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/notify"

	"github.com/google/uuid"
)

// ClientContact is the outbound-message view of the person behind an entity.
type ClientContact struct {
	Name            string
	Phone           string
	ServiceInterest string
}

// LeadStore reads lead candidates and applies the archive transition.
type LeadStore interface {
	// ListActive returns leads in the archivable (non-terminal) statuses.
	ListActive(ctx context.Context) ([]domain.Lead, error)
	// HasOutboundMessage reports whether any outbound message was ever sent.
	HasOutboundMessage(ctx context.Context, leadID uuid.UUID) (bool, error)
	// HasOutboundSince reports outbound activity inside a sliding window.
	HasOutboundSince(ctx context.Context, leadID uuid.UUID, since time.Time) (bool, error)
	// HasInboundSince reports client replies since the given instant.
	HasInboundSince(ctx context.Context, leadID uuid.UUID, since time.Time) (bool, error)
	// RecordOutbound appends an outbound message marker for the lead.
	RecordOutbound(ctx context.Context, leadID uuid.UUID, at time.Time) error
	// Archive moves the lead to ARCHIVED_NO_RESPONSE.
	Archive(ctx context.Context, leadID uuid.UUID) error
}

// ContractStore reads unsigned contracts and applies contract transitions.
type ContractStore interface {
	// ListAwaitingSignature returns contracts in status SENT.
	ListAwaitingSignature(ctx context.Context) ([]domain.Contract, error)
	// Cancel moves the contract to CANCELLED. Returns false when the
	// contract was already terminal (idempotent no-op).
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
	// ClientContact resolves the client behind the contract's opportunity.
	ClientContact(ctx context.Context, id uuid.UUID) (ClientContact, error)
}

// OpportunityStore applies the commercial verdict transitions.
type OpportunityStore interface {
	MarkWon(ctx context.Context, id uuid.UUID) error
	MarkLost(ctx context.Context, id uuid.UUID, reason string) error
}

// PaymentStore reads due payments and applies the cancel transition.
type PaymentStore interface {
	// ListDueWithin returns dunnable payments whose due date falls in
	// [from, until].
	ListDueWithin(ctx context.Context, from, until time.Time) ([]domain.Payment, error)
	// ListOverdue returns dunnable payments whose due date is before now.
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error)
	// ListConfirmedAwaitingCascade returns confirmed payments whose linked
	// contract still has aggregate payment state NOT_STARTED.
	ListConfirmedAwaitingCascade(ctx context.Context) ([]domain.Payment, error)
	// Cancel moves the payment to CANCELLED. Returns false when already
	// terminal.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
	// ClientContact resolves the client behind the payment's opportunity.
	ClientContact(ctx context.Context, id uuid.UUID) (ClientContact, error)
}

// StartCaseParams seeds the payment-confirmation cascade.
type StartCaseParams struct {
	ContractID    uuid.UUID
	OpportunityID uuid.UUID
	Sector        string
	ClientName    string
	ClientPhone   string
	RoutingTitle  string
	Now           time.Time
}

// CascadeStore runs the payment-confirmation cascade as one unit of work.
type CascadeStore interface {
	// StartCase flips the contract's aggregate payment state from
	// NOT_STARTED to STARTED and, in the same transaction, marks the
	// opportunity won, inserts the service case in CONTATO_INICIAL and
	// opens its routing task. Returns claimed=false without writing when
	// the state was already STARTED. On error nothing is committed, so the
	// next sweep retries the whole unit.
	StartCase(ctx context.Context, params StartCaseParams) (created domain.ServiceCase, claimed bool, err error)
}

// CaseStore reads service cases for the cadence scanners.
type CaseStore interface {
	Get(ctx context.Context, id uuid.UUID) (domain.ServiceCase, error)
	// ListByStatus returns non-terminal cases in the given statuses.
	ListByStatus(ctx context.Context, statuses []domain.CaseStatus) ([]domain.ServiceCase, error)
	// TouchReminder resets the case's reminder baseline to the given time.
	TouchReminder(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RequirementStore reads authority exigencies and records extensions.
type RequirementStore interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
	// ListActive returns requirements in the reminder-bearing statuses.
	ListActive(ctx context.Context) ([]domain.Requirement, error)
	// Touch resets the requirement's reminder baseline.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordExtension persists the incremented count and pushed deadline
	// and moves the requirement to EXTENDED.
	RecordExtension(ctx context.Context, id uuid.UUID, newDeadline time.Time, newCount int) error
}

// Ledger is the at-most-once reminder slot store.
type Ledger interface {
	AlreadySent(ctx context.Context, entityID uuid.UUID, kind string) (bool, error)
	MarkSent(ctx context.Context, entityID uuid.UUID, kind string) error
}

// Notifier dispatches one rendered notification, best-effort.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification) error
}

// HealthChecker verifies the store is reachable before a sweep starts.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

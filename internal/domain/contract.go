package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus is the lifecycle status of a service contract.
type ContractStatus string

const (
	ContractDrafting  ContractStatus = "DRAFTING"
	ContractInReview  ContractStatus = "IN_REVIEW"
	ContractSent      ContractStatus = "SENT"
	ContractSigned    ContractStatus = "SIGNED"
	ContractCancelled ContractStatus = "CANCELLED"
)

var contractTransitions = map[ContractStatus]map[ContractStatus]bool{
	ContractDrafting:  {ContractInReview: true, ContractSent: true, ContractCancelled: true},
	ContractInReview:  {ContractSent: true, ContractCancelled: true},
	ContractSent:      {ContractSigned: true, ContractCancelled: true},
	// A signed contract can still be cancelled by the non-payment cascade.
	ContractSigned:    {ContractCancelled: true},
	ContractCancelled: {},
}

// CanTransitionContract reports whether a contract may move between statuses.
func CanTransitionContract(from, to ContractStatus) bool {
	nexts, ok := contractTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// IsTerminalContract reports whether no transition can leave the status.
func IsTerminalContract(status ContractStatus) bool {
	return status == ContractCancelled
}

// PaymentState is the contract's aggregate payment state. It is the
// transactional guard for the case-creation cascade: the first confirmed
// payment claims the NOT_STARTED -> STARTED edge exactly once.
type PaymentState string

const (
	PaymentNotStarted PaymentState = "NOT_STARTED"
	PaymentStarted    PaymentState = "STARTED"
)

// Contract is a signed-or-pending service agreement under an opportunity.
type Contract struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	Status        ContractStatus
	PaymentState  PaymentState
	SentAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

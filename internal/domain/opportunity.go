package domain

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityStatus is the commercial stage of an opportunity.
type OpportunityStatus string

const (
	OpportunityOpen OpportunityStatus = "OPEN"
	OpportunityWon  OpportunityStatus = "WON"
	OpportunityLost OpportunityStatus = "LOST"
)

// Fixed loss reasons recorded by the cancellation cascades.
const (
	LostReasonContractExpired = "contract not signed in time"
	LostReasonNonPayment      = "non-payment"
)

// Opportunity links a lead to its commercial negotiation.
type Opportunity struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Status     OpportunityStatus
	LostReason *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle status of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentInReview  PaymentStatus = "IN_REVIEW"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:   {PaymentInReview: true, PaymentConfirmed: true, PaymentPartial: true, PaymentCancelled: true},
	PaymentInReview:  {PaymentConfirmed: true, PaymentPartial: true, PaymentCancelled: true},
	PaymentPartial:   {PaymentConfirmed: true, PaymentCancelled: true},
	PaymentConfirmed: {PaymentRefunded: true},
	PaymentRefunded:  {},
	PaymentCancelled: {},
}

// CanTransitionPayment reports whether a payment may move between statuses.
func CanTransitionPayment(from, to PaymentStatus) bool {
	nexts, ok := paymentTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// DunnablePaymentStatuses are the statuses the due-date ladders watch.
var DunnablePaymentStatuses = []PaymentStatus{PaymentPending, PaymentPartial}

// Payment is a charge under a contract (or directly under an opportunity
// for pre-contract fees).
type Payment struct {
	ID            uuid.UUID
	ContractID    *uuid.UUID
	OpportunityID uuid.UUID
	Status        PaymentStatus
	AmountCents   int64
	DueDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

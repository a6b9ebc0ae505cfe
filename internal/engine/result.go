package engine

import "time"

// SweepResult is the JSON-serializable summary returned to the trigger.
type SweepResult struct {
	Timestamp            time.Time `json:"timestamp"`
	WelcomeMessages      int       `json:"welcomeMessages"`
	Reengagements        int       `json:"reengagements"`
	Archived             int       `json:"archived"`
	ContractReminders    int       `json:"contractReminders"`
	ContractsCancelled   int       `json:"contractsCancelled"`
	PaymentPreReminders  int       `json:"paymentPreReminders"`
	PaymentPostReminders int       `json:"paymentPostReminders"`
	PaymentsCancelled    int       `json:"paymentsCancelled"`
	CasesCreated         int       `json:"casesCreated"`
	DocumentReminders    int       `json:"documentReminders"`
	OnboardingReminders  int       `json:"onboardingReminders"`
	TIEPickupReminders   int       `json:"tiePickupReminders"`
	SkippedEntities      int       `json:"skippedEntities"`
}

// TotalActions sums every counter except skips.
func (r SweepResult) TotalActions() int {
	return r.WelcomeMessages + r.Reengagements + r.Archived +
		r.ContractReminders + r.ContractsCancelled +
		r.PaymentPreReminders + r.PaymentPostReminders + r.PaymentsCancelled +
		r.CasesCreated + r.DocumentReminders +
		r.OnboardingReminders + r.TIEPickupReminders
}

func (r *SweepResult) add(other SweepResult) {
	r.WelcomeMessages += other.WelcomeMessages
	r.Reengagements += other.Reengagements
	r.Archived += other.Archived
	r.ContractReminders += other.ContractReminders
	r.ContractsCancelled += other.ContractsCancelled
	r.PaymentPreReminders += other.PaymentPreReminders
	r.PaymentPostReminders += other.PaymentPostReminders
	r.PaymentsCancelled += other.PaymentsCancelled
	r.CasesCreated += other.CasesCreated
	r.DocumentReminders += other.DocumentReminders
	r.OnboardingReminders += other.OnboardingReminders
	r.TIEPickupReminders += other.TIEPickupReminders
	r.SkippedEntities += other.SkippedEntities
}

// Package domain provides core business rules for the workflow engine:
// closed status types, explicit transition tables, and the fixed mappings
// the sweep consults. No I/O happens here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the lifecycle status of a lead.
type LeadStatus string

const (
	LeadNew               LeadStatus = "NEW"
	LeadIncomplete        LeadStatus = "INCOMPLETE"
	LeadInterestPending   LeadStatus = "INTEREST_PENDING"
	LeadInterestConfirmed LeadStatus = "INTEREST_CONFIRMED"
	LeadArchived          LeadStatus = "ARCHIVED_NO_RESPONSE"
)

// Lead transitions are monotonic forward. Re-engagement does not change
// status, it only resets the last-outbound marker.
var leadTransitions = map[LeadStatus]map[LeadStatus]bool{
	LeadNew:               {LeadIncomplete: true, LeadInterestPending: true, LeadInterestConfirmed: true, LeadArchived: true},
	LeadIncomplete:        {LeadInterestPending: true, LeadInterestConfirmed: true, LeadArchived: true},
	LeadInterestPending:   {LeadInterestConfirmed: true, LeadArchived: true},
	LeadInterestConfirmed: {},
	LeadArchived:          {},
}

// CanTransitionLead reports whether a lead may move from one status to another.
func CanTransitionLead(from, to LeadStatus) bool {
	nexts, ok := leadTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// ArchivableLeadStatuses are the statuses eligible for auto-archiving after
// the archive threshold with no inbound contact.
var ArchivableLeadStatuses = []LeadStatus{LeadNew, LeadIncomplete, LeadInterestPending}

// IsTerminalLead returns true when no further automation should touch the lead.
func IsTerminalLead(status LeadStatus) bool {
	return status == LeadArchived || status == LeadInterestConfirmed
}

// Lead is a prospective client captured by the intake layer.
type Lead struct {
	ID              uuid.UUID
	Status          LeadStatus
	ContactName     string
	ContactPhone    string
	ServiceInterest string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MessageDirection distinguishes inbound client messages from outbound sends.
type MessageDirection string

const (
	MessageInbound  MessageDirection = "in"
	MessageOutbound MessageDirection = "out"
)

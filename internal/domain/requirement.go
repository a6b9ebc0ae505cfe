package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequirementStatus is the state of an authority exigency attached to a case.
type RequirementStatus string

const (
	RequirementOpen        RequirementStatus = "OPEN"
	RequirementInExtension RequirementStatus = "IN_EXTENSION"
	RequirementExtended    RequirementStatus = "EXTENDED"
	RequirementResponded   RequirementStatus = "RESPONDED"
	RequirementClosed      RequirementStatus = "CLOSED"
)

var requirementTransitions = map[RequirementStatus]map[RequirementStatus]bool{
	RequirementOpen:        {RequirementInExtension: true, RequirementResponded: true, RequirementClosed: true},
	RequirementInExtension: {RequirementExtended: true, RequirementResponded: true},
	RequirementExtended:    {RequirementInExtension: true, RequirementResponded: true, RequirementClosed: true},
	RequirementResponded:   {RequirementClosed: true},
	RequirementClosed:      {},
}

// CanTransitionRequirement reports whether a requirement may move between statuses.
func CanTransitionRequirement(from, to RequirementStatus) bool {
	nexts, ok := requirementTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// ActiveRequirementStatuses are the statuses the reminder cadence watches.
var ActiveRequirementStatuses = []RequirementStatus{RequirementOpen, RequirementInExtension, RequirementExtended}

// Requirement is an exigency from the immigration authority with an
// official deadline and a shorter internal one.
type Requirement struct {
	ID               uuid.UUID
	CaseID           uuid.UUID
	Status           RequirementStatus
	OfficialDeadline time.Time
	InternalDeadline time.Time
	ExtensionCount   int
	UpdatedAt        time.Time
}

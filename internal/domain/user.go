package domain

import "github.com/google/uuid"

// Role is a back-office user role, ordered by escalation tier.
type Role string

const (
	RoleAgent   Role = "AGENT"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Tier is the notification audience for an escalation.
type Tier string

const (
	TierClient   Tier = "client"
	TierAssignee Tier = "assignee"
	TierManager  Tier = "manager"
	TierAdmin    Tier = "admin"
)

// User is a back-office member reachable by the escalation router.
type User struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
	Role  Role
}

package notify

import (
	"context"
	"fmt"

	"tramita_backend/internal/domain"

	"github.com/google/uuid"
)

// Directory reads back-office users for audience resolution.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// Router resolves the notification audience for an escalation tier:
// assignee, then the manager tier, then the admin tier. An empty tier
// falls upward so a breach is never silently unrouted.
type Router struct {
	directory Directory
}

// NewRouter creates an escalation router over the user directory.
func NewRouter(directory Directory) *Router {
	return &Router{directory: directory}
}

// Recipients returns the users to notify for the given tier. For the
// assignee tier, assigneeID names the responsible user; when the entity is
// unassigned the audience falls up to the manager tier.
func (r *Router) Recipients(ctx context.Context, tier domain.Tier, assigneeID *uuid.UUID) ([]domain.User, error) {
	switch tier {
	case domain.TierAssignee:
		if assigneeID != nil {
			user, err := r.directory.GetUser(ctx, *assigneeID)
			if err == nil {
				return []domain.User{user}, nil
			}
		}
		return r.roleWithFallback(ctx, domain.RoleManager, domain.RoleAdmin)
	case domain.TierManager:
		return r.roleWithFallback(ctx, domain.RoleManager, domain.RoleAdmin)
	case domain.TierAdmin:
		return r.directory.ListByRole(ctx, domain.RoleAdmin)
	default:
		return nil, fmt.Errorf("tier %q has no directory audience", tier)
	}
}

func (r *Router) roleWithFallback(ctx context.Context, role, fallback domain.Role) ([]domain.User, error) {
	users, err := r.directory.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users, nil
	}
	return r.directory.ListByRole(ctx, fallback)
}

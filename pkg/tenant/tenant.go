package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the subscription state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known subscription states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Tenant represents one isolated Slack workspace. Exactly one non-deleted
// tenant exists per workspace ID; records are never hard-deleted, only
// marked via DeletedAt.
type Tenant struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Name        string     `json:"name"`
	Domain      string     `json:"domain,omitempty"`
	PlanTier    string     `json:"plan_tier"`
	Status      Status     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Usable reports whether the tenant may serve requests at the given instant.
// A found record is not necessarily a usable one: suspended and cancelled
// subscriptions, expired trials and soft-deleted tenants all resolve but
// must be rejected.
func (t *Tenant) Usable(now time.Time) bool {
	if t.DeletedAt != nil {
		return false
	}
	switch t.Status {
	case StatusActive:
		return true
	case StatusTrial:
		return t.TrialEndsAt == nil || now.Before(*t.TrialEndsAt)
	default:
		return false
	}
}

// GetTenantID returns the tenant's own identifier, which lets a Tenant value
// participate in ownership checks alongside ordinary scoped records.
func (t *Tenant) GetTenantID() uuid.UUID { return t.ID }

// Store is the persistent source of tenant records. Implementations must
// exclude soft-deleted rows from reads and translate transport failures into
// ErrStoreUnavailable so callers can distinguish "absent" from "unreachable".
type Store interface {
	// GetByWorkspaceID returns the non-deleted tenant for a Slack workspace.
	// Returns ErrTenantNotFound when no such tenant exists.
	GetByWorkspaceID(ctx context.Context, workspaceID string) (*Tenant, error)

	// Create inserts a new tenant. Returns ErrTenantExists when a non-deleted
	// tenant with the same workspace ID already exists.
	Create(ctx context.Context, t *Tenant) error

	// UpdateStatus transitions the tenant's subscription state.
	UpdateStatus(ctx context.Context, workspaceID string, status Status) error
}

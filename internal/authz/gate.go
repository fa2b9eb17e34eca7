// Package authz decides whether an actor may take a workflow action. It is
// pure: no storage, no clock, no context.
package authz

import (
	"slices"

	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Capabilities are per-user flags granted on top of the assigned role.
type Capabilities struct {
	// AllRoles lets the user act under any non-admin role.
	AllRoles bool `json:"all_roles"`
}

// IsAuthorized evaluates, in order: Admin always passes; the all-roles flag
// passes any edge that is not Admin-only; otherwise the role must be listed
// on the edge.
func IsAuthorized(role workflow.Role, caps Capabilities, edge workflow.Edge) bool {
	return Allows(role, caps, edge.Roles)
}

// Allows applies the same precedence to an arbitrary role list. An empty list
// means Admin-only.
func Allows(role workflow.Role, caps Capabilities, roles []workflow.Role) bool {
	if role == workflow.RoleAdmin {
		return true
	}
	if len(roles) == 0 {
		return false
	}
	if caps.AllRoles {
		return true
	}
	return slices.Contains(roles, role)
}

// CanCreateCase reports whether the actor may open a new case.
func CanCreateCase(role workflow.Role, caps Capabilities) bool {
	return Allows(role, caps, workflow.CreationRoles)
}

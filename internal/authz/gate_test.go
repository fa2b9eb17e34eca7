package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

func TestAdminAuthorizedForEveryEdge(t *testing.T) {
	for _, e := range workflow.Edges() {
		assert.True(t, IsAuthorized(workflow.RoleAdmin, Capabilities{}, e), "%s -> %s", e.From, e.To)
	}
}

func TestRolesWithoutCapabilityAreRejected(t *testing.T) {
	for _, e := range workflow.Edges() {
		for _, role := range workflow.AllRoles {
			if role == workflow.RoleAdmin {
				continue
			}
			got := IsAuthorized(role, Capabilities{}, e)
			assert.Equal(t, e.Permits(role), got, "%s on %s -> %s", role, e.From, e.To)
		}
	}
}

func TestAllRolesFlagCoversNonAdminEdges(t *testing.T) {
	for _, e := range workflow.Edges() {
		for _, role := range workflow.AllRoles {
			assert.True(t, IsAuthorized(role, Capabilities{AllRoles: true}, e), "%s on %s -> %s", role, e.From, e.To)
		}
	}
}

func TestAllRolesFlagDoesNotGrantAdminOnly(t *testing.T) {
	adminOnly := workflow.Edge{From: workflow.StatusClosed, To: workflow.StatusDraft}

	assert.False(t, IsAuthorized(workflow.RoleReviewer, Capabilities{AllRoles: true}, adminOnly))
	assert.True(t, IsAuthorized(workflow.RoleAdmin, Capabilities{}, adminOnly))
}

func TestReviewerCannotClose(t *testing.T) {
	edge, ok := workflow.Lookup(workflow.StatusApproved, workflow.StatusClosed)
	assert.True(t, ok)

	assert.False(t, IsAuthorized(workflow.RoleReviewer, Capabilities{}, edge))
	assert.True(t, IsAuthorized(workflow.RoleActioner, Capabilities{}, edge))
	assert.True(t, IsAuthorized(workflow.RoleApprover, Capabilities{}, edge))
}

func TestCanCreateCase(t *testing.T) {
	assert.True(t, CanCreateCase(workflow.RoleInitiator, Capabilities{}))
	assert.True(t, CanCreateCase(workflow.RoleInvestigator, Capabilities{}))
	assert.True(t, CanCreateCase(workflow.RoleAdmin, Capabilities{}))
	assert.True(t, CanCreateCase(workflow.RoleApprover, Capabilities{AllRoles: true}))
	assert.False(t, CanCreateCase(workflow.RoleReviewer, Capabilities{}))
}

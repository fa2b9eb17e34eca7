package workflow

import "slices"

// Edge is one allowed status change. Roles lists the non-admin roles that may
// trigger it; Admin may always trigger any edge. An edge with no roles is
// Admin-only.
type Edge struct {
	From    Status
	To      Status
	Roles   []Role
	Action  string
	Reverse bool
	// CreatorOnly restricts non-admin actors to the case's creator.
	CreatorOnly bool
}

// AdminOnly reports whether no non-admin role is listed.
func (e Edge) AdminOnly() bool { return len(e.Roles) == 0 }

// Permits reports whether role is listed on the edge.
func (e Edge) Permits(role Role) bool { return slices.Contains(e.Roles, role) }

var transitions = []Edge{
	{From: StatusDraft, To: StatusSubmitted, Roles: []Role{RoleInitiator, RoleInvestigator}, Action: "Case Submitted", CreatorOnly: true},

	{From: StatusSubmitted, To: StatusUnderReview, Roles: []Role{RoleReviewer}, Action: "Review Started"},
	{From: StatusSubmitted, To: StatusUnderInvestigation, Roles: []Role{RoleInvestigator}, Action: "Investigation Started"},

	{From: StatusUnderReview, To: StatusApproved, Roles: []Role{RoleReviewer}, Action: "Case Approved"},
	{From: StatusUnderReview, To: StatusRejected, Roles: []Role{RoleReviewer}, Action: "Case Rejected"},
	{From: StatusUnderReview, To: StatusLegalReview, Roles: []Role{RoleReviewer}, Action: "Sent to Legal Review"},

	{From: StatusApproved, To: StatusClosed, Roles: []Role{RoleApprover, RoleActioner}, Action: "Case Closed"},
	{From: StatusApproved, To: StatusRejected, Roles: []Role{RoleApprover}, Action: "Case Rejected"},
	{From: StatusApproved, To: StatusUnderReview, Roles: []Role{RoleApprover}, Action: "Sent Back to Review", Reverse: true},

	{From: StatusLegalReview, To: StatusApproved, Roles: []Role{RoleLegalReviewer}, Action: "Legal Review Approved"},
	{From: StatusLegalReview, To: StatusUnderReview, Roles: []Role{RoleLegalReviewer}, Action: "Legal Issues Found", Reverse: true},
	{From: StatusLegalReview, To: StatusClosed, Roles: []Role{RoleLegalReviewer}, Action: "Case Closed"},

	{From: StatusUnderInvestigation, To: StatusInvestigationCompleted, Roles: []Role{RoleInvestigator}, Action: "Investigation Completed"},
	{From: StatusUnderInvestigation, To: StatusEscalated, Roles: []Role{RoleInvestigator}, Action: "Investigation Escalated"},
}

// Lookup returns the edge from -> to, if one exists.
func Lookup(from, to Status) (Edge, bool) {
	for _, e := range transitions {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Outbound returns every edge leaving from, in table order.
func Outbound(from Status) []Edge {
	var out []Edge
	for _, e := range transitions {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns a copy of the full transition table.
func Edges() []Edge {
	out := make([]Edge, len(transitions))
	copy(out, transitions)
	return out
}

// InitialStatuses are the statuses a case may be created in.
var InitialStatuses = []Status{StatusDraft, StatusSubmitted}

// CreationRoles may open new cases.
var CreationRoles = []Role{RoleInitiator, RoleInvestigator}

// pipelineRank orders statuses along the pipeline. Every forward edge moves
// to a strictly higher rank.
var pipelineRank = map[Status]int{
	StatusDraft:                  0,
	StatusSubmitted:              1,
	StatusUnderReview:            2,
	StatusUnderInvestigation:     2,
	StatusLegalReview:            3,
	StatusInvestigationCompleted: 3,
	StatusEscalated:              3,
	StatusApproved:               4,
	StatusRejected:               5,
	StatusClosed:                 5,
}

// Rank returns s's position along the pipeline.
func Rank(s Status) int { return pipelineRank[s] }

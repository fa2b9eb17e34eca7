package workflow

import "fmt"

// Role is a user's assigned function in the case pipeline.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RoleInitiator     Role = "Initiator"
	RoleReviewer      Role = "Reviewer"
	RoleApprover      Role = "Approver"
	RoleLegalReviewer Role = "LegalReviewer"
	RoleActioner      Role = "Actioner"
	RoleInvestigator  Role = "Investigator"
)

var AllRoles = []Role{
	RoleAdmin,
	RoleInitiator,
	RoleReviewer,
	RoleApprover,
	RoleLegalReviewer,
	RoleActioner,
	RoleInvestigator,
}

// ParseRole accepts the canonical token and the spaced "Legal Reviewer"
// spelling used by imported user lists.
func ParseRole(s string) (Role, error) {
	if s == "Legal Reviewer" {
		return RoleLegalReviewer, nil
	}
	for _, r := range AllRoles {
		if s == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

package workflow

import "fmt"

// Verification is the outcome of a single investigation check.
type Verification string

const (
	VerificationPending    Verification = "Pending"
	VerificationVerified   Verification = "Verified"
	VerificationFailed     Verification = "Failed"
	VerificationSuspicious Verification = "Suspicious"
)

func (v Verification) Valid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationFailed, VerificationSuspicious:
		return true
	}
	return false
}

// BureauReview is the outcome of a credit bureau or tax statement review.
type BureauReview string

const (
	BureauPending  BureauReview = "Pending"
	BureauClear    BureauReview = "Clear"
	BureauConcerns BureauReview = "Concerns"
	BureauRedFlags BureauReview = "RedFlags"
)

func (b BureauReview) Valid() bool {
	switch b {
	case BureauPending, BureauClear, BureauConcerns, BureauRedFlags:
		return true
	}
	return false
}

// Checklist is the investigator's verification record for one case.
type Checklist struct {
	PAN           Verification `json:"pan_verification"`
	Aadhaar       Verification `json:"aadhaar_verification"`
	BankStatement Verification `json:"bank_statement_verification"`
	Address       Verification `json:"address_verification"`
	Employment    Verification `json:"employment_verification"`
	Mobile        Verification `json:"mobile_verification"`

	CIBIL    BureauReview `json:"cibil_review"`
	Form26AS BureauReview `json:"form26as_review"`

	ModusOperandi     string `json:"modus_operandi,omitempty"`
	RootCauseAnalysis string `json:"root_cause_analysis,omitempty"`

	BusinessAction   string `json:"business_action,omitempty"`
	RCUAction        string `json:"rcu_action,omitempty"`
	ORMAction        string `json:"orm_action,omitempty"`
	ComplianceAction string `json:"compliance_action,omitempty"`
	ITAction         string `json:"it_action,omitempty"`
	LegalAction      string `json:"legal_action,omitempty"`

	Comments string `json:"comments,omitempty"`
}

// Normalize fills unset outcomes with Pending.
func (c *Checklist) Normalize() {
	for _, v := range c.verifications() {
		if *v == "" {
			*v = VerificationPending
		}
	}
	for _, b := range c.reviews() {
		if *b == "" {
			*b = BureauPending
		}
	}
}

// Validate rejects outcomes outside the closed sets. Call after Normalize.
func (c *Checklist) Validate() error {
	for i, v := range c.verifications() {
		if !v.Valid() {
			return fmt.Errorf("%s: invalid verification outcome %q", verificationNames[i], *v)
		}
	}
	for i, b := range c.reviews() {
		if !b.Valid() {
			return fmt.Errorf("%s: invalid review outcome %q", reviewNames[i], *b)
		}
	}
	return nil
}

var verificationNames = []string{
	"pan_verification", "aadhaar_verification", "bank_statement_verification",
	"address_verification", "employment_verification", "mobile_verification",
}

var reviewNames = []string{"cibil_review", "form26as_review"}

func (c *Checklist) verifications() []*Verification {
	return []*Verification{&c.PAN, &c.Aadhaar, &c.BankStatement, &c.Address, &c.Employment, &c.Mobile}
}

func (c *Checklist) reviews() []*BureauReview {
	return []*BureauReview{&c.CIBIL, &c.Form26AS}
}

// StatusHint is an advisory next step derived from a checklist.
type StatusHint string

const (
	HintInProgress     StatusHint = "InProgress"
	HintReadyForReview StatusHint = "ReadyForReview"
	HintEscalate       StatusHint = "Escalate"
)

// DeriveStatusHint suggests what the investigator should do next. It never
// changes case status by itself.
func DeriveStatusHint(c Checklist) StatusHint {
	c.Normalize()

	failed, pending := 0, 0
	for _, v := range c.verifications() {
		switch *v {
		case VerificationSuspicious:
			return HintEscalate
		case VerificationFailed:
			failed++
		case VerificationPending:
			pending++
		}
	}
	for _, b := range c.reviews() {
		switch *b {
		case BureauRedFlags:
			return HintEscalate
		case BureauPending:
			pending++
		}
	}

	if failed >= 2 {
		return HintEscalate
	}
	if pending > 0 {
		return HintInProgress
	}
	return HintReadyForReview
}

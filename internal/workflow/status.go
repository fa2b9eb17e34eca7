// Package workflow defines the closed case-status vocabulary, the role set and
// the single transition table every status change is checked against.
package workflow

import "fmt"

// StatusVocabularyVersion changes whenever a status or edge is added or
// removed.
const StatusVocabularyVersion = 1

// Status is a case lifecycle status. Values are persisted verbatim.
type Status string

const (
	StatusDraft                  Status = "Draft"
	StatusSubmitted              Status = "Submitted"
	StatusUnderReview            Status = "UnderReview"
	StatusApproved               Status = "Approved"
	StatusLegalReview            Status = "LegalReview"
	StatusRejected               Status = "Rejected"
	StatusClosed                 Status = "Closed"
	StatusUnderInvestigation     Status = "UnderInvestigation"
	StatusInvestigationCompleted Status = "InvestigationCompleted"
	StatusEscalated              Status = "Escalated"
)

// AllStatuses lists the vocabulary in pipeline order.
var AllStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusLegalReview,
	StatusRejected,
	StatusClosed,
	StatusUnderInvestigation,
	StatusInvestigationCompleted,
	StatusEscalated,
}

var statusLabels = map[Status]string{
	StatusDraft:                  "Draft",
	StatusSubmitted:              "Submitted",
	StatusUnderReview:            "Under Review",
	StatusApproved:               "Approved",
	StatusLegalReview:            "Legal Review",
	StatusRejected:               "Rejected",
	StatusClosed:                 "Closed",
	StatusUnderInvestigation:     "Under Investigation",
	StatusInvestigationCompleted: "Investigation Completed",
	StatusEscalated:              "Escalated",
}

// ParseStatus accepts the persisted token or its display label.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if s == string(st) || s == statusLabels[st] {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown case status %q", s)
}

// Valid reports whether s belongs to the vocabulary.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human-readable form shown in panels and reports.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Terminal reports whether s has no outbound edges.
func (s Status) Terminal() bool {
	return len(Outbound(s)) == 0
}

// Stage identifies a pipeline stage whose entry is stamped with an actor and
// timestamp on the case record.
type Stage string

const (
	StageNone        Stage = ""
	StageReview      Stage = "review"
	StageApproval    Stage = "approval"
	StageLegalReview Stage = "legal_review"
	StageClosure     Stage = "closure"
)

// StageFor returns the stage entered when a case moves into s.
func StageFor(s Status) Stage {
	switch s {
	case StatusUnderReview:
		return StageReview
	case StatusApproved:
		return StageApproval
	case StatusLegalReview:
		return StageLegalReview
	case StatusClosed:
		return StageClosure
	default:
		return StageNone
	}
}

package service

import (
	"time"

	"github.com/pesio-ai/be-fraud-cases/internal/repository"
)

// SLA states.
const (
	SLAOnTrack     = "OnTrack"
	SLAFMR1Overdue = "FMR1Overdue"
	SLAFMR3Overdue = "FMR3Overdue"
	SLACompleted   = "Completed"
)

// SLAPolicy holds the regulatory reporting offsets from the case date.
type SLAPolicy struct {
	FMR1Days       int
	FMR3Days       int
	RetentionYears int
}

// DefaultSLAPolicy is 21 days to FMR1, 90 days to FMR3 and 8 years retention.
var DefaultSLAPolicy = SLAPolicy{FMR1Days: 21, FMR3Days: 90, RetentionYears: 8}

// SLAProjection is the read-only deadline view of a case.
type SLAProjection struct {
	FMR1Due     time.Time `json:"fmr1_due"`
	FMR3Due     time.Time `json:"fmr3_due"`
	RetainUntil time.Time `json:"retain_until"`
	Status      string    `json:"sla_status"`
}

// Project computes deadlines for c as of now.
func (p SLAPolicy) Project(c *repository.Case, now time.Time) SLAProjection {
	base := c.CaseDate
	out := SLAProjection{
		FMR1Due:     base.AddDate(0, 0, p.FMR1Days),
		FMR3Due:     base.AddDate(0, 0, p.FMR3Days),
		RetainUntil: base.AddDate(p.RetentionYears, 0, 0),
	}
	switch {
	case c.Status.Terminal():
		out.Status = SLACompleted
	case now.After(out.FMR3Due):
		out.Status = SLAFMR3Overdue
	case now.After(out.FMR1Due):
		out.Status = SLAFMR1Overdue
	default:
		out.Status = SLAOnTrack
	}
	return out
}

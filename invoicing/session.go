package invoicing

import (
	"time"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// SESSION - A logged service session, as the billing layer sees it
// =============================================================================

type SessionStatus string

const (
	SessionSubmitted SessionStatus = "submitted" // logged by the contractor
	SessionApproved  SessionStatus = "approved"  // approved for billing
	SessionCompleted SessionStatus = "completed" // delivered and closed out
)

// Billable reports whether the session is in a state that bills.
func (s SessionStatus) Billable() bool {
	return s == SessionApproved || s == SessionCompleted
}

// Session is a logged service session. CRUD lives with the external
// persistence collaborator; this type is what aggregation and invoicing
// read through the store interfaces.
type Session struct {
	ID              pricing.SessionID
	OrganizationID  string
	ServiceConfigID pricing.ServiceConfigID
	ContractorID    pricing.ContractorID
	Date            time.Time
	DurationMinutes int
	Attendees       []pricing.Attendee
	Status          SessionStatus
}

// ScholarshipEligible reports whether this session routes to monthly batch
// billing instead of immediate invoicing: the service configuration is
// scholarship-flagged, or any attendee pays by scholarship.
func (s Session) ScholarshipEligible(cfg pricing.ServiceConfig) bool {
	if cfg.Scholarship {
		return true
	}
	for _, a := range s.Attendees {
		if a.PaymentMethod == pricing.PaymentScholarship {
			return true
		}
	}
	return false
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

MONEY IN JSON:
  Money fields are strings ("71.50"), never floats. Clients that need
  arithmetic parse them with a decimal library; clients that display
  them pass them through.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ServiceConfigJSON type
*/
package api

import (
	"time"

	"github.com/weberl48/MTApp-sub000/factory"
	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ContractorDTO represents a contractor in API responses.
type ContractorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	FlatBonus string `json:"flat_bonus,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateContractorRequest is the request to create a contractor.
type CreateContractorRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	FlatBonus string `json:"flat_bonus,omitempty"`
}

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PaymentMethod string `json:"payment_method"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateClientRequest is the request to create a client.
type CreateClientRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// ServiceConfigDTO wraps the factory JSON form of a configuration.
type ServiceConfigDTO struct {
	Config factory.ServiceConfigJSON `json:"config"`
}

// CreateRateOverrideRequest sets a contractor's custom base pay for one
// service.
type CreateRateOverrideRequest struct {
	ContractorID    string `json:"contractor_id"`
	ServiceConfigID string `json:"service_config_id"`
	CustomBasePay   string `json:"custom_base_pay"`
}

// AttendeeDTO is one session attendee.
type AttendeeDTO struct {
	ClientID      string `json:"client_id"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// SubmitSessionRequest logs a delivered session.
type SubmitSessionRequest struct {
	ID              string        `json:"id,omitempty"`
	ServiceConfigID string        `json:"service_config_id"`
	ContractorID    string        `json:"contractor_id"`
	Date            string        `json:"date"` // YYYY-MM-DD
	DurationMinutes int           `json:"duration_minutes"`
	Attendees       []AttendeeDTO `json:"attendees"`
}

// PreviewRequest prices a hypothetical session without persisting anything.
type PreviewRequest struct {
	ServiceConfigID string        `json:"service_config_id"`
	ContractorID    string        `json:"contractor_id,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	Attendees       []AttendeeDTO `json:"attendees"`
}

// SessionDTO represents a logged session.
type SessionDTO struct {
	ID              string        `json:"id"`
	ServiceConfigID string        `json:"service_config_id"`
	ContractorID    string        `json:"contractor_id"`
	Date            string        `json:"date"`
	DurationMinutes int           `json:"duration_minutes"`
	Attendees       []AttendeeDTO `json:"attendees"`
	Status          string        `json:"status"`
}

// BreakdownDTO is the priced result of a session.
type BreakdownDTO struct {
	Total              string   `json:"total"`
	OrgCut             string   `json:"org_cut"`
	Rent               string   `json:"rent"`
	ContractorPay      string   `json:"contractor_pay"`
	PerAttendee        []string `json:"per_attendee"`
	ScholarshipBilling bool     `json:"scholarship_billing"`
	Reconciles         bool     `json:"reconciles"`
}

// ApproveSessionResponse is returned after a session is approved for
// billing.
type ApproveSessionResponse struct {
	SessionID string       `json:"session_id"`
	Status    string       `json:"status"`
	Breakdown BreakdownDTO `json:"breakdown"`

	// Deferred is true when the session routes to monthly batch billing
	// and no invoices were written.
	Deferred bool         `json:"deferred"`
	Invoices []InvoiceDTO `json:"invoices,omitempty"`
}

// InvoiceDTO represents one client's invoice for one session.
type InvoiceDTO struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	ClientID      string `json:"client_id"`
	SessionDate   string `json:"session_date"`
	Amount        string `json:"amount"`
	SessionTotal  string `json:"session_total"`
	ContractorPay string `json:"contractor_pay"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// BatchLineDTO represents one monthly scholarship billing line.
type BatchLineDTO struct {
	ID              string   `json:"id"`
	ClientID        string   `json:"client_id"`
	ServiceConfigID string   `json:"service_config_id"`
	Month           string   `json:"month"`
	SessionIDs      []string `json:"session_ids"`
	SessionCount    int      `json:"session_count"`
	Total           string   `json:"total"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

// RunBatchRequest triggers a scholarship aggregation run.
type RunBatchRequest struct {
	AsOf string `json:"as_of,omitempty"` // YYYY-MM-DD, default today
}

// TransitionBatchLineRequest moves a pending line to sent or void.
type TransitionBatchLineRequest struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBreakdownDTO(b *pricing.Breakdown) BreakdownDTO {
	per := make([]string, len(b.PerAttendee))
	for i, amt := range b.PerAttendee {
		per[i] = amt.String()
	}
	return BreakdownDTO{
		Total:              b.Total.String(),
		OrgCut:             b.OrgCut.String(),
		Rent:               b.Rent.String(),
		ContractorPay:      b.ContractorPay.String(),
		PerAttendee:        per,
		ScholarshipBilling: b.ScholarshipBilling,
		Reconciles:         b.Reconciles(),
	}
}

func toSessionDTO(s invoicing.Session) SessionDTO {
	attendees := make([]AttendeeDTO, len(s.Attendees))
	for i, a := range s.Attendees {
		attendees[i] = AttendeeDTO{
			ClientID:      string(a.ClientID),
			PaymentMethod: string(a.PaymentMethod),
		}
	}
	return SessionDTO{
		ID:              string(s.ID),
		ServiceConfigID: string(s.ServiceConfigID),
		ContractorID:    string(s.ContractorID),
		Date:            s.Date.Format("2006-01-02"),
		DurationMinutes: s.DurationMinutes,
		Attendees:       attendees,
		Status:          string(s.Status),
	}
}

func toInvoiceDTO(inv invoicing.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            inv.ID,
		SessionID:     string(inv.SessionID),
		ClientID:      string(inv.ClientID),
		SessionDate:   inv.SessionDate.Format("2006-01-02"),
		Amount:        inv.Amount.String(),
		SessionTotal:  inv.SessionTotal.String(),
		ContractorPay: inv.ContractorPay.String(),
		Status:        string(inv.Status),
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
	}
}

func toInvoiceDTOs(invoices []invoicing.Invoice) []InvoiceDTO {
	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = toInvoiceDTO(inv)
	}
	return dtos
}

func toBatchLineDTO(line invoicing.BatchLine) BatchLineDTO {
	ids := make([]string, len(line.SessionIDs))
	for i, id := range line.SessionIDs {
		ids[i] = string(id)
	}
	return BatchLineDTO{
		ID:              line.ID,
		ClientID:        string(line.ClientID),
		ServiceConfigID: string(line.ServiceConfigID),
		Month:           line.Month.String(),
		SessionIDs:      ids,
		SessionCount:    len(ids),
		Total:           line.Total.String(),
		Status:          string(line.Status),
		CreatedAt:       line.CreatedAt.Format(time.RFC3339),
	}
}

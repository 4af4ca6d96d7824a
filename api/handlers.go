/*
handlers.go - HTTP API handlers for the practice billing system

PURPOSE:
  Exposes the pricing engine and billing workflow via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain
  logic.

ENDPOINTS:
  Pricing:
    POST   /api/pricing/preview        Price a session without persisting

  Sessions:
    GET    /api/sessions               List logged sessions
    POST   /api/sessions               Submit a delivered session
    GET    /api/sessions/{id}          Get session details
    GET    /api/sessions/{id}/breakdown Price a logged session
    POST   /api/sessions/{id}/approve  Approve for billing (writes invoices
                                       or defers to the scholarship batch)

  Invoices:
    GET    /api/clients/{id}/invoices  A client's invoices, newest first

  Scholarship batches:
    GET    /api/batches                List batch lines
    POST   /api/batches/run            Trigger an aggregation run
    POST   /api/batches/{id}/transition Mark a line sent or void

  Catalog:
    GET/POST /api/configs              Service configurations
    GET/POST /api/contractors          Contractors
    GET/POST /api/clients              Clients
    POST   /api/admin/overrides        Contractor rate overrides

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (calculator, journal, aggregator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (double billing, double aggregation, final batch line)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Auth is an external collaborator in this deployment.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loader
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/weberl48/MTApp-sub000/factory"
	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
	"github.com/weberl48/MTApp-sub000/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	ConfigFactory *factory.ConfigFactory
	Calculator    *pricing.Calculator
	Journal       *invoicing.Journal
	Aggregator    *invoicing.BatchAggregator

	// OrgID scopes every session and batch. Single-tenant deployment.
	OrgID string

	// Location is the organization's timezone for billing-month
	// truncation.
	Location *time.Location
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, orgID string, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Store:         store,
		ConfigFactory: factory.NewConfigFactory(),
		Calculator:    pricing.NewCalculator(),
		Journal:       invoicing.NewJournal(store),
		Aggregator:    invoicing.NewBatchAggregator(store, store, loc),
		OrgID:         orgID,
		Location:      loc,
	}
}

// =============================================================================
// SERVICE CONFIG HANDLERS
// =============================================================================

// ListServiceConfigs returns all service configurations.
func (h *Handler) ListServiceConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListServiceConfigs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list service configs", err)
		return
	}

	dtos := make([]ServiceConfigDTO, len(configs))
	for i := range configs {
		dtos[i] = ServiceConfigDTO{Config: h.ConfigFactory.ToJSON(&configs[i])}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetServiceConfig returns a single configuration.
func (h *Handler) GetServiceConfig(w http.ResponseWriter, r *http.Request) {
	id := pricing.ServiceConfigID(chi.URLParam(r, "id"))

	cfg, err := h.Store.ServiceConfig(r.Context(), id)
	if err != nil {
		if errors.Is(err, invoicing.ErrConfigNotFound) {
			writeError(w, http.StatusNotFound, "Service config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get service config", err)
		return
	}

	writeJSON(w, http.StatusOK, ServiceConfigDTO{Config: h.ConfigFactory.ToJSON(&cfg)})
}

// CreateServiceConfig creates or replaces a configuration from admin JSON.
func (h *Handler) CreateServiceConfig(w http.ResponseWriter, r *http.Request) {
	var req ServiceConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.ConfigFactory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service config", err)
		return
	}

	if err := h.Store.SaveServiceConfig(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save service config", err)
		return
	}

	writeJSON(w, http.StatusCreated, ServiceConfigDTO{Config: h.ConfigFactory.ToJSON(cfg)})
}

// =============================================================================
// CONTRACTOR HANDLERS
// =============================================================================

// ListContractors returns all contractors.
func (h *Handler) ListContractors(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.Store.ListContractors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contractors", err)
		return
	}

	dtos := make([]ContractorDTO, len(contractors))
	for i, c := range contractors {
		dtos[i] = ContractorDTO{
			ID:        c.ID,
			Name:      c.Name,
			Email:     c.Email,
			FlatBonus: c.FlatBonus,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateContractor creates a new contractor.
func (h *Handler) CreateContractor(w http.ResponseWriter, r *http.Request) {
	var req CreateContractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.FlatBonus != "" {
		if _, err := pricing.ParseMoney(req.FlatBonus); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid flat_bonus amount", err)
			return
		}
	}

	c := sqlite.Contractor{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		FlatBonus: req.FlatBonus,
	}
	if err := h.Store.SaveContractor(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contractor", err)
		return
	}

	writeJSON(w, http.StatusCreated, ContractorDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		FlatBonus: c.FlatBonus,
	})
}

// CreateRateOverride sets a contractor's custom base pay for one service.
func (h *Handler) CreateRateOverride(w http.ResponseWriter, r *http.Request) {
	var req CreateRateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ContractorID == "" || req.ServiceConfigID == "" {
		writeError(w, http.StatusBadRequest, "contractor_id and service_config_id are required", nil)
		return
	}

	pay, err := pricing.ParseMoney(req.CustomBasePay)
	if err != nil || pay.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid custom_base_pay amount", err)
		return
	}

	override := pricing.ContractorRateOverride{
		ContractorID:    pricing.ContractorID(req.ContractorID),
		ServiceConfigID: pricing.ServiceConfigID(req.ServiceConfigID),
		CustomBasePay:   pay,
	}
	if err := h.Store.SaveRateOverride(r.Context(), override); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate override", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = ClientDTO{
			ID:            c.ID,
			Name:          c.Name,
			PaymentMethod: string(c.PaymentMethod),
			CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient creates a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	method := pricing.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = pricing.PaymentPrivatePay
	}

	c := sqlite.Client{ID: req.ID, Name: req.Name, PaymentMethod: method}
	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, ClientDTO{
		ID:            c.ID,
		Name:          c.Name,
		PaymentMethod: string(c.PaymentMethod),
	})
}

// ListClientInvoices returns a client's invoices, newest first.
func (h *Handler) ListClientInvoices(w http.ResponseWriter, r *http.Request) {
	clientID := pricing.ClientID(chi.URLParam(r, "id"))

	invoices, err := h.Store.ListInvoicesByClient(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceDTOs(invoices))
}

// =============================================================================
// PRICING HANDLERS
// =============================================================================

// PreviewPricing prices a hypothetical session. Nothing is persisted.
func (h *Handler) PreviewPricing(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.Store.ServiceConfig(r.Context(), pricing.ServiceConfigID(req.ServiceConfigID))
	if err != nil {
		if errors.Is(err, invoicing.ErrConfigNotFound) {
			writeError(w, http.StatusNotFound, "Service config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load service config", err)
		return
	}

	in, err := h.sessionInput(r.Context(), cfg, pricing.ContractorID(req.ContractorID), req.DurationMinutes, req.Attendees)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assemble pricing input", err)
		return
	}

	breakdown, err := h.Calculator.Calculate(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pricing input", err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakdownDTO(breakdown))
}

// sessionInput assembles the calculator input for a session: service
// config plus the contractor's override and pay increase, when present.
func (h *Handler) sessionInput(ctx context.Context, cfg pricing.ServiceConfig, contractorID pricing.ContractorID, durationMinutes int, attendees []AttendeeDTO) (pricing.SessionInput, error) {
	in := pricing.SessionInput{
		Config:          cfg,
		ContractorID:    contractorID,
		DurationMinutes: durationMinutes,
	}
	for _, a := range attendees {
		method := pricing.PaymentMethod(a.PaymentMethod)
		if method == "" {
			// Fall back to the client record's arrangement. A failed
			// lookup must surface: guessing private_pay here could route
			// a scholarship client to immediate invoicing.
			c, err := h.Store.GetClient(ctx, a.ClientID)
			if err != nil {
				return in, err
			}
			if c != nil {
				method = c.PaymentMethod
			} else {
				method = pricing.PaymentPrivatePay
			}
		}
		in.Attendees = append(in.Attendees, pricing.Attendee{
			ClientID:      pricing.ClientID(a.ClientID),
			PaymentMethod: method,
		})
	}

	if contractorID == "" {
		return in, nil
	}

	override, err := h.Store.RateOverrideFor(ctx, contractorID, cfg.ID)
	if err != nil {
		return in, err
	}
	in.Override = override

	increase, err := h.Store.PayIncreaseFor(ctx, contractorID)
	if err != nil {
		return in, err
	}
	in.PayIncrease = increase

	return in, nil
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// ListSessions returns the organization's sessions, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListSessions(r.Context(), h.OrgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	dtos := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = toSessionDTO(s)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetSession returns a single session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := pricing.SessionID(chi.URLParam(r, "id"))

	sess, err := h.Store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, invoicing.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionDTO(*sess))
}

// SubmitSession logs a delivered session in submitted status.
func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	var req SubmitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ServiceConfigID == "" || req.ContractorID == "" {
		writeError(w, http.StatusBadRequest, "service_config_id and contractor_id are required", nil)
		return
	}
	if req.DurationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "duration_minutes must be positive", nil)
		return
	}
	if len(req.Attendees) == 0 {
		writeError(w, http.StatusBadRequest, "at least one attendee is required", nil)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	// Verify the service config exists before accepting the session
	cfg, err := h.Store.ServiceConfig(r.Context(), pricing.ServiceConfigID(req.ServiceConfigID))
	if err != nil {
		if errors.Is(err, invoicing.ErrConfigNotFound) {
			writeError(w, http.StatusNotFound, "Service config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load service config", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	in, err := h.sessionInput(r.Context(), cfg, pricing.ContractorID(req.ContractorID), req.DurationMinutes, req.Attendees)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assemble session", err)
		return
	}

	sess := invoicing.Session{
		ID:              pricing.SessionID(id),
		OrganizationID:  h.OrgID,
		ServiceConfigID: cfg.ID,
		ContractorID:    pricing.ContractorID(req.ContractorID),
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Attendees:       in.Attendees,
		Status:          invoicing.SessionSubmitted,
	}
	if err := h.Store.SaveSession(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionDTO(sess))
}

// GetSessionBreakdown prices a logged session without changing its state.
func (h *Handler) GetSessionBreakdown(w http.ResponseWriter, r *http.Request) {
	id := pricing.SessionID(chi.URLParam(r, "id"))
	ctx := r.Context()

	sess, err := h.Store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, invoicing.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session", err)
		return
	}

	breakdown, _, err := h.priceSession(ctx, *sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to price session", err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakdownDTO(breakdown))
}

// priceSession loads the session's config, override and pay increase and
// runs the calculator.
func (h *Handler) priceSession(ctx context.Context, sess invoicing.Session) (*pricing.Breakdown, pricing.ServiceConfig, error) {
	cfg, err := h.Store.ServiceConfig(ctx, sess.ServiceConfigID)
	if err != nil {
		return nil, pricing.ServiceConfig{}, err
	}

	in := pricing.SessionInput{
		Config:          cfg,
		ContractorID:    sess.ContractorID,
		DurationMinutes: sess.DurationMinutes,
		Attendees:       sess.Attendees,
	}

	if in.Override, err = h.Store.RateOverrideFor(ctx, sess.ContractorID, cfg.ID); err != nil {
		return nil, cfg, err
	}
	if in.PayIncrease, err = h.Store.PayIncreaseFor(ctx, sess.ContractorID); err != nil {
		return nil, cfg, err
	}

	breakdown, err := h.Calculator.Calculate(in)
	if err != nil {
		return nil, cfg, err
	}
	return breakdown, cfg, nil
}

// ApproveSession approves a submitted session for billing. Scholarship
// sessions are deferred to the monthly batch; everything else gets its
// invoices written through the journal, at most once per session.
func (h *Handler) ApproveSession(w http.ResponseWriter, r *http.Request) {
	id := pricing.SessionID(chi.URLParam(r, "id"))
	ctx := r.Context()

	sess, err := h.Store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, invoicing.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session", err)
		return
	}
	if sess.Status != invoicing.SessionSubmitted {
		writeError(w, http.StatusConflict, "Session is not in submitted status", nil)
		return
	}

	breakdown, cfg, err := h.priceSession(ctx, *sess)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Session cannot be priced", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to price session", err)
		return
	}

	if !breakdown.ScholarshipBilling && !breakdown.Reconciles() {
		// Manual-review condition, never a hard failure
		log.Printf("[API] Session %s breakdown does not reconcile: total=%s org=%s rent=%s pay=%s",
			sess.ID, breakdown.Total, breakdown.OrgCut, breakdown.Rent, breakdown.ContractorPay)
	}

	resp := ApproveSessionResponse{
		SessionID: string(sess.ID),
		Status:    string(invoicing.SessionApproved),
		Breakdown: toBreakdownDTO(breakdown),
	}

	if sess.ScholarshipEligible(cfg) {
		// Billed by the monthly batch run, not invoiced now
		resp.Deferred = true
	} else {
		invoices := invoicing.BuildInvoices(*sess, breakdown, time.Now())
		if err := h.Journal.Append(ctx, invoices); err != nil {
			if errors.Is(err, invoicing.ErrDuplicateInvoice) {
				writeError(w, http.StatusConflict, "Session has already been billed", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to write invoices", err)
			return
		}
		resp.Invoices = toInvoiceDTOs(invoices)
	}

	if err := h.Store.UpdateSessionStatus(ctx, sess.ID, invoicing.SessionApproved); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update session status", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SCHOLARSHIP BATCH HANDLERS
// =============================================================================

// ListBatchLines returns the organization's batch lines.
func (h *Handler) ListBatchLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Store.ListBatchLines(r.Context(), h.OrgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batch lines", err)
		return
	}

	dtos := make([]BatchLineDTO, len(lines))
	for i, line := range lines {
		dtos[i] = toBatchLineDTO(line)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// RunBatch triggers a scholarship aggregation run up to as_of (default
// now). Re-running is safe: already aggregated sessions are skipped.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req RunBatchRequest
	if r.Body != nil {
		// Empty body means "run as of now"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	asOf := time.Now()
	if req.AsOf != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.AsOf, h.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		// End of day so sessions dated as_of are included
		asOf = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	lines, err := h.runAggregation(r.Context(), asOf)
	if err != nil {
		if errors.Is(err, invoicing.ErrSessionAlreadyAggregated) {
			writeError(w, http.StatusConflict, "A session was aggregated by a concurrent run", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to run batch aggregation", err)
		return
	}

	dtos := make([]BatchLineDTO, len(lines))
	for i, line := range lines {
		dtos[i] = toBatchLineDTO(line)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generated": len(dtos),
		"lines":     dtos,
	})
}

// runAggregation computes new batch lines and persists them with their
// session membership in one store transaction.
func (h *Handler) runAggregation(ctx context.Context, asOf time.Time) ([]invoicing.BatchLine, error) {
	lines, err := h.Aggregator.Aggregate(ctx, h.OrgID, asOf)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	if err := h.Store.AppendBatchLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// TransitionBatchLine marks a pending line sent or void.
func (h *Handler) TransitionBatchLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TransitionBatchLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := invoicing.BatchLineStatus(req.Status)
	if status != invoicing.BatchSent && status != invoicing.BatchVoid {
		writeError(w, http.StatusBadRequest, "status must be sent or void", nil)
		return
	}

	err := h.Store.TransitionBatchLine(r.Context(), id, status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": string(status)})
	case errors.Is(err, invoicing.ErrBatchLineNotFound):
		writeError(w, http.StatusNotFound, "Batch line not found", nil)
	case errors.Is(err, invoicing.ErrBatchLineFinal):
		writeError(w, http.StatusConflict, "Batch line is already final", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to transition batch line", err)
	}
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase wipes all data. Dev and demo use only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}


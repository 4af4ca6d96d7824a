/*
scenarios.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the database with a realistic practice: service
	configurations (solo, group, scholarship), contractors with and
	without pay arrangements, clients on different payment methods, and a
	month of logged sessions. Gives the UI and manual API testing
	something to chew on immediately.

HOW IT WORKS:
 1. Reset database (clear all data)
 2. Create service configs via the factory
 3. Create contractors, clients, a rate override
 4. Log sessions in submitted status, ready for approval

USAGE VIA API:

	POST /api/scenarios/load

NOTE:

	Loading resets the database. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Session workflow handlers
  - factory/config.go: Service config JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/weberl48/MTApp-sub000/factory"
	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
	"github.com/weberl48/MTApp-sub000/store/sqlite"
)

// LoadDemoScenario resets the database and loads the demo practice.
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	if err := h.loadDemoData(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load demo data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (h *Handler) loadDemoData(ctx context.Context) error {
	// Service configurations
	configJSONs := []factory.ServiceConfigJSON{
		{
			ID:            "individual-30",
			Name:          "Individual Session (30 min)",
			BaseRate:      50,
			OrgCutPercent: 30,
			RentPercent:   10,
		},
		{
			ID:            "group-home",
			Name:          "Group Home Session",
			BaseRate:      50,
			PerPersonRate: 20,
			OrgCutPercent: 30,
			RentPercent:   10,
			TotalCap:      floatPtr(150),
			ContractorCap: floatPtr(90),
		},
		{
			ID:                  "adaptive-lessons",
			Name:                "Adaptive Lessons (Scholarship)",
			BaseRate:            50,
			OrgCutPercent:       30,
			RentPercent:         10,
			Scholarship:         true,
			ScholarshipFlatRate: 40,
			PaySchedule:         map[string]float64{"30": 38.50, "60": 65},
		},
	}
	for _, cj := range configJSONs {
		cfg, err := h.ConfigFactory.FromJSON(cj)
		if err != nil {
			return fmt.Errorf("demo config %s is invalid: %w", cj.ID, err)
		}
		if err := h.Store.SaveServiceConfig(ctx, cfg); err != nil {
			return err
		}
	}

	// Contractors
	contractors := []sqlite.Contractor{
		{ID: "dana", Name: "Dana Reyes", Email: "dana@example.com"},
		{ID: "sam", Name: "Sam Okafor", Email: "sam@example.com", FlatBonus: "10.00"},
	}
	for _, c := range contractors {
		if err := h.Store.SaveContractor(ctx, c); err != nil {
			return err
		}
	}

	// Dana negotiated a higher base for group home work
	override := pricing.ContractorRateOverride{
		ContractorID:    "dana",
		ServiceConfigID: "group-home",
		CustomBasePay:   pricing.MustParseMoney("45.00"),
	}
	if err := h.Store.SaveRateOverride(ctx, override); err != nil {
		return err
	}

	// Clients
	clients := []sqlite.Client{
		{ID: "alice", Name: "Alice M.", PaymentMethod: pricing.PaymentPrivatePay},
		{ID: "bob", Name: "Bob T.", PaymentMethod: pricing.PaymentGroupHome},
		{ID: "carol", Name: "Carol W.", PaymentMethod: pricing.PaymentGroupHome},
		{ID: "dev", Name: "Dev P.", PaymentMethod: pricing.PaymentScholarship},
	}
	for _, c := range clients {
		if err := h.Store.SaveClient(ctx, c); err != nil {
			return err
		}
	}

	// A month of sessions, all awaiting approval
	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 10, 0, 0, 0, h.Location)
	sessions := []invoicing.Session{
		{
			ID:              "demo-solo-1",
			ServiceConfigID: "individual-30",
			ContractorID:    "dana",
			Date:            monthStart.AddDate(0, 0, 2),
			DurationMinutes: 30,
			Attendees: []pricing.Attendee{
				{ClientID: "alice", PaymentMethod: pricing.PaymentPrivatePay},
			},
		},
		{
			ID:              "demo-group-1",
			ServiceConfigID: "group-home",
			ContractorID:    "dana",
			Date:            monthStart.AddDate(0, 0, 4),
			DurationMinutes: 30,
			Attendees: []pricing.Attendee{
				{ClientID: "bob", PaymentMethod: pricing.PaymentGroupHome},
				{ClientID: "carol", PaymentMethod: pricing.PaymentGroupHome},
				{ClientID: "alice", PaymentMethod: pricing.PaymentPrivatePay},
			},
		},
		{
			ID:              "demo-scholarship-1",
			ServiceConfigID: "adaptive-lessons",
			ContractorID:    "sam",
			Date:            monthStart.AddDate(0, 0, 7),
			DurationMinutes: 30,
			Attendees: []pricing.Attendee{
				{ClientID: "dev", PaymentMethod: pricing.PaymentScholarship},
			},
		},
		{
			ID:              "demo-scholarship-2",
			ServiceConfigID: "adaptive-lessons",
			ContractorID:    "sam",
			Date:            monthStart.AddDate(0, 0, 14),
			DurationMinutes: 60,
			Attendees: []pricing.Attendee{
				{ClientID: "dev", PaymentMethod: pricing.PaymentScholarship},
			},
		},
	}
	for _, sess := range sessions {
		sess.OrganizationID = h.OrgID
		sess.Status = invoicing.SessionSubmitted
		if err := h.Store.SaveSession(ctx, sess); err != nil {
			return err
		}
	}

	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}

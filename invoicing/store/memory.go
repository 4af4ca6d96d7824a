// Package store provides in-memory implementations of the invoicing
// persistence interfaces, for tests and the demo scenario.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements SessionSource, ConfigSource, InvoiceStore and BatchStore
// with maps behind a mutex. Atomicity requirements are trivially met because
// every write holds the lock for its full span.
type Memory struct {
	mu         sync.RWMutex
	configs    map[pricing.ServiceConfigID]pricing.ServiceConfig
	sessions   map[pricing.SessionID]invoicing.Session
	invoices   []invoicing.Invoice
	journal    map[string]bool
	lines      map[string]invoicing.BatchLine
	aggregated map[pricing.SessionID]string // session -> batch line ID
}

func NewMemory() *Memory {
	return &Memory{
		configs:    make(map[pricing.ServiceConfigID]pricing.ServiceConfig),
		sessions:   make(map[pricing.SessionID]invoicing.Session),
		journal:    make(map[string]bool),
		lines:      make(map[string]invoicing.BatchLine),
		aggregated: make(map[pricing.SessionID]string),
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func (m *Memory) PutConfig(cfg pricing.ServiceConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
}

func (m *Memory) PutSession(s invoicing.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *Memory) Session(id pricing.SessionID) (invoicing.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// =============================================================================
// CONFIG SOURCE
// =============================================================================

func (m *Memory) ServiceConfig(_ context.Context, id pricing.ServiceConfigID) (pricing.ServiceConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return pricing.ServiceConfig{}, invoicing.ErrConfigNotFound
	}
	return cfg, nil
}

// =============================================================================
// SESSION SOURCE
// =============================================================================

func (m *Memory) ScholarshipCandidates(_ context.Context, orgID string, asOf time.Time) ([]invoicing.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []invoicing.Session
	for _, s := range m.sessions {
		if s.OrganizationID != orgID || !s.Status.Billable() || s.Date.After(asOf) {
			continue
		}
		if _, done := m.aggregated[s.ID]; done {
			continue
		}
		cfg, ok := m.configs[s.ServiceConfigID]
		if !ok || !s.ScholarshipEligible(cfg) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// INVOICE STORE
// =============================================================================

func (m *Memory) AppendInvoices(_ context.Context, invoices []invoicing.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all keys first, then write: all-or-nothing.
	for _, inv := range invoices {
		if m.journal[inv.JournalKey()] {
			return &invoicing.DuplicateInvoiceError{SessionID: inv.SessionID, ClientID: inv.ClientID}
		}
	}
	for _, inv := range invoices {
		m.journal[inv.JournalKey()] = true
		m.invoices = append(m.invoices, inv)
	}
	return nil
}

func (m *Memory) InvoiceExists(_ context.Context, journalKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.journal[journalKey], nil
}

func (m *Memory) ListInvoicesByClient(_ context.Context, clientID pricing.ClientID) ([]invoicing.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []invoicing.Invoice
	for _, inv := range m.invoices {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// BATCH STORE
// =============================================================================

func (m *Memory) AppendBatchLines(_ context.Context, lines []invoicing.BatchLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, line := range lines {
		for _, sid := range line.SessionIDs {
			if _, done := m.aggregated[sid]; done {
				return invoicing.ErrSessionAlreadyAggregated
			}
		}
	}
	for _, line := range lines {
		m.lines[line.ID] = line
		for _, sid := range line.SessionIDs {
			m.aggregated[sid] = line.ID
		}
	}
	return nil
}

func (m *Memory) ListBatchLines(_ context.Context, orgID string) ([]invoicing.BatchLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []invoicing.BatchLine
	for _, line := range m.lines {
		if line.OrganizationID == orgID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[j].Month.Before(out[i].Month)
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}

func (m *Memory) TransitionBatchLine(_ context.Context, lineID string, status invoicing.BatchLineStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.lines[lineID]
	if !ok {
		return invoicing.ErrBatchLineNotFound
	}
	if line.Status != invoicing.BatchPending {
		return invoicing.ErrBatchLineFinal
	}
	line.Status = status
	m.lines[lineID] = line
	return nil
}

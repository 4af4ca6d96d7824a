/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (invoicing.SessionSource,
  invoicing.ConfigSource, invoicing.InvoiceStore, invoicing.BatchStore)
  using SQLite, plus the practice-management CRUD the HTTP layer needs
  (service configs, contractors, clients, overrides, sessions). In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

MONEY INVARIANTS ENFORCED HERE:
  - invoices.journal_key UNIQUE: at most one invoice per (session, client),
    so two concurrent approvals of the same session cannot bill it twice
  - batch_line_sessions.session_id PRIMARY KEY: a session is a member of
    at most one batch line, ever - double aggregation is impossible even
    if two batch runs race
  - Invoice money columns are written once and never updated; status is
    the only mutable invoice field
  - Batch line + membership rows are written in one SQL transaction

MONEY STORAGE:
  Amounts are stored as decimal TEXT (e.g. "71.50"), never floats, so a
  persisted breakdown re-reads with its fields bit-identical.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/practice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - invoicing/store.go: Interface definitions
  - invoicing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/weberl48/MTApp-sub000/factory"
	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db      *sql.DB
	factory *factory.ConfigFactory
	mu      sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, factory: factory.NewConfigFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Service configurations (pricing rules, admin-edited)
	-- config_json is the factory JSON; scholarship columns are duplicated
	-- for the batch candidate query.
	CREATE TABLE IF NOT EXISTS service_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		is_scholarship INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Contractors; flat_bonus is the per-session pay increase ('' = none)
	CREATE TABLE IF NOT EXISTS contractors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		flat_bonus TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Per contractor+service custom base pay
	CREATE TABLE IF NOT EXISTS rate_overrides (
		contractor_id TEXT NOT NULL,
		service_config_id TEXT NOT NULL,
		custom_base_pay TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (contractor_id, service_config_id)
	);

	-- Clients and their payment arrangements
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'private_pay',
		created_at TEXT NOT NULL
	);

	-- Logged sessions
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		service_config_id TEXT NOT NULL,
		contractor_id TEXT NOT NULL,
		session_date TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'submitted',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_org_status
		ON sessions(org_id, status);
	CREATE INDEX IF NOT EXISTS idx_sessions_date
		ON sessions(session_date);

	CREATE TABLE IF NOT EXISTS session_attendees (
		session_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (session_id, client_id)
	);

	CREATE INDEX IF NOT EXISTS idx_attendees_client
		ON session_attendees(client_id);

	-- Invoices (append-only journal; money columns never updated)
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		journal_key TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		service_config_id TEXT NOT NULL,
		contractor_id TEXT NOT NULL,
		session_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		session_total TEXT NOT NULL,
		org_cut TEXT NOT NULL,
		rent TEXT NOT NULL,
		contractor_pay TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_client
		ON invoices(client_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_invoices_session
		ON invoices(session_id);

	-- Scholarship batch lines
	CREATE TABLE IF NOT EXISTS batch_lines (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		service_config_id TEXT NOT NULL,
		month TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batch_lines_org
		ON batch_lines(org_id, month DESC);

	-- CRITICAL: a session belongs to at most one batch line, ever.
	-- The PRIMARY KEY on session_id is the no-double-billing guarantee.
	CREATE TABLE IF NOT EXISTS batch_line_sessions (
		session_id TEXT PRIMARY KEY,
		batch_line_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batch_line_sessions_line
		ON batch_line_sessions(batch_line_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SERVICE CONFIGS (invoicing.ConfigSource + CRUD)
// =============================================================================

// SaveServiceConfig inserts or replaces a configuration. The scholarship
// flag is denormalized into its own column for the candidate query.
func (s *Store) SaveServiceConfig(ctx context.Context, cfg *pricing.ServiceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := s.factory.MarshalConfig(cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO service_configs (id, name, config_json, is_scholarship, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			is_scholarship = excluded.is_scholarship,
			updated_at = excluded.updated_at
	`, string(cfg.ID), cfg.Name, configJSON, boolToInt(cfg.Scholarship), now, now)
	if err != nil {
		return fmt.Errorf("failed to save service config: %w", err)
	}
	return nil
}

// ServiceConfig implements invoicing.ConfigSource.
func (s *Store) ServiceConfig(ctx context.Context, id pricing.ServiceConfigID) (pricing.ServiceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM service_configs WHERE id = ?`, string(id)).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return pricing.ServiceConfig{}, invoicing.ErrConfigNotFound
	}
	if err != nil {
		return pricing.ServiceConfig{}, fmt.Errorf("failed to load service config: %w", err)
	}

	cfg, err := s.factory.ParseConfig(configJSON)
	if err != nil {
		return pricing.ServiceConfig{}, fmt.Errorf("stored service config %s is invalid: %w", id, err)
	}
	return *cfg, nil
}

// ListServiceConfigs returns all configurations, parsed.
func (s *Store) ListServiceConfigs(ctx context.Context) ([]pricing.ServiceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT config_json FROM service_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service configs: %w", err)
	}
	defer rows.Close()

	var out []pricing.ServiceConfig
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		cfg, err := s.factory.ParseConfig(configJSON)
		if err != nil {
			continue // Skip invalid configs
		}
		out = append(out, *cfg)
	}
	return out, rows.Err()
}

// =============================================================================
// CONTRACTORS, OVERRIDES, PAY INCREASES
// =============================================================================

type Contractor struct {
	ID        string
	Name      string
	Email     string
	FlatBonus string // decimal text; "" = no pay increase
	CreatedAt time.Time
}

func (s *Store) SaveContractor(ctx context.Context, c Contractor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contractors (id, name, email, flat_bonus, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			flat_bonus = excluded.flat_bonus
	`, c.ID, c.Name, c.Email, c.FlatBonus, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save contractor: %w", err)
	}
	return nil
}

func (s *Store) GetContractor(ctx context.Context, id string) (*Contractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Contractor
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, flat_bonus, created_at FROM contractors WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.FlatBonus, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (s *Store) ListContractors(ctx context.Context) ([]Contractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, flat_bonus, created_at FROM contractors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		var c Contractor
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.FlatBonus, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PayIncreaseFor returns the contractor's flat bonus record, or nil when the
// contractor has none. Absence is the normal case, not an error.
func (s *Store) PayIncreaseFor(ctx context.Context, contractorID pricing.ContractorID) (*pricing.ContractorPayIncrease, error) {
	c, err := s.GetContractor(ctx, string(contractorID))
	if err != nil || c == nil || c.FlatBonus == "" {
		return nil, err
	}
	bonus, err := pricing.ParseMoney(c.FlatBonus)
	if err != nil {
		return nil, fmt.Errorf("contractor %s has malformed flat bonus: %w", contractorID, err)
	}
	return &pricing.ContractorPayIncrease{ContractorID: contractorID, FlatBonus: bonus}, nil
}

func (s *Store) SaveRateOverride(ctx context.Context, o pricing.ContractorRateOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_overrides (contractor_id, service_config_id, custom_base_pay, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(contractor_id, service_config_id) DO UPDATE SET
			custom_base_pay = excluded.custom_base_pay
	`, string(o.ContractorID), string(o.ServiceConfigID), o.CustomBasePay.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save rate override: %w", err)
	}
	return nil
}

// RateOverrideFor returns the override for a contractor+service pair, or nil
// when none exists.
func (s *Store) RateOverrideFor(ctx context.Context, contractorID pricing.ContractorID, configID pricing.ServiceConfigID) (*pricing.ContractorRateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pay string
	err := s.db.QueryRowContext(ctx, `
		SELECT custom_base_pay FROM rate_overrides
		WHERE contractor_id = ? AND service_config_id = ?
	`, string(contractorID), string(configID)).Scan(&pay)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate override: %w", err)
	}

	amount, err := pricing.ParseMoney(pay)
	if err != nil {
		return nil, fmt.Errorf("stored override is malformed: %w", err)
	}
	return &pricing.ContractorRateOverride{
		ContractorID:    contractorID,
		ServiceConfigID: configID,
		CustomBasePay:   amount,
	}, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

type Client struct {
	ID            string
	Name          string
	PaymentMethod pricing.PaymentMethod
	CreatedAt     time.Time
}

func (s *Store) SaveClient(ctx context.Context, c Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, payment_method, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			payment_method = excluded.payment_method
	`, c.ID, c.Name, string(c.PaymentMethod), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Client
	var method, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, payment_method, created_at FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &method, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	c.PaymentMethod = pricing.PaymentMethod(method)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, payment_method, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		var method, createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &method, &createdAt); err != nil {
			return nil, err
		}
		c.PaymentMethod = pricing.PaymentMethod(method)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// SESSIONS (invoicing.SessionSource + CRUD)
// =============================================================================

func (s *Store) SaveSession(ctx context.Context, sess invoicing.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, org_id, service_config_id, contractor_id, session_date, duration_minutes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status
	`, string(sess.ID), sess.OrganizationID, string(sess.ServiceConfigID), string(sess.ContractorID),
		sess.Date.UTC().Format(time.RFC3339), sess.DurationMinutes, string(sess.Status),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_attendees WHERE session_id = ?`, string(sess.ID)); err != nil {
		return err
	}
	for i, att := range sess.Attendees {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_attendees (session_id, client_id, payment_method, position)
			VALUES (?, ?, ?, ?)
		`, string(sess.ID), string(att.ClientID), string(att.PaymentMethod), i)
		if err != nil {
			return fmt.Errorf("failed to save attendee: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetSession(ctx context.Context, id pricing.SessionID) (*invoicing.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx, `
		SELECT id, org_id, service_config_id, contractor_id, session_date, duration_minutes, status
		FROM sessions WHERE id = ?
	`, string(id))
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, invoicing.ErrSessionNotFound
	}
	return &sessions[0], nil
}

func (s *Store) ListSessions(ctx context.Context, orgID string) ([]invoicing.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySessions(ctx, `
		SELECT id, org_id, service_config_id, contractor_id, session_date, duration_minutes, status
		FROM sessions WHERE org_id = ? ORDER BY session_date DESC
	`, orgID)
}

// UpdateSessionStatus moves a session through its workflow states.
func (s *Store) UpdateSessionStatus(ctx context.Context, id pricing.SessionID, status invoicing.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE id = ?`, string(status), string(id))
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invoicing.ErrSessionNotFound
	}
	return nil
}

// ScholarshipCandidates implements invoicing.SessionSource: billable
// scholarship-eligible sessions up to asOf that are not yet a member of any
// batch line. The NOT IN filter is the idempotence mechanism.
func (s *Store) ScholarshipCandidates(ctx context.Context, orgID string, asOf time.Time) ([]invoicing.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySessions(ctx, `
		SELECT s.id, s.org_id, s.service_config_id, s.contractor_id, s.session_date, s.duration_minutes, s.status
		FROM sessions s
		JOIN service_configs c ON c.id = s.service_config_id
		WHERE s.org_id = ?
		  AND s.status IN ('approved', 'completed')
		  AND s.session_date <= ?
		  AND s.id NOT IN (SELECT session_id FROM batch_line_sessions)
		  AND (c.is_scholarship = 1 OR EXISTS (
				SELECT 1 FROM session_attendees a
				WHERE a.session_id = s.id AND a.payment_method = 'scholarship'))
		ORDER BY s.id
	`, orgID, asOf.UTC().Format(time.RFC3339))
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]invoicing.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []invoicing.Session
	for rows.Next() {
		var sess invoicing.Session
		var id, configID, contractorID, date, status string
		if err := rows.Scan(&id, &sess.OrganizationID, &configID, &contractorID, &date, &sess.DurationMinutes, &status); err != nil {
			return nil, err
		}
		sess.ID = pricing.SessionID(id)
		sess.ServiceConfigID = pricing.ServiceConfigID(configID)
		sess.ContractorID = pricing.ContractorID(contractorID)
		sess.Status = invoicing.SessionStatus(status)
		sess.Date, _ = time.Parse(time.RFC3339, date)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		attendees, err := s.loadAttendees(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Attendees = attendees
	}
	return out, nil
}

func (s *Store) loadAttendees(ctx context.Context, sessionID pricing.SessionID) ([]pricing.Attendee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, payment_method FROM session_attendees
		WHERE session_id = ? ORDER BY position
	`, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}
	defer rows.Close()

	var out []pricing.Attendee
	for rows.Next() {
		var clientID, method string
		if err := rows.Scan(&clientID, &method); err != nil {
			return nil, err
		}
		out = append(out, pricing.Attendee{
			ClientID:      pricing.ClientID(clientID),
			PaymentMethod: pricing.PaymentMethod(method),
		})
	}
	return out, rows.Err()
}

// =============================================================================
// INVOICES (invoicing.InvoiceStore)
// =============================================================================

// AppendInvoices writes a session's invoices in one transaction. The UNIQUE
// journal_key column rejects a second billing of the same (session, client).
func (s *Store) AppendInvoices(ctx context.Context, invoices []invoicing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, inv := range invoices {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices
			(id, journal_key, session_id, client_id, service_config_id, contractor_id,
			 session_date, amount, session_total, org_cut, rent, contractor_pay, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, inv.ID, inv.JournalKey(), string(inv.SessionID), string(inv.ClientID),
			string(inv.ServiceConfigID), string(inv.ContractorID),
			inv.SessionDate.UTC().Format(time.RFC3339),
			inv.Amount.String(), inv.SessionTotal.String(), inv.OrgCut.String(),
			inv.Rent.String(), inv.ContractorPay.String(),
			string(inv.Status), inv.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			if isUniqueConstraintError(err) {
				return &invoicing.DuplicateInvoiceError{SessionID: inv.SessionID, ClientID: inv.ClientID}
			}
			return fmt.Errorf("failed to append invoice: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) InvoiceExists(ctx context.Context, journalKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE journal_key = ?`, journalKey).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check journal key: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListInvoicesByClient(ctx context.Context, clientID pricing.ClientID) ([]invoicing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx, `
		SELECT id, session_id, client_id, service_config_id, contractor_id,
		       session_date, amount, session_total, org_cut, rent, contractor_pay, status, created_at
		FROM invoices WHERE client_id = ? ORDER BY created_at DESC
	`, string(clientID))
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]invoicing.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var out []invoicing.Invoice
	for rows.Next() {
		var inv invoicing.Invoice
		var sessionID, clientID, configID, contractorID string
		var date, amount, total, orgCut, rent, pay, status, createdAt string
		if err := rows.Scan(&inv.ID, &sessionID, &clientID, &configID, &contractorID,
			&date, &amount, &total, &orgCut, &rent, &pay, &status, &createdAt); err != nil {
			return nil, err
		}
		inv.SessionID = pricing.SessionID(sessionID)
		inv.ClientID = pricing.ClientID(clientID)
		inv.ServiceConfigID = pricing.ServiceConfigID(configID)
		inv.ContractorID = pricing.ContractorID(contractorID)
		inv.Status = invoicing.InvoiceStatus(status)
		inv.SessionDate, _ = time.Parse(time.RFC3339, date)
		inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		if inv.Amount, err = pricing.ParseMoney(amount); err != nil {
			return nil, fmt.Errorf("stored invoice amount is malformed: %w", err)
		}
		if inv.SessionTotal, err = pricing.ParseMoney(total); err != nil {
			return nil, err
		}
		if inv.OrgCut, err = pricing.ParseMoney(orgCut); err != nil {
			return nil, err
		}
		if inv.Rent, err = pricing.ParseMoney(rent); err != nil {
			return nil, err
		}
		if inv.ContractorPay, err = pricing.ParseMoney(pay); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// =============================================================================
// BATCH LINES (invoicing.BatchStore)
// =============================================================================

// AppendBatchLines writes lines and their session membership in one SQL
// transaction. The PRIMARY KEY on batch_line_sessions.session_id makes the
// second of two racing aggregation runs fail cleanly.
func (s *Store) AppendBatchLines(ctx context.Context, lines []invoicing.BatchLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO batch_lines (id, org_id, client_id, service_config_id, month, total, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, line.ID, line.OrganizationID, string(line.ClientID), string(line.ServiceConfigID),
			line.Month.String(), line.Total.String(), string(line.Status),
			line.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert batch line: %w", err)
		}

		for _, sid := range line.SessionIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO batch_line_sessions (session_id, batch_line_id) VALUES (?, ?)
			`, string(sid), line.ID)
			if err != nil {
				if isUniqueConstraintError(err) {
					return invoicing.ErrSessionAlreadyAggregated
				}
				return fmt.Errorf("failed to record batch membership: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (s *Store) ListBatchLines(ctx context.Context, orgID string) ([]invoicing.BatchLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, client_id, service_config_id, month, total, status, created_at
		FROM batch_lines WHERE org_id = ? ORDER BY month DESC, client_id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch lines: %w", err)
	}
	defer rows.Close()

	var out []invoicing.BatchLine
	for rows.Next() {
		var line invoicing.BatchLine
		var clientID, configID, month, total, status, createdAt string
		if err := rows.Scan(&line.ID, &line.OrganizationID, &clientID, &configID,
			&month, &total, &status, &createdAt); err != nil {
			return nil, err
		}
		line.ClientID = pricing.ClientID(clientID)
		line.ServiceConfigID = pricing.ServiceConfigID(configID)
		line.Status = invoicing.BatchLineStatus(status)
		line.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if line.Month, err = invoicing.ParseBillingMonth(month); err != nil {
			return nil, err
		}
		if line.Total, err = pricing.ParseMoney(total); err != nil {
			return nil, fmt.Errorf("stored batch total is malformed: %w", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := s.batchLineSessions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].SessionIDs = ids
	}
	return out, nil
}

func (s *Store) batchLineSessions(ctx context.Context, lineID string) ([]pricing.SessionID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id FROM batch_line_sessions WHERE batch_line_id = ? ORDER BY session_id
	`, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch membership: %w", err)
	}
	defer rows.Close()

	var out []pricing.SessionID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, pricing.SessionID(id))
	}
	return out, rows.Err()
}

// TransitionBatchLine moves a pending line to sent/void. The WHERE clause on
// status makes lines immutable after their first transition.
func (s *Store) TransitionBatchLine(ctx context.Context, lineID string, status invoicing.BatchLineStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE batch_lines SET status = ? WHERE id = ? AND status = 'pending'
	`, string(status), lineID)
	if err != nil {
		return fmt.Errorf("failed to transition batch line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM batch_lines WHERE id = ?`, lineID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return invoicing.ErrBatchLineNotFound
		}
		return invoicing.ErrBatchLineFinal
	}
	return nil
}

// =============================================================================
// DEV / DEMO
// =============================================================================

// Reset wipes all data. Dev and demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"batch_line_sessions", "batch_lines", "invoices",
		"session_attendees", "sessions", "rate_overrides",
		"clients", "contractors", "service_configs",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to reset %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

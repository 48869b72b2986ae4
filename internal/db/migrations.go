package db

import (
	"fmt"
)

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Departments
CREATE TABLE departments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    shortname TEXT NOT NULL UNIQUE
);

-- Clients with the per-client invoice number counter
CREATE TABLE clients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    shortname TEXT NOT NULL UNIQUE,
    last_invoice_number INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Billing addresses
CREATE TABLE billing_addresses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL REFERENCES clients(id),
    street TEXT,
    zip TEXT,
    town TEXT
);

-- Employees
CREATE TABLE employees (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    firstname TEXT NOT NULL,
    lastname TEXT NOT NULL,
    shortname TEXT NOT NULL UNIQUE
);

-- Contracts
CREATE TABLE contracts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    number TEXT,
    payment_period INTEGER NOT NULL DEFAULT 30,
    reference TEXT
);

-- Orders
CREATE TABLE orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    shortname TEXT NOT NULL,
    client_id INTEGER NOT NULL REFERENCES clients(id),
    department_id INTEGER NOT NULL REFERENCES departments(id),
    contract_id INTEGER REFERENCES contracts(id),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Work items and their billing terms
CREATE TABLE work_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);

CREATE TABLE accounting_posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    work_item_id INTEGER NOT NULL UNIQUE REFERENCES work_items(id),
    name TEXT NOT NULL,
    offered_rate TEXT NOT NULL DEFAULT '0',
    billable INTEGER NOT NULL DEFAULT 1
);

-- Absences
CREATE TABLE absences (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    payed INTEGER NOT NULL DEFAULT 0,
    vacation INTEGER NOT NULL DEFAULT 0
);

-- The built-in vacation absence; protected against deletion
INSERT INTO absences (id, name, payed, vacation) VALUES (1, 'Ferien', 1, 1);

-- Invoices
CREATE TABLE invoices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id INTEGER NOT NULL REFERENCES orders(id),
    billing_date TEXT NOT NULL,
    due_date TEXT,
    total_amount TEXT NOT NULL DEFAULT '0',
    total_hours REAL NOT NULL DEFAULT 0,
    reference TEXT NOT NULL UNIQUE,
    period_from TEXT NOT NULL,
    period_to TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    add_vat INTEGER NOT NULL DEFAULT 1,
    billing_address_id INTEGER NOT NULL REFERENCES billing_addresses(id),
    invoicing_key TEXT UNIQUE,
    grouping TEXT NOT NULL DEFAULT 'accounting_posts',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Filter sets: work items / employees an invoice may bill
CREATE TABLE invoices_work_items (
    invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    work_item_id INTEGER NOT NULL REFERENCES work_items(id),
    PRIMARY KEY (invoice_id, work_item_id)
);

CREATE TABLE invoices_employees (
    invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    employee_id INTEGER NOT NULL REFERENCES employees(id),
    PRIMARY KEY (invoice_id, employee_id)
);

-- Worktimes; invoice_id is nullified, not cascaded, on invoice destroy
CREATE TABLE worktimes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL DEFAULT 'ordertime',
    employee_id INTEGER NOT NULL REFERENCES employees(id),
    work_item_id INTEGER REFERENCES work_items(id),
    absence_id INTEGER REFERENCES absences(id),
    report_type TEXT NOT NULL,
    work_date TEXT NOT NULL,
    hours REAL NOT NULL DEFAULT 0,
    from_start_time TEXT,
    to_end_time TEXT,
    billable INTEGER NOT NULL DEFAULT 1,
    invoice_id INTEGER REFERENCES invoices(id),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- At most one open timer entry per employee, enforced by the schema in
-- addition to the optimistic validation check
CREATE UNIQUE INDEX idx_worktimes_open ON worktimes(employee_id)
    WHERE report_type = 'auto_start' AND to_end_time IS NULL;

-- Indexes
CREATE INDEX idx_worktimes_employee ON worktimes(employee_id);
CREATE INDEX idx_worktimes_work_date ON worktimes(work_date);
CREATE INDEX idx_worktimes_unbilled ON worktimes(work_item_id, invoice_id) WHERE invoice_id IS NULL;
CREATE INDEX idx_invoices_status ON invoices(status);
CREATE INDEX idx_invoices_order ON invoices(order_id);
`,
	},
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations() error {
	// Ensure schema_version table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Apply pending migrations in a transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		// Execute migration SQL
		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		// Record migration
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	return nil
}

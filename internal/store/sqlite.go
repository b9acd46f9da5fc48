package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/faultdrill/internal/counter"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	workOrdersTable = "work_orders"
	legacyTable     = "work_orders_legacy"
	workOrderKey    = "work_order"
)

// SQLiteStore keeps work orders, the ID counter and the decision log in one
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at dbPath and runs migrations for the
// auxiliary tables. The work_orders table is handled by EnsureSchema.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	// m.Close would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether the last
// migration left the database dirty.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var version int64
	var dirty bool
	err := s.db.QueryRowContext(ctx,
		`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// --- Work Orders ---

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func createTableSQL(name string) string {
	defs := make([]string, len(Columns))
	for i, col := range Columns {
		defs[i] = quote(col) + ` TEXT NOT NULL DEFAULT ''`
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quote(name), strings.Join(defs, ",\n\t"))
}

func tableColumns(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid      int
			name     string
			ctype    string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EnsureSchema creates work_orders or rebuilds it when its columns differ
// from Columns. Rows keep their order and shared cells; new columns are "".
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	cols, err := tableColumns(ctx, tx, workOrdersTable)
	if err != nil {
		return err
	}
	if sameColumns(cols) {
		return nil
	}

	if len(cols) == 0 {
		if _, err := tx.ExecContext(ctx, createTableSQL(workOrdersTable)); err != nil {
			return fmt.Errorf("create work_orders: %w", err)
		}
	} else {
		if err := rebuild(ctx, tx, cols); err != nil {
			return fmt.Errorf("migrate work_orders: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_work_orders_id ON work_orders("WO_ID")`); err != nil {
		return fmt.Errorf("create work_orders index: %w", err)
	}
	return tx.Commit()
}

func rebuild(ctx context.Context, tx *sql.Tx, legacy []string) error {
	have := make(map[string]bool, len(legacy))
	for _, c := range legacy {
		have[c] = true
	}
	var dst, src []string
	for _, c := range Columns {
		if have[c] {
			dst = append(dst, quote(c))
			src = append(src, fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", quote(c)))
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quote(workOrdersTable), quote(legacyTable))); err != nil {
		return fmt.Errorf("rename legacy table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(workOrdersTable)); err != nil {
		return fmt.Errorf("create work_orders: %w", err)
	}

	if len(dst) > 0 {
		copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY rowid",
			quote(workOrdersTable), strings.Join(dst, ", "), strings.Join(src, ", "), quote(legacyTable))
		if _, err := tx.ExecContext(ctx, copySQL); err != nil {
			return fmt.Errorf("copy legacy rows: %w", err)
		}
	} else if err := copyBlankRows(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", quote(legacyTable))); err != nil {
		return fmt.Errorf("drop legacy table: %w", err)
	}
	return nil
}

// copyBlankRows inserts one empty row per legacy row.
func copyBlankRows(ctx context.Context, tx *sql.Tx) error {
	var n int
	if err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(legacyTable))).Scan(&n); err != nil {
		return fmt.Errorf("count legacy rows: %w", err)
	}
	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(workOrdersTable))); err != nil {
			return fmt.Errorf("insert blank row: %w", err)
		}
	}
	return nil
}

// Append inserts one work order.
func (s *SQLiteStore) Append(ctx context.Context, wo models.WorkOrder) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	cols := make([]string, len(Columns))
	marks := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	row := encode(wo)
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO work_orders (%s) VALUES (%s)", strings.Join(cols, ", "), strings.Join(marks, ", ")),
		args...)
	if err != nil {
		return fmt.Errorf("insert work order: %w", err)
	}
	return nil
}

// Update sets the named columns on the first row with a matching WO_ID.
func (s *SQLiteStore) Update(ctx context.Context, id string, fields Fields) (bool, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	var rowid int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM work_orders WHERE "WO_ID" = ? ORDER BY rowid LIMIT 1`, id).Scan(&rowid)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find work order: %w", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if isColumn(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if len(names) > 0 {
		sets := make([]string, len(names))
		args := make([]any, 0, len(names)+1)
		for i, name := range names {
			sets[i] = quote(name) + " = ?"
			args = append(args, fields[name])
		}
		args = append(args, rowid)
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE work_orders SET %s WHERE rowid = ?", strings.Join(sets, ", ")),
			args...); err != nil {
			return false, fmt.Errorf("update work order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update: %w", err)
	}
	return true, nil
}

// ScanAll returns every work order in insertion order.
func (s *SQLiteStore) ScanAll(ctx context.Context) ([]models.WorkOrder, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = quote(c)
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM work_orders ORDER BY rowid", strings.Join(cols, ", ")))
	if err != nil {
		return nil, fmt.Errorf("query work orders: %w", err)
	}
	defer rows.Close()

	var orders []models.WorkOrder
	for rows.Next() {
		cells := make([]string, len(Columns))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, decode(zip(Columns, cells)))
	}
	return orders, rows.Err()
}

// --- Counter ---

// NextID increments the persisted work-order counter and returns the next ID.
// An unreadable stored value restarts the sequence at 1.
func (s *SQLiteStore) NextID(ctx context.Context) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin counter tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, workOrderKey).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("read counter: %w", err)
	}
	current, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil || current < 0 {
		current = 0
	}
	next := current + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		workOrderKey, strconv.Itoa(next)); err != nil {
		return "", fmt.Errorf("write counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit counter: %w", err)
	}
	return counter.FormatID(next), nil
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *SQLiteStore) WritePDR(ctx context.Context, entry *models.PDREntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdr (id, action, inputs_hash, outcome, work_order_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.WorkOrderID, entry.Details,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert pdr: %w", err)
	}
	return nil
}

// ListPDR returns decision records for a work order, oldest first. An empty
// workOrderID returns every record.
func (s *SQLiteStore) ListPDR(ctx context.Context, workOrderID string, limit int) ([]models.PDREntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, action, inputs_hash, outcome, COALESCE(work_order_id, ''), COALESCE(details, ''), timestamp FROM pdr`
	var args []any
	if workOrderID != "" {
		query += ` WHERE work_order_id = ?`
		args = append(args, workOrderID)
	}
	query += ` ORDER BY timestamp, rowid LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []models.PDREntry
	for rows.Next() {
		var e models.PDREntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &e.WorkOrderID, &e.Details, &ts); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

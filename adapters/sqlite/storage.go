// Package sqlite implements the primary record store on a single database
// file. Writes commit synchronously and are serialized on one connection so
// concurrent award pipelines never interleave partial updates at the driver
// level.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"levelkit/core"
)

const tableName = "leaderboard"

const createTableSQL = `CREATE TABLE ` + tableName + ` (
	tenant_id INTEGER NOT NULL,
	member_id INTEGER NOT NULL,
	member_name TEXT NOT NULL,
	member_level INTEGER NOT NULL,
	member_xp INTEGER NOT NULL,
	member_total_xp INTEGER NOT NULL
)`

// expectedColumns is the schema shape every public operation verifies
// before touching the table. Order matters.
var expectedColumns = []string{
	"tenant_id",
	"member_id",
	"member_name",
	"member_level",
	"member_xp",
	"member_total_xp",
}

// Store is a RecordStore backed by one SQLite file.
type Store struct {
	mu   sync.Mutex
	db   *sqlx.DB
	path string
}

// Create makes a new database file with the leaderboard table. Fails when
// the file already exists.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("sqlite: %q already exists; use Open", path)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sqlite: create table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// NewWithDB wraps an existing handle, mainly for tests that mock the
// driver.
func NewWithDB(db *sqlx.DB, path string) *Store {
	return &Store{db: db, path: path}
}

// Open connects to an existing database file.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrStoreFileNotFound, path)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// one connection keeps read-modify-write cycles from interleaving
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA synchronous = FULL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: pragma: %w", err)
	}
	return db, nil
}

// Switch closes the current file and connects to another one.
func (s *Store) Switch(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", core.ErrStoreFileNotFound, path)
	}
	db, err := open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.path = path
	return nil
}

// Path returns the backing file's path.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Close releases the database handle. Further operations fail with
// ErrNotConnected.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Backup copies the database file into dir, optionally suffixing the name
// with a timestamp. Returns the backup's path.
func (s *Store) Backup(dir string, withTimestamp bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", core.ErrNotConnected
	}

	base := filepath.Base(s.path)
	if withTimestamp {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		base = fmt.Sprintf("%s-%s%s", stem, time.Now().Format("2006-01-02_15-04-05"), ext)
	}
	target := filepath.Join(dir, base)

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("sqlite: backup: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("sqlite: backup: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("sqlite: backup: %w", err)
	}
	return target, nil
}

// guard verifies the connection, table presence, and column layout before
// every public operation, so external edits to the file surface as typed
// errors instead of driver failures mid-query.
func (s *Store) guard(ctx context.Context) error {
	if s.db == nil {
		return core.ErrNotConnected
	}
	var name string
	err := s.db.GetContext(ctx, &name,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrTableNotFound, tableName)
	}
	if err != nil {
		return fmt.Errorf("sqlite: schema check: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, "PRAGMA table_info("+tableName+")")
	if err != nil {
		return fmt.Errorf("sqlite: schema check: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var info struct {
			CID          int            `db:"cid"`
			Name         string         `db:"name"`
			Type         string         `db:"type"`
			NotNull      int            `db:"notnull"`
			DefaultValue sql.NullString `db:"dflt_value"`
			PK           int            `db:"pk"`
		}
		if err := rows.StructScan(&info); err != nil {
			return fmt.Errorf("sqlite: schema check: %w", err)
		}
		columns = append(columns, info.Name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: schema check: %w", err)
	}

	if len(columns) != len(expectedColumns) {
		return core.ErrSchemaCorrupted
	}
	for i, want := range expectedColumns {
		if columns[i] != want {
			return core.ErrSchemaCorrupted
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, tenant core.TenantID, member core.MemberID) (*core.MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	var rec core.MemberRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT tenant_id, member_id, member_name, member_level, member_xp, member_total_xp
		 FROM `+tableName+` WHERE tenant_id = ? AND member_id = ?`, tenant, member)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get: %w", err)
	}
	return &rec, nil
}

func (s *Store) Upsert(ctx context.Context, rec core.MemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+tableName+` SET member_name = ?, member_level = ?, member_xp = ?, member_total_xp = ?
		 WHERE tenant_id = ? AND member_id = ?`,
		rec.Name, rec.Level, rec.XP, rec.TotalXP, rec.TenantID, rec.MemberID)
	if err != nil {
		return fmt.Errorf("sqlite: upsert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: upsert: %w", err)
	}
	if affected > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+tableName+` (tenant_id, member_id, member_name, member_level, member_xp, member_total_xp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.TenantID, rec.MemberID, rec.Name, rec.Level, rec.XP, rec.TotalXP)
	if err != nil {
		return fmt.Errorf("sqlite: upsert: %w", err)
	}
	return nil
}

func (s *Store) IncrementXP(ctx context.Context, tenant core.TenantID, member core.MemberID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+tableName+` SET member_xp = member_xp + ?, member_total_xp = member_total_xp + ?
		 WHERE tenant_id = ? AND member_id = ?`, amount, amount, tenant, member)
	if err != nil {
		return fmt.Errorf("sqlite: increment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: increment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sqlite: no record for member %d in tenant %d", member, tenant)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenant core.TenantID, member core.MemberID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+tableName+` WHERE tenant_id = ? AND member_id = ?`, tenant, member)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: delete: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) Scan(ctx context.Context, tenant core.TenantID) ([]core.MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	var recs []core.MemberRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT tenant_id, member_id, member_name, member_level, member_xp, member_total_xp
		 FROM `+tableName+` WHERE tenant_id = ? ORDER BY member_id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan: %w", err)
	}
	return recs, nil
}

func (s *Store) ScanAll(ctx context.Context) ([]core.MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	var recs []core.MemberRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT tenant_id, member_id, member_name, member_level, member_xp, member_total_xp
		 FROM `+tableName+` ORDER BY tenant_id, member_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan all: %w", err)
	}
	return recs, nil
}

func (s *Store) Rank(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	var total int64
	err := s.db.GetContext(ctx, &total,
		`SELECT member_total_xp FROM `+tableName+` WHERE tenant_id = ? AND member_id = ?`, tenant, member)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: rank: %w", err)
	}
	var ahead int
	err = s.db.GetContext(ctx, &ahead,
		`SELECT COUNT(*) FROM `+tableName+`
		 WHERE tenant_id = ? AND (member_total_xp > ? OR (member_total_xp = ? AND member_id < ?))`,
		tenant, total, total, member)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rank: %w", err)
	}
	rank := ahead + 1
	return &rank, nil
}

func (s *Store) Count(ctx context.Context, tenant *core.TenantID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return 0, err
	}
	var n int64
	var err error
	if tenant != nil {
		err = s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+tableName+` WHERE tenant_id = ?`, *tenant)
	} else {
		err = s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+tableName)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

func (s *Store) Wipe(ctx context.Context, tenant *core.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return err
	}
	var err error
	if tenant != nil {
		_, err = s.db.ExecContext(ctx, `DELETE FROM `+tableName+` WHERE tenant_id = ?`, *tenant)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM `+tableName)
	}
	if err != nil {
		return fmt.Errorf("sqlite: wipe: %w", err)
	}
	return nil
}

func (s *Store) ResetAll(ctx context.Context, tenant *core.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx); err != nil {
		return err
	}
	var err error
	if tenant != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE `+tableName+` SET member_level = 0, member_xp = 0, member_total_xp = 0 WHERE tenant_id = ?`, *tenant)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE `+tableName+` SET member_level = 0, member_xp = 0, member_total_xp = 0`)
	}
	if err != nil {
		return fmt.Errorf("sqlite: reset: %w", err)
	}
	return nil
}

// QueryRows runs a raw parameterized SELECT against the backing file and
// hands each row's columns to fetch. Meant for one-off inspection, not the
// award path.
func (s *Store) QueryRows(ctx context.Context, query string, args []any, fetch func(columns map[string]any) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return core.ErrNotConnected
	}
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		cols := map[string]any{}
		if err := rows.MapScan(cols); err != nil {
			return fmt.Errorf("sqlite: query: %w", err)
		}
		if err := fetch(cols); err != nil {
			return err
		}
	}
	return rows.Err()
}

// TransferLegacy imports records from a v1 database file whose leaderboard
// table predates tenant scoping (five columns, no tenant_id). Every
// imported row is assigned to tenant. The current store must be empty.
func (s *Store) TransferLegacy(ctx context.Context, oldPath string, tenant core.TenantID) (int, error) {
	count, err := s.Count(ctx, nil)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, errors.New("sqlite: transfer target must be empty")
	}

	legacy, err := sqlx.Open("sqlite", oldPath)
	if err != nil {
		return 0, fmt.Errorf("sqlite: transfer: %w", err)
	}
	defer legacy.Close()

	type legacyRow struct {
		MemberID core.MemberID `db:"member_id"`
		Name     string        `db:"member_name"`
		Level    int           `db:"member_level"`
		XP       int64         `db:"member_xp"`
		TotalXP  int64         `db:"member_total_xp"`
	}
	var rows []legacyRow
	err = legacy.SelectContext(ctx, &rows,
		`SELECT member_id, member_name, member_level, member_xp, member_total_xp FROM `+tableName)
	if err != nil {
		return 0, fmt.Errorf("sqlite: transfer: read legacy: %w", err)
	}

	imported := 0
	for _, row := range rows {
		err := s.Upsert(ctx, core.MemberRecord{
			TenantID: tenant,
			MemberID: row.MemberID,
			Name:     row.Name,
			Level:    row.Level,
			XP:       row.XP,
			TotalXP:  row.TotalXP,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

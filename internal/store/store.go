// Package store persists projects, tasks, and frozen baseline snapshots in
// a local SQLite database. The engine itself never touches storage; the
// CLI loads task sets from here and writes computed schedules back.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/task"
)

// ErrProjectNotFound is returned when loading a project that has never
// been saved.
var ErrProjectNotFound = errors.New("project not found")

// ErrBaselineNotFound is returned when loading a baseline snapshot that
// does not exist.
var ErrBaselineNotFound = errors.New("baseline not found")

// schema contains the DDL executed on every open. IF NOT EXISTS makes it
// safe to run repeatedly.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    name       TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    project             TEXT NOT NULL,
    id                  TEXT NOT NULL,
    title               TEXT NOT NULL DEFAULT '',
    estimate_mins       INTEGER NOT NULL DEFAULT 0,
    start_date          TEXT NOT NULL DEFAULT '',
    due_date            TEXT NOT NULL DEFAULT '',
    impact              INTEGER NOT NULL DEFAULT 0,
    effort              INTEGER NOT NULL DEFAULT 0,
    calculated_priority REAL NOT NULL DEFAULT 0,
    position            INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project, id)
);

CREATE TABLE IF NOT EXISTS task_deps (
    project    TEXT NOT NULL,
    task_id    TEXT NOT NULL,
    depends_on TEXT NOT NULL,
    PRIMARY KEY (project, task_id, depends_on)
);

CREATE TABLE IF NOT EXISTS baselines (
    project   TEXT NOT NULL,
    name      TEXT NOT NULL,
    frozen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    result    TEXT NOT NULL,
    PRIMARY KEY (project, name)
);
`

// Store wraps a SQLite database holding planning data.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath, enables WAL mode and a
// busy timeout, and creates the schema if missing.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite supports a single writer; one pooled connection avoids
	// SQLITE_BUSY contention between connections that each need their own
	// PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProject upserts a project and replaces its task set in a single
// transaction. Tasks without an id are assigned a fresh UUID; the possibly
// amended slice is returned.
func (s *Store) SaveProject(ctx context.Context, name, startDate string, tasks []task.Task) ([]task.Task, error) {
	tasks = task.Clone(tasks)
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin save: %w", err)
	}
	defer tx.Rollback()

	const upsertProject = `
		INSERT INTO projects (name, start_date, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET start_date = excluded.start_date, updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, upsertProject, name, startDate); err != nil {
		return nil, fmt.Errorf("store: save project %q: %w", name, err)
	}

	// Replace, don't merge: the incoming set is canonical.
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project = ?", name); err != nil {
		return nil, fmt.Errorf("store: clear tasks for %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM task_deps WHERE project = ?", name); err != nil {
		return nil, fmt.Errorf("store: clear deps for %q: %w", name, err)
	}

	const insertTask = `
		INSERT INTO tasks (project, id, title, estimate_mins, start_date, due_date,
			impact, effort, calculated_priority, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	const insertDep = `INSERT INTO task_deps (project, task_id, depends_on) VALUES (?, ?, ?)`
	for i, t := range tasks {
		if _, err := tx.ExecContext(ctx, insertTask, name, t.ID, t.Title, t.EstimateMins,
			t.StartDate, t.DueDate, t.Impact, t.Effort, t.CalculatedPriority, i); err != nil {
			return nil, fmt.Errorf("store: save task %q: %w", t.ID, err)
		}
		for _, dep := range t.DependsOn {
			if _, err := tx.ExecContext(ctx, insertDep, name, t.ID, dep); err != nil {
				return nil, fmt.Errorf("store: save dep %s -> %s: %w", t.ID, dep, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit save: %w", err)
	}
	return tasks, nil
}

// LoadProject returns a project's start date and tasks in their original
// save order.
func (s *Store) LoadProject(ctx context.Context, name string) (string, []task.Task, error) {
	var startDate string
	err := s.db.QueryRowContext(ctx, "SELECT start_date FROM projects WHERE name = ?", name).Scan(&startDate)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return "", nil, fmt.Errorf("store: load project %q: %w", name, err)
	}

	const selectTasks = `
		SELECT id, title, estimate_mins, start_date, due_date, impact, effort, calculated_priority
		FROM tasks WHERE project = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, selectTasks, name)
	if err != nil {
		return "", nil, fmt.Errorf("store: load tasks for %q: %w", name, err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.EstimateMins, &t.StartDate, &t.DueDate,
			&t.Impact, &t.Effort, &t.CalculatedPriority); err != nil {
			return "", nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("store: iterate tasks: %w", err)
	}

	const selectDeps = `SELECT task_id, depends_on FROM task_deps WHERE project = ?`
	depRows, err := s.db.QueryContext(ctx, selectDeps, name)
	if err != nil {
		return "", nil, fmt.Errorf("store: load deps for %q: %w", name, err)
	}
	defer depRows.Close()

	deps := make(map[string][]string)
	for depRows.Next() {
		var taskID, dep string
		if err := depRows.Scan(&taskID, &dep); err != nil {
			return "", nil, fmt.Errorf("store: scan dep: %w", err)
		}
		deps[taskID] = append(deps[taskID], dep)
	}
	if err := depRows.Err(); err != nil {
		return "", nil, fmt.Errorf("store: iterate deps: %w", err)
	}
	for i := range tasks {
		tasks[i].DependsOn = deps[tasks[i].ID]
	}

	return startDate, tasks, nil
}

// SaveSchedule writes computed start/due dates back onto the stored tasks.
func (s *Store) SaveSchedule(ctx context.Context, project string, tasks []task.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin schedule save: %w", err)
	}
	defer tx.Rollback()

	const q = `UPDATE tasks SET start_date = ?, due_date = ? WHERE project = ? AND id = ?`
	for _, t := range tasks {
		if _, err := tx.ExecContext(ctx, q, t.StartDate, t.DueDate, project, t.ID); err != nil {
			return fmt.Errorf("store: save schedule for %q: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit schedule: %w", err)
	}
	return nil
}

// SaveBaseline freezes a planning result as a named JSON snapshot.
func (s *Store) SaveBaseline(ctx context.Context, project, name string, res engine.Result) error {
	blob, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("store: encode baseline %q: %w", name, err)
	}
	const q = `
		INSERT INTO baselines (project, name, frozen_at, result)
		VALUES (?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT(project, name) DO UPDATE SET result = excluded.result, frozen_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, q, project, name, string(blob)); err != nil {
		return fmt.Errorf("store: save baseline %q: %w", name, err)
	}
	return nil
}

// LoadBaseline retrieves a frozen snapshot by name.
func (s *Store) LoadBaseline(ctx context.Context, project, name string) (engine.Result, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT result FROM baselines WHERE project = ? AND name = ?", project, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Result{}, fmt.Errorf("%w: %s/%s", ErrBaselineNotFound, project, name)
	}
	if err != nil {
		return engine.Result{}, fmt.Errorf("store: load baseline %q: %w", name, err)
	}

	var res engine.Result
	if err := json.Unmarshal([]byte(blob), &res); err != nil {
		return engine.Result{}, fmt.Errorf("store: decode baseline %q: %w", name, err)
	}
	return res, nil
}

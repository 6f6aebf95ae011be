package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"caltodo/internal/dates"
)

// Task is one entry in a day's list. Its identity is its position.
type Task struct {
	Description string
	Completed   bool
}

// Store maps calendar dates to ordered task lists. The database lives in
// memory and is gone once the store is closed.
type Store struct {
	db *sql.DB
}

func Open() (*Store, error) {
	db, err := sql.Open("sqlite", memoryDSN("caltodo"))
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	// Every connection to a private memory database sees its own copy.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	day INTEGER NOT NULL,
	description TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_by_date ON tasks (year, month, day, id);`
	_, err := s.db.Exec(ddl)
	return err
}

// AddTask appends an open task to date's list. Blank descriptions are
// dropped.
func (s *Store) AddTask(ctx context.Context, date dates.Date, description string) error {
	if strings.TrimSpace(description) == "" {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (year, month, day, description, completed, created_at) VALUES (?, ?, ?, ?, 0, ?);`,
		date.Year, int(date.Month), date.Day, description, now)
	if err != nil {
		return fmt.Errorf("storage: add task: %w", err)
	}
	return nil
}

// MarkDone completes the task at index. Out of range indexes are ignored.
func (s *Store) MarkDone(ctx context.Context, date dates.Date, index int) error {
	if index < 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1 WHERE id = (`+nthTaskQuery+`);`,
		date.Year, int(date.Month), date.Day, index)
	if err != nil {
		return fmt.Errorf("storage: mark done: %w", err)
	}
	return nil
}

// DeleteTask removes the task at index. A date without tasks has no rows,
// so removing the last one drops the date as well.
func (s *Store) DeleteTask(ctx context.Context, date dates.Date, index int) error {
	if index < 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = (`+nthTaskQuery+`);`,
		date.Year, int(date.Month), date.Day, index)
	if err != nil {
		return fmt.Errorf("storage: delete task: %w", err)
	}
	return nil
}

const nthTaskQuery = `SELECT id FROM tasks WHERE year = ? AND month = ? AND day = ? ORDER BY id LIMIT 1 OFFSET ?`

// TasksFor returns date's tasks in insertion order.
func (s *Store) TasksFor(ctx context.Context, date dates.Date) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, completed FROM tasks WHERE year = ? AND month = ? AND day = ? ORDER BY id;`,
		date.Year, int(date.Month), date.Day)
	if err != nil {
		return nil, fmt.Errorf("storage: tasks for %s: %w", date, err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var doneInt int
		if err := rows.Scan(&t.Description, &doneInt); err != nil {
			return nil, fmt.Errorf("storage: tasks for %s: %w", date, err)
		}
		t.Completed = doneInt == 1
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: tasks for %s: %w", date, err)
	}
	return tasks, nil
}

// MonthTasks returns every task of the month keyed by day of month.
func (s *Store) MonthTasks(ctx context.Context, year int, month time.Month) (map[int][]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, description, completed FROM tasks WHERE year = ? AND month = ? ORDER BY day, id;`,
		year, int(month))
	if err != nil {
		return nil, fmt.Errorf("storage: month tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]Task)
	for rows.Next() {
		var day, doneInt int
		var t Task
		if err := rows.Scan(&day, &t.Description, &doneInt); err != nil {
			return nil, fmt.Errorf("storage: month tasks: %w", err)
		}
		t.Completed = doneInt == 1
		out[day] = append(out[day], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: month tasks: %w", err)
	}
	return out, nil
}

// Dates lists every date holding at least one task, oldest first.
func (s *Store) Dates(ctx context.Context) ([]dates.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT year, month, day FROM tasks ORDER BY year, month, day;`)
	if err != nil {
		return nil, fmt.Errorf("storage: dates: %w", err)
	}
	defer rows.Close()

	var out []dates.Date
	for rows.Next() {
		var year, month, day int
		if err := rows.Scan(&year, &month, &day); err != nil {
			return nil, fmt.Errorf("storage: dates: %w", err)
		}
		out = append(out, dates.New(year, time.Month(month), day))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: dates: %w", err)
	}
	return out, nil
}

func memoryDSN(name string) string {
	u := url.URL{
		Scheme: "file",
		Opaque: name,
	}
	q := u.Query()
	q.Set("mode", "memory")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

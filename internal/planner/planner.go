// Package planner binds the month grid to the task list of the selected
// day. It owns the view state and routes every mutation to the task store.
package planner

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"caltodo/internal/calendar"
	"caltodo/internal/dates"
	"caltodo/internal/storage"
)

// Store is the task storage the planner drives.
type Store interface {
	AddTask(ctx context.Context, date dates.Date, description string) error
	MarkDone(ctx context.Context, date dates.Date, index int) error
	DeleteTask(ctx context.Context, date dates.Date, index int) error
	TasksFor(ctx context.Context, date dates.Date) ([]storage.Task, error)
	MonthTasks(ctx context.Context, year int, month time.Month) (map[int][]storage.Task, error)
}

type Option func(*Planner)

// WithClock replaces time.Now for overdue checks.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

func WithGranularity(g calendar.Granularity) Option {
	return func(p *Planner) {
		if g != "" {
			p.overdue = g
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(p *Planner) {
		if log != nil {
			p.log = log
		}
	}
}

type Planner struct {
	store   Store
	now     func() time.Time
	overdue calendar.Granularity
	log     *logrus.Entry

	year  int
	month time.Month
	// selected is the chosen day of month, 0 when nothing is selected.
	selected int
}

// New starts on (year, month) with no day selected.
func New(store Store, year int, month time.Month, opts ...Option) *Planner {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	p := &Planner{
		store:   store,
		now:     time.Now,
		overdue: calendar.GranularityDate,
		log:     logrus.NewEntry(discard),
		year:    year,
		month:   month,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) Year() int                         { return p.year }
func (p *Planner) Month() time.Month                 { return p.month }
func (p *Planner) Now() time.Time                    { return p.now() }
func (p *Planner) Granularity() calendar.Granularity { return p.overdue }

// SelectedDay returns the selected day of month, if any.
func (p *Planner) SelectedDay() (int, bool) {
	return p.selected, p.selected > 0
}

// SelectedDate returns the full date of the selection, if any.
func (p *Planner) SelectedDate() (dates.Date, bool) {
	if p.selected == 0 {
		return dates.Date{}, false
	}
	return dates.New(p.year, p.month, p.selected), true
}

func (p *Planner) MonthGrid(year int, month time.Month) [6][7]int {
	return dates.MonthGrid(year, month)
}

// Calendar builds the current month with fresh markers.
func (p *Planner) Calendar(ctx context.Context) (calendar.Month, error) {
	byDay, err := p.store.MonthTasks(ctx, p.year, p.month)
	if err != nil {
		p.log.WithError(err).Error("load month")
		return calendar.Month{}, err
	}
	return calendar.Build(p.year, p.month, byDay, p.now(), p.overdue), nil
}

// Marker computes the marker of a single day in any month.
func (p *Planner) Marker(ctx context.Context, year int, month time.Month, day int) (calendar.Marker, error) {
	d := dates.New(year, month, day)
	if !d.Valid() {
		return calendar.MarkerNone, nil
	}
	tasks, err := p.store.TasksFor(ctx, d)
	if err != nil {
		p.log.WithError(err).WithField("date", d.String()).Error("load tasks")
		return calendar.MarkerNone, err
	}
	return calendar.MarkerFor(d, tasks, p.now(), p.overdue), nil
}

// SelectDay selects an in-month day. Days outside the month leave the
// state unchanged and report false.
func (p *Planner) SelectDay(day int) bool {
	if !dates.New(p.year, p.month, day).Valid() {
		return false
	}
	p.selected = day
	p.log.WithField("date", dates.New(p.year, p.month, day).String()).Debug("select day")
	return true
}

func (p *Planner) ClearSelection() {
	p.selected = 0
}

// ListTasks returns the tasks of the selected day, empty without a
// selection.
func (p *Planner) ListTasks(ctx context.Context) ([]storage.Task, error) {
	d, ok := p.SelectedDate()
	if !ok {
		return []storage.Task{}, nil
	}
	tasks, err := p.store.TasksFor(ctx, d)
	if err != nil {
		p.log.WithError(err).WithField("date", d.String()).Error("load tasks")
		return nil, err
	}
	return tasks, nil
}

// AddTask appends description to the selected day. It reports false when
// no day is selected or the text is blank.
func (p *Planner) AddTask(ctx context.Context, description string) (bool, error) {
	d, ok := p.SelectedDate()
	if !ok || strings.TrimSpace(description) == "" {
		return false, nil
	}
	log := p.log.WithField("date", d.String())
	if err := p.store.AddTask(ctx, d, description); err != nil {
		log.WithError(err).Error("add task")
		return false, err
	}
	log.Debug("task added")
	return true, nil
}

// MarkSelectedTaskDone completes the task at listIndex of the selected
// day. Stale or missing indexes are ignored.
func (p *Planner) MarkSelectedTaskDone(ctx context.Context, listIndex int) (bool, error) {
	d, ok, err := p.indexed(ctx, listIndex)
	if err != nil || !ok {
		return false, err
	}
	log := p.log.WithFields(logrus.Fields{"date": d.String(), "index": listIndex})
	if err := p.store.MarkDone(ctx, d, listIndex); err != nil {
		log.WithError(err).Error("mark done")
		return false, err
	}
	log.Debug("task done")
	return true, nil
}

// DeleteTask removes the task at listIndex of the selected day. Stale or
// missing indexes are ignored.
func (p *Planner) DeleteTask(ctx context.Context, listIndex int) (bool, error) {
	d, ok, err := p.indexed(ctx, listIndex)
	if err != nil || !ok {
		return false, err
	}
	log := p.log.WithFields(logrus.Fields{"date": d.String(), "index": listIndex})
	if err := p.store.DeleteTask(ctx, d, listIndex); err != nil {
		log.WithError(err).Error("delete task")
		return false, err
	}
	log.Debug("task deleted")
	return true, nil
}

// indexed resolves the selected date when listIndex points at an existing
// task of it.
func (p *Planner) indexed(ctx context.Context, listIndex int) (dates.Date, bool, error) {
	d, ok := p.SelectedDate()
	if !ok || listIndex < 0 {
		return dates.Date{}, false, nil
	}
	tasks, err := p.store.TasksFor(ctx, d)
	if err != nil {
		p.log.WithError(err).WithField("date", d.String()).Error("load tasks")
		return dates.Date{}, false, err
	}
	return d, listIndex < len(tasks), nil
}

// PrevMonth moves one month back and drops the selection.
func (p *Planner) PrevMonth() {
	p.year, p.month = dates.Prev(p.year, p.month)
	p.selected = 0
	p.log.WithField("month", dates.Title(p.year, p.month)).Debug("navigate")
}

// NextMonth moves one month forward and drops the selection.
func (p *Planner) NextMonth() {
	p.year, p.month = dates.Next(p.year, p.month)
	p.selected = 0
	p.log.WithField("month", dates.Title(p.year, p.month)).Debug("navigate")
}

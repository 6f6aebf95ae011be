package planner

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"caltodo/internal/calendar"
	"caltodo/internal/dates"
	"caltodo/internal/storage"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func setupPlanner(t *testing.T, year int, month time.Month, now time.Time, opts ...Option) (*Planner, *storage.Store) {
	t.Helper()
	store, err := storage.Open()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	opts = append([]Option{WithClock(fixedClock(now))}, opts...)
	return New(store, year, month, opts...), store
}

func mustMarker(t *testing.T, p *Planner, year int, month time.Month, day int) calendar.Marker {
	t.Helper()
	m, err := p.Marker(context.Background(), year, month, day)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	return m
}

func mustList(t *testing.T, p *Planner) []storage.Task {
	t.Helper()
	tasks, err := p.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	return tasks
}

func TestNewStartsWithoutSelection(t *testing.T) {
	p, _ := setupPlanner(t, 2024, time.January, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	if _, ok := p.SelectedDay(); ok {
		t.Fatal("expected no selection")
	}
	if got := mustList(t, p); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
	if p.Year() != 2024 || p.Month() != time.January {
		t.Fatalf("unexpected month %d-%02d", p.Year(), p.Month())
	}
}

func TestExampleTrace(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPlanner(t, 2024, time.January, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	if !p.SelectDay(15) {
		t.Fatal("expected day 15 selectable")
	}
	if ok, err := p.AddTask(ctx, "Pay rent"); err != nil || !ok {
		t.Fatalf("add task: ok=%v err=%v", ok, err)
	}
	if got := mustMarker(t, p, 2024, time.January, 15); got != calendar.MarkerHasTasks {
		t.Fatalf("expected has-tasks after add, got %s", got)
	}

	if ok, err := p.MarkSelectedTaskDone(ctx, 0); err != nil || !ok {
		t.Fatalf("mark done: ok=%v err=%v", ok, err)
	}
	if got := mustMarker(t, p, 2024, time.January, 15); got != calendar.MarkerHasTasks {
		t.Fatalf("expected has-tasks after done, got %s", got)
	}
	if got := mustList(t, p); !reflect.DeepEqual(got, []storage.Task{{Description: "Pay rent", Completed: true}}) {
		t.Fatalf("unexpected list: %+v", got)
	}

	if ok, err := p.DeleteTask(ctx, 0); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if got := mustMarker(t, p, 2024, time.January, 15); got != calendar.MarkerNone {
		t.Fatalf("expected none after delete, got %s", got)
	}
	if got := mustList(t, p); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestOverdueScenario(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPlanner(t, 2024, time.March, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))

	p.SelectDay(1)
	if _, err := p.AddTask(ctx, "late"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := mustMarker(t, p, 2024, time.March, 1); got != calendar.MarkerOverdue {
		t.Fatalf("expected overdue, got %s", got)
	}
	if _, err := p.MarkSelectedTaskDone(ctx, 0); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if got := mustMarker(t, p, 2024, time.March, 1); got != calendar.MarkerHasTasks {
		t.Fatalf("expected has-tasks once done, got %s", got)
	}

	p.SelectDay(30)
	if _, err := p.AddTask(ctx, "later"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := mustMarker(t, p, 2024, time.March, 30); got != calendar.MarkerHasTasks {
		t.Fatalf("expected has-tasks in the future, got %s", got)
	}

	month, err := p.Calendar(ctx)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	r, c, ok := month.Find(30)
	if !ok || month.Cells[r][c].Marker != calendar.MarkerHasTasks {
		t.Fatalf("expected calendar to carry has-tasks for day 30: %+v", month.Cells[r][c])
	}
}

func TestTimestampGranularityMarksToday(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	p, _ := setupPlanner(t, 2024, time.March, now, WithGranularity(calendar.GranularityTimestamp))
	if p.Granularity() != calendar.GranularityTimestamp {
		t.Fatalf("unexpected granularity %q", p.Granularity())
	}
	p.SelectDay(15)
	if _, err := p.AddTask(ctx, "today"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := mustMarker(t, p, 2024, time.March, 15); got != calendar.MarkerOverdue {
		t.Fatalf("expected overdue under timestamp granularity, got %s", got)
	}

	q := New(p.store, 2024, time.March, WithClock(fixedClock(now)))
	if got := mustMarker(t, q, 2024, time.March, 15); got != calendar.MarkerHasTasks {
		t.Fatalf("expected has-tasks under date granularity, got %s", got)
	}
}

func TestSelectDayRejectsOutOfMonth(t *testing.T) {
	p, _ := setupPlanner(t, 2023, time.February, time.Now())
	for _, day := range []int{0, -1, 29, 31} {
		if p.SelectDay(day) {
			t.Fatalf("expected day %d rejected", day)
		}
	}
	if _, ok := p.SelectedDay(); ok {
		t.Fatal("expected selection unchanged")
	}
	if !p.SelectDay(28) {
		t.Fatal("expected day 28 selectable")
	}
	if p.SelectDay(30) {
		t.Fatal("expected day 30 rejected")
	}
	if day, ok := p.SelectedDay(); !ok || day != 28 {
		t.Fatalf("expected selection to stay on 28, got %d %v", day, ok)
	}
	p.ClearSelection()
	if _, ok := p.SelectedDay(); ok {
		t.Fatal("expected selection cleared")
	}
}

func TestMutationsWithoutSelectionAreIgnored(t *testing.T) {
	ctx := context.Background()
	p, store := setupPlanner(t, 2024, time.January, time.Now())

	if ok, err := p.AddTask(ctx, "orphan"); err != nil || ok {
		t.Fatalf("expected add ignored, got ok=%v err=%v", ok, err)
	}
	if ok, err := p.MarkSelectedTaskDone(ctx, 0); err != nil || ok {
		t.Fatalf("expected mark done ignored, got ok=%v err=%v", ok, err)
	}
	if ok, err := p.DeleteTask(ctx, 0); err != nil || ok {
		t.Fatalf("expected delete ignored, got ok=%v err=%v", ok, err)
	}
	all, err := store.Dates(ctx)
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %v", all)
	}
}

func TestInvalidInputIsIgnored(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPlanner(t, 2024, time.January, time.Now())
	p.SelectDay(3)

	if ok, err := p.AddTask(ctx, "  "); err != nil || ok {
		t.Fatalf("expected blank add ignored, got ok=%v err=%v", ok, err)
	}
	if _, err := p.AddTask(ctx, "real"); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, idx := range []int{-1, 1, 7} {
		if ok, err := p.MarkSelectedTaskDone(ctx, idx); err != nil || ok {
			t.Fatalf("expected mark done %d ignored, got ok=%v err=%v", idx, ok, err)
		}
		if ok, err := p.DeleteTask(ctx, idx); err != nil || ok {
			t.Fatalf("expected delete %d ignored, got ok=%v err=%v", idx, ok, err)
		}
	}
	if got := mustList(t, p); !reflect.DeepEqual(got, []storage.Task{{Description: "real"}}) {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestNavigationRollsYearAndClearsSelection(t *testing.T) {
	p, _ := setupPlanner(t, 2024, time.December, time.Now())
	p.SelectDay(24)
	p.NextMonth()
	if p.Year() != 2025 || p.Month() != time.January {
		t.Fatalf("expected 2025-01, got %d-%02d", p.Year(), p.Month())
	}
	if _, ok := p.SelectedDay(); ok {
		t.Fatal("expected selection cleared after next month")
	}

	p.SelectDay(2)
	p.PrevMonth()
	if p.Year() != 2024 || p.Month() != time.December {
		t.Fatalf("expected 2024-12, got %d-%02d", p.Year(), p.Month())
	}
	if _, ok := p.SelectedDay(); ok {
		t.Fatal("expected selection cleared after prev month")
	}

	p2, _ := setupPlanner(t, 2024, time.January, time.Now())
	p2.PrevMonth()
	if p2.Year() != 2023 || p2.Month() != time.December {
		t.Fatalf("expected 2023-12, got %d-%02d", p2.Year(), p2.Month())
	}
}

func TestTasksFollowTheirMonth(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPlanner(t, 2024, time.January, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p.SelectDay(15)
	if _, err := p.AddTask(ctx, "january"); err != nil {
		t.Fatalf("add: %v", err)
	}
	p.NextMonth()
	p.SelectDay(15)
	if got := mustList(t, p); len(got) != 0 {
		t.Fatalf("expected February 15 empty, got %+v", got)
	}
	p.PrevMonth()
	p.SelectDay(15)
	if got := mustList(t, p); len(got) != 1 {
		t.Fatalf("expected January 15 task back, got %+v", got)
	}
}

func TestMonthGridDelegates(t *testing.T) {
	p, _ := setupPlanner(t, 2024, time.January, time.Now())
	if p.MonthGrid(2024, time.February) != dates.MonthGrid(2024, time.February) {
		t.Fatal("expected planner grid to match dates.MonthGrid")
	}
}

func TestStoreFailureIsLoggedAndReturned(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	store, err := storage.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p := New(store, 2024, time.January, WithLogger(logrus.NewEntry(logger)))
	p.SelectDay(5)
	_ = store.Close()

	ok, err := p.AddTask(ctx, "lost")
	if err == nil || ok {
		t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Message != "add task" {
		t.Fatalf("expected error log for add task, got %+v", entry)
	}
	if entry.Data["date"] != "2024-01-05" {
		t.Fatalf("expected date field, got %+v", entry.Data)
	}

	if _, err := p.Calendar(ctx); err == nil {
		t.Fatal("expected calendar error from closed store")
	}
	if ok, err := p.DeleteTask(ctx, 0); err == nil || ok {
		t.Fatalf("expected delete failure, got ok=%v err=%v", ok, err)
	}
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"caltodo/internal/calendar"
	"caltodo/internal/config"
	"caltodo/internal/dates"
	"caltodo/internal/planner"
	"caltodo/internal/storage"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeConfirmDelete
)

type focus int

const (
	focusGrid focus = iota
	focusList
)

type Model struct {
	ctx     context.Context
	planner *planner.Planner
	cfg     config.Config

	month calendar.Month
	tasks []storage.Task

	// cursorDay is the grid cursor, always a day of the shown month.
	cursorDay  int
	cursor     int
	focus      focus
	mode       mode
	input      textinput.Model
	status     string
	pendingDel int
}

// Run starts the program on the planner's current month.
func Run(ctx context.Context, p *planner.Planner, cfg config.Config, configPath string, firstLaunch bool) error {
	m := New(ctx, p, cfg)
	if firstLaunch {
		m.status = fmt.Sprintf("Wrote default config to %s", configPath)
	}
	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func New(ctx context.Context, p *planner.Planner, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Task description"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctx:       ctx,
		planner:   p,
		cfg:       cfg,
		cursorDay: 1,
		input:     ti,
		mode:      modeBrowse,
		status:    fmt.Sprintf("Press '%s' to pick a day, '%s' to add a task.", cfg.Keys.Select, cfg.Keys.Add),
	}
	now := dates.FromTime(p.Now())
	if now.Year == p.Year() && now.Month == p.Month() {
		m.cursorDay = now.Day
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg.String(), msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		}
		return m.updateBrowseMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeBrowse
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		text := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeBrowse
		added, err := m.planner.AddTask(m.ctx, text)
		switch {
		case err != nil:
			m.status = fmt.Sprintf("save failed: %v", err)
		case !added:
			m.status = "Nothing added"
		default:
			if m.refresh() {
				m.focus = focusList
				m.cursor = clampCursor(len(m.tasks)-1, len(m.tasks))
				m.status = "Added task"
			}
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateBrowseMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.PrevMonth:
		m.planner.PrevMonth()
		m.afterNavigate()
	case k.NextMonth:
		m.planner.NextMonth()
		m.afterNavigate()
	case k.Focus:
		if m.focus == focusGrid {
			if _, ok := m.planner.SelectedDay(); !ok {
				m.status = "Select a day first"
				return m, nil
			}
			m.focus = focusList
		} else {
			m.focus = focusGrid
		}
	case k.Up, "up":
		m.move(-7, -1)
	case k.Down, "down":
		m.move(7, 1)
	case k.Left, "left":
		m.move(-1, 0)
	case k.Right, "right":
		m.move(1, 0)
	case k.Select:
		if m.focus != focusGrid {
			return m, nil
		}
		if !m.planner.SelectDay(m.cursorDay) {
			return m, nil
		}
		m.cursor = 0
		if m.refresh() {
			d, _ := m.planner.SelectedDate()
			m.status = fmt.Sprintf("Selected %s", d)
		}
	case k.Clear:
		m.planner.ClearSelection()
		m.focus = focusGrid
		if m.refresh() {
			m.status = "Selection cleared"
		}
	case k.Add:
		if _, ok := m.planner.SelectedDay(); !ok {
			m.status = "Select a day first"
			return m, nil
		}
		m.mode = modeAdd
		m.status = "New task: type a description and press Enter"
		return m, m.input.Focus()
	case k.Done:
		done, err := m.planner.MarkSelectedTaskDone(m.ctx, m.listIndex())
		if err != nil {
			m.status = fmt.Sprintf("update failed: %v", err)
			return m, nil
		}
		if done && m.refresh() {
			m.status = "Marked done"
		}
	case k.Delete:
		idx := m.listIndex()
		if idx < 0 {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = idx
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", m.tasks[idx].Description)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.mode = modeBrowse
		return m, nil
	case "y", "Y":
		m.mode = modeBrowse
		deleted, err := m.planner.DeleteTask(m.ctx, m.pendingDel)
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		if !deleted {
			m.status = "Nothing to delete"
			return m, nil
		}
		if m.refresh() {
			m.status = "Deleted task"
		}
		return m, nil
	default:
		return m, nil
	}
}

// move shifts the grid cursor by gridDelta days or the list cursor by
// listDelta, depending on focus.
func (m *Model) move(gridDelta, listDelta int) {
	if m.focus == focusList {
		m.cursor = clampCursor(m.cursor+listDelta, len(m.tasks))
		return
	}
	m.cursorDay = clampDay(m.cursorDay+gridDelta, dates.DaysIn(m.planner.Year(), m.planner.Month()))
}

// listIndex is the list-item selection, -1 when there is none.
func (m Model) listIndex() int {
	if m.focus != focusList || len(m.tasks) == 0 {
		return -1
	}
	return clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) afterNavigate() {
	m.focus = focusGrid
	m.cursor = 0
	m.cursorDay = clampDay(m.cursorDay, dates.DaysIn(m.planner.Year(), m.planner.Month()))
	if m.refresh() {
		m.status = m.month.Title
	}
}

// refresh reloads both the grid markers and the selected day's list. On
// failure the status line carries the error and false is returned.
func (m *Model) refresh() bool {
	month, err := m.planner.Calendar(m.ctx)
	if err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return false
	}
	m.month = month
	tasks, err := m.planner.ListTasks(m.ctx)
	if err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return false
	}
	m.tasks = tasks
	m.cursor = clampCursor(m.cursor, len(m.tasks))
	if len(m.tasks) == 0 {
		m.focus = focusGrid
	}
	return true
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func clampDay(day, days int) int {
	if day < 1 {
		return 1
	}
	if day > days {
		return days
	}
	return day
}

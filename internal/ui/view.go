package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"caltodo/internal/calendar"
	"caltodo/internal/config"
	"caltodo/internal/dates"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	weekdayStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	overdueStyle  = cellStyle.Background(lipgloss.Color("9")).Foreground(lipgloss.Color("0"))
	hasTasksStyle = cellStyle.Background(lipgloss.Color("11")).Foreground(lipgloss.Color("0"))
	selectedStyle = cellStyle.Background(lipgloss.Color("117")).Foreground(lipgloss.Color("0"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderCalendar())
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderTaskList()))
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString("New task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderCalendar() string {
	var b strings.Builder
	header := fmt.Sprintf("%s  %s  %s", m.cfg.Keys.PrevMonth, m.month.Title, m.cfg.Keys.NextMonth)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	labels := make([]string, 0, len(dates.WeekdayLabels))
	for _, l := range dates.WeekdayLabels {
		labels = append(labels, cellStyle.Render(l))
	}
	b.WriteString(weekdayStyle.Render(strings.Join(labels, "")))
	b.WriteString("\n")

	selected, _ := m.planner.SelectedDay()
	for _, week := range m.month.Cells {
		cells := make([]string, 0, len(week))
		for _, cell := range week {
			cells = append(cells, m.renderCell(cell, selected))
		}
		b.WriteString(strings.Join(cells, ""))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCell(cell calendar.Cell, selected int) string {
	if !cell.Enabled {
		return cellStyle.Render("  ")
	}
	style := cellStyle
	switch cell.Marker {
	case calendar.MarkerOverdue:
		style = overdueStyle
	case calendar.MarkerHasTasks:
		style = hasTasksStyle
	}
	if cell.Day == selected {
		style = selectedStyle
	}
	if cell.Today {
		style = style.Underline(true)
	}
	if cell.Day == m.cursorDay && m.focus == focusGrid && m.mode == modeBrowse {
		style = style.Reverse(true).Bold(true)
	}
	return style.Render(fmt.Sprintf("%2d", cell.Day))
}

func (m Model) renderTaskList() string {
	d, ok := m.planner.SelectedDate()
	if !ok {
		return "No day selected"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks for " + d.String()))
	b.WriteString("\n")
	if len(m.tasks) == 0 {
		b.WriteString(fmt.Sprintf("Nothing planned. Press '%s' to add a task.", m.cfg.Keys.Add))
		return b.String()
	}
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.focus == focusList {
			cursor = ">"
		}
		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}
		line := fmt.Sprintf("%s %s %s", cursor, checkbox, t.Description)
		if t.Completed {
			line = doneStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.tasks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	if strings.Contains(m.status, "failed") {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s/%s/%s move • %s pick day • %s switch list • %s add • %s done • %s delete • %s clear • %s/%s month • %s quit",
		k.Left, k.Down, k.Up, k.Right, k.Select, k.Focus, k.Add, k.Done, k.Delete, k.Clear, k.PrevMonth, k.NextMonth, k.Quit)
}

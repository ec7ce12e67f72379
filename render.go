package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/cursor"
	"github.com/Readm/pipeview/index"
)

var (
	stallStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	instructionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
	titleStyle       = lipgloss.NewStyle().Bold(true)
	cardStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	mutedStyle       = lipgloss.NewStyle().Faint(true)
)

// eventLabel is the short cell text for one stage event.
func eventLabel(ev core.StageEvent) string {
	if ev.IsStall() {
		return stallStyle.Render("stall")
	}
	return instructionStyle.Render(fmt.Sprintf("I%d", ev.Instruction))
}

func cellText(events []core.StageEvent) string {
	if len(events) == 0 {
		return ""
	}
	return strings.Join(lo.Map(events, func(ev core.StageEvent, _ int) string {
		return eventLabel(ev)
	}), " ")
}

// renderGrid draws the cycle-by-stage matrix for rows.
func renderGrid(rows []index.GridRow) string {
	if len(rows) == 0 {
		return mutedStyle.Render("no cycles revealed")
	}
	headers := []string{"Cycle"}
	for _, col := range rows[0].Columns {
		headers = append(headers, col.Name)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range rows {
		cells := []string{fmt.Sprintf("%d", row.Cycle)}
		for _, col := range row.Columns {
			cells = append(cells, cellText(col.Events))
		}
		t.Row(cells...)
	}
	return t.String()
}

// renderCycleCard shows the messages and snapshot of one cycle.
func renderCycleCard(row index.GridRow, snap index.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Cycle %d", row.Cycle)))
	for _, col := range row.Columns {
		for _, ev := range col.Events {
			b.WriteString("\n")
			msg := ev.Message
			if msg == "" {
				msg = mutedStyle.Render("-")
			}
			fmt.Fprintf(&b, "%-10s %s %s", col.Name, eventLabel(ev), msg)
		}
	}
	if len(snap.Registers) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Registers"))
		for _, reg := range snap.Registers {
			fmt.Fprintf(&b, "\n%-6s %s", reg.Name, reg.Value)
		}
	}
	if len(snap.Memory) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Memory"))
		for _, m := range snap.Memory {
			fmt.Fprintf(&b, "\n%-10s %s", m.Address, m.Value)
		}
	}
	return cardStyle.Render(b.String())
}

// renderStatus is the one-line cursor indicator.
func renderStatus(stream string, status cursor.Status) string {
	if status.State == cursor.NotStarted {
		return fmt.Sprintf("[%s] not started, %d cycles", stream, status.Total)
	}
	return fmt.Sprintf("[%s] cycle %d (%d/%d)", stream, status.Current, status.Position+1, status.Total)
}

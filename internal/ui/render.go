package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/statekit/internal/items"
)

// renderMain renders header, table, optional activity pane and footer.
func (m Model) renderMain() string {
	var sections []string
	sections = append(sections, m.renderHeader(), m.renderCommandBar())

	tableHeight := m.height - 3 // header, command bar, footer
	if m.showActivity {
		tableHeight -= ActivityHeight + 2
	}
	if m.showDetail {
		tableHeight -= DetailHeight + 2
	}
	if m.editing != editNone {
		tableHeight--
	}
	sections = append(sections, m.renderTable(max(tableHeight, 1)))

	if m.editing != editNone {
		sections = append(sections, m.input.View())
	}
	if m.showDetail {
		sections = append(sections, m.renderDetail())
	}
	if m.showActivity {
		sections = append(sections, m.renderActivity())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	st := m.data.state

	phase := styles.PhaseStyle(st.Phase()).Render(st.Phase().String())
	if st.IsLoading() {
		phase = m.spinner.View() + " " + phase
	}

	parts := []string{
		styles.Logo.Render("statekit"),
		phase,
		styles.MutedText.Render(fmt.Sprintf("%d items", len(m.data.models))),
		styles.MutedText.Render(fmt.Sprintf("page %d", m.data.page)),
	}
	if m.data.hasMore {
		parts = append(parts, styles.InfoText.Render("more available"))
	}
	if m.data.hasMutations {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d unsaved", len(m.data.dirty))))
	}
	if err := st.Err(); err != nil {
		parts = append(parts, styles.DangerText.Render(err.Error()))
	}
	return styles.Header.Width(max(m.width, 0)).Render(strings.Join(parts, "  "))
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	var b strings.Builder
	for i, binding := range m.keys.ShortHelp() {
		if i > 0 {
			b.WriteString("  ")
		}
		enabled := true
		switch binding.Help().Key {
		case m.keys.Undo.Help().Key:
			enabled = m.data.canUndo
		case m.keys.Commit.Help().Key:
			enabled = m.data.hasMutations
		case m.keys.NextPage.Help().Key:
			enabled = m.data.hasMore
		}
		keyStyle, descStyle := styles.AccentText, styles.MutedText
		if !enabled {
			keyStyle, descStyle = styles.FaintText, styles.FaintText
		}
		b.WriteString(keyStyle.Render("<" + binding.Help().Key + ">"))
		b.WriteString(" ")
		b.WriteString(descStyle.Render(binding.Help().Desc))
	}
	return b.String()
}

func (m Model) renderTable(height int) string {
	styles := m.theme.Styles()
	rows := m.data.models
	if len(rows) == 0 {
		msg := "No items"
		switch {
		case m.data.state.IsLoading():
			msg = m.spinner.View() + " Loading items..."
		case m.data.state.IsFailure():
			msg = "Load failed. Press R to retry."
		case m.data.state.IsIdle():
			msg = "Waiting for first load..."
		}
		return lipgloss.NewStyle().Height(height).Render(styles.MutedText.Render(msg))
	}

	compact := m.width > 0 && m.width < LayoutCompactWidth
	start, end := visibleRange(len(rows), m.selectedRow, height-1)

	lines := []string{styles.FaintText.Render(formatRow("", "ID", "NAME", "STATUS", "NOTES", compact))}
	for i := start; i < end; i++ {
		it := rows[i]
		marker := " "
		if m.data.dirty[it.ID] {
			marker = "*"
		}
		line := formatRow(marker, fmt.Sprintf("%d", it.ID), it.Name, "", it.Notes, compact)
		badge := styles.StatusStyle(it.Status).Render(statusLabel(it.Status))
		if i == m.selectedRow {
			line = styles.Selected.Render(line)
		} else if marker == "*" {
			line = styles.WarningText.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		lines = append(lines, line+" "+badge)
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func formatRow(marker, id, name, status, notes string, compact bool) string {
	row := fmt.Sprintf("%1s %-5s %-28s", marker, id, truncate(name, 28))
	if !compact {
		row += fmt.Sprintf(" %-32s", truncate(notes, 32))
	}
	if status != "" {
		row += " " + status
	}
	return row
}

// visibleRange returns the window of rows to draw so that selected stays on
// screen.
func visibleRange(total, selected, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	return start, min(start+height, total)
}

func statusLabel(status string) string {
	switch status {
	case items.StatusInProgress:
		return "in progress"
	case "":
		return "-"
	default:
		return status
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// renderDetail shows the last fetched server copy of the inspected item next
// to the local, possibly edited, one.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	st := m.data.detail

	phase := styles.PhaseStyle(st.Phase()).Render(st.Phase().String())
	if st.IsLoading() {
		phase = m.spinner.View() + " " + phase
	}
	lines := []string{styles.AccentText.Render(fmt.Sprintf("Item #%d", m.detailID)) + "  " + phase}

	remote, ok := st.Data()
	switch {
	case ok && remote.ID == m.detailID:
		lines = append(lines,
			styles.Text.Render("Server: "+remote.Name)+" "+styles.StatusStyle(remote.Status).Render(statusLabel(remote.Status)),
			styles.MutedText.Render("Notes: "+remote.Notes),
		)
		if local, found := m.localItem(m.detailID); found && local != remote {
			lines = append(lines, styles.WarningText.Render("Local copy differs from server"))
		}
	case st.IsFailure():
		lines = append(lines, styles.DangerText.Render(st.Err().Error()))
	default:
		lines = append(lines, styles.MutedText.Render("Fetching..."))
	}
	return styles.Pane.Width(max(m.width-2, 0)).Height(DetailHeight).Render(strings.Join(lines, "\n"))
}

func (m Model) localItem(id int64) (items.Item, bool) {
	for _, it := range m.data.models {
		if it.ID == id {
			return it, true
		}
	}
	return items.Item{}, false
}

func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	return styles.Pane.Width(max(m.width-2, 0)).Render(m.activity.View())
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	if m.data.canUndo {
		parts = append(parts, "undo")
	}
	if m.data.canRedo {
		parts = append(parts, "redo")
	}
	left := m.statusLine
	if len(parts) > 0 {
		left = strings.TrimSpace(left + "  [" + strings.Join(parts, "/") + " available]")
	}
	return styles.Footer.Width(max(m.width, 0)).Render(left)
}

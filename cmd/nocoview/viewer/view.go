package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"nocoview/cmd/nocoview/ui"
	"nocoview/internal/table"
)

// layout recomputes component sizes after a terminal resize.
func (m *Model) layout() {
	if m.width <= 0 {
		return
	}
	m.input.Width = m.width - 4
	m.picker.SetSize(m.width-4, max(m.height-8, 6))
	bodyHeight := m.height - 6
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	if m.body.Width == 0 {
		m.body = newViewport(m.width, bodyHeight)
	} else {
		m.body.Width = m.width
		m.body.Height = bodyHeight
	}
}

// refreshBody re-renders the grid and reasoning pane into the viewport.
func (m *Model) refreshBody() {
	if m.body.Width == 0 {
		return
	}

	var b strings.Builder

	if m.reasoning != "" {
		b.WriteString(m.renderReasoning())
		b.WriteString("\n")
	}
	if m.directive != nil {
		code := m.directive.FilterCode
		b.WriteString(m.styles.Subtitle.Render("filter: " + code))
		b.WriteString("\n\n")
	}

	grid := ui.NewGrid(m.view)
	if m.width > 0 {
		grid.MaxColWidth = max(m.width/maxVisibleColumns(len(grid.Headers)), 8)
	}
	b.WriteString(grid.View(m.styles))

	m.body.SetContent(b.String())
}

// renderReasoning formats the model's explanation as markdown. Rendering
// failures fall back to the raw text.
func (m *Model) renderReasoning() string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return m.styles.Muted.Render(m.reasoning)
	}
	out, err := r.Render("**How this filter was built**\n\n" + m.reasoning)
	if err != nil {
		return m.styles.Muted.Render(m.reasoning)
	}
	return out
}

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready && m.loading {
		return fmt.Sprintf("\n  %s fetching records...\n", m.spin.View())
	}

	var b strings.Builder

	b.WriteString(m.styles.Header.Render("nocoview"))
	b.WriteString("\n")

	switch m.mode {
	case modeColumnPick, modeValuePick, modeRenamePick:
		b.WriteString(m.picker.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("enter select · esc cancel"))
		return b.String()
	case modeSearch, modeQuery, modeRenameEdit:
		b.WriteString(m.styles.Prompt.Render("> "))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.body.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) statusLine() string {
	parts := []string{table.CountMessage(m.view.Len(), m.full.Len())}

	if m.searchQuery != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.searchQuery))
	}
	if s := m.sortedFilterSummary(); s != "" {
		parts = append(parts, s)
	}
	if m.directive != nil && m.directive.Fuzzy {
		parts = append(parts, fmt.Sprintf("threshold: %d", m.threshold))
	}
	if m.loading {
		parts = append(parts, m.spin.View())
	}

	line := m.styles.Info.Render(strings.Join(parts, "  ·  "))
	if m.errMsg != "" {
		line += "\n" + m.styles.Error.Render(m.errMsg)
	} else if m.infoMsg != "" {
		line += "\n" + m.styles.Muted.Render(m.infoMsg)
	}
	return line
}

func (m Model) footer() string {
	keys := "/ search  a ask  f filter  c rename  +/- threshold  e hide reasoning  r reset  R refresh  q quit"
	return m.styles.Footer.Render(keys)
}

// maxVisibleColumns picks how many columns share the width budget.
func maxVisibleColumns(n int) int {
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

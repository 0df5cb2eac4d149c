package viewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nocoview/internal/config"
	"nocoview/internal/logging"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshBody()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case fetchResultMsg:
		m.loading = false
		m.ready = true
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			logging.UI("fetch failed: %v", msg.err)
		} else {
			m.errMsg = ""
			if msg.cached {
				m.infoMsg = "loaded from cache"
			} else {
				m.infoMsg = ""
			}
		}
		m.full = msg.table.HeuristicRenameColumns()
		m.recompute()
		m.refreshBody()
		return m, nil

	case translateResultMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.recompute()
			m.refreshBody()
			return m, nil
		}
		if msg.directive == nil {
			return m, nil
		}
		m.errMsg = ""
		m.directive = msg.directive
		m.reasoning = msg.directive.Reasoning
		m.recompute()
		m.refreshBody()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch, modeQuery, modeRenameEdit:
		return m.handleInputKey(msg)
	case modeColumnPick, modeValuePick, modeRenamePick:
		return m.handlePickerKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "search all columns"
		m.input.SetValue(m.searchQuery)
		m.input.Focus()
		return m, nil

	case "a":
		if m.cfg.QueryMode == config.QueryModeOff {
			m.infoMsg = "natural language queries are disabled"
			return m, nil
		}
		m.mode = modeQuery
		m.input.Placeholder = "describe the rows you want"
		m.input.SetValue("")
		m.input.Focus()
		return m, nil

	case "f":
		m.openColumnPicker(modeColumnPick, "Filter by column")
		return m, nil

	case "c":
		m.openColumnPicker(modeRenamePick, "Rename column")
		return m, nil

	case "r":
		m.searchQuery = ""
		m.columnFilters = map[string]string{}
		m.directive = nil
		m.reasoning = ""
		m.threshold = m.cfg.FuzzyThreshold
		m.errMsg = ""
		m.infoMsg = "filters cleared"
		m.recompute()
		m.refreshBody()
		return m, nil

	case "R":
		m.loading = true
		m.infoMsg = "refreshing"
		return m, tea.Batch(m.spin.Tick, m.fetchCmd(true))

	case "+", "=":
		return m.adjustThreshold(5)

	case "-", "_":
		return m.adjustThreshold(-5)

	case "e":
		m.reasoning = ""
		m.refreshBody()
		return m, nil
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		switch m.mode {
		case modeSearch:
			m.mode = modeBrowse
			m.searchQuery = value
			m.recompute()
			m.refreshBody()
			return m, nil
		case modeQuery:
			m.mode = modeBrowse
			if value == "" {
				return m, nil
			}
			m.loading = true
			m.infoMsg = "translating query"
			return m, tea.Batch(m.spin.Tick, m.translateCmd(value))
		case modeRenameEdit:
			m.mode = modeBrowse
			if value == "" || m.pickColumn == "" {
				return m, nil
			}
			m.full = m.full.RenameColumn(m.pickColumn, value)
			if _, ok := m.columnFilters[m.pickColumn]; ok {
				m.columnFilters[value] = m.columnFilters[m.pickColumn]
				delete(m.columnFilters, m.pickColumn)
			}
			m.infoMsg = fmt.Sprintf("renamed %q to %q", m.pickColumn, value)
			m.pickColumn = ""
			m.recompute()
			m.refreshBody()
			return m, nil
		}
	}

	// Live search narrows as the user types.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		m.searchQuery = strings.TrimSpace(m.input.Value())
		m.recompute()
		m.refreshBody()
	}
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil

	case "enter":
		item, ok := m.picker.SelectedItem().(pickItem)
		if !ok {
			m.mode = modeBrowse
			return m, nil
		}
		switch m.mode {
		case modeColumnPick:
			m.pickColumn = item.label
			m.openValuePicker(item.label)
			return m, nil
		case modeValuePick:
			if item.label == clearFilterLabel {
				delete(m.columnFilters, m.pickColumn)
			} else {
				m.columnFilters[m.pickColumn] = item.label
			}
			m.mode = modeBrowse
			m.recompute()
			m.refreshBody()
			return m, nil
		case modeRenamePick:
			m.pickColumn = item.label
			m.mode = modeRenameEdit
			m.input.Placeholder = fmt.Sprintf("new name for %q", item.label)
			m.input.SetValue("")
			m.input.Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

const clearFilterLabel = "(clear filter)"

func (m *Model) openColumnPicker(target mode, title string) {
	cols := m.full.Columns()
	items := make([]list.Item, 0, len(cols))
	for _, col := range cols {
		detail := ""
		if target == modeColumnPick {
			n := len(m.full.DistinctValues(col))
			if n > maxPickValues {
				continue
			}
			detail = fmt.Sprintf("%d distinct values", n)
		}
		items = append(items, pickItem{label: col, detail: detail})
	}
	m.picker.Title = title
	m.picker.SetItems(items)
	m.picker.ResetFilter()
	m.picker.Select(0)
	m.mode = target
}

func (m *Model) openValuePicker(col string) {
	values := m.full.DistinctValues(col)
	items := make([]list.Item, 0, len(values)+1)
	items = append(items, pickItem{label: clearFilterLabel})
	for _, v := range values {
		items = append(items, pickItem{label: v})
	}
	m.picker.Title = fmt.Sprintf("Filter %s by value", col)
	m.picker.SetItems(items)
	m.picker.ResetFilter()
	m.picker.Select(0)
	m.mode = modeValuePick
}

func (m Model) adjustThreshold(delta int) (tea.Model, tea.Cmd) {
	if m.directive == nil || !m.directive.Fuzzy {
		return m, nil
	}
	next := m.threshold + delta
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}
	if next == m.threshold {
		return m, nil
	}
	m.threshold = next
	m.infoMsg = fmt.Sprintf("fuzzy threshold %d", m.threshold)
	m.errMsg = ""
	m.recompute()
	m.refreshBody()
	return m, nil
}

// sortedFilterSummary renders the active column filters deterministically.
func (m Model) sortedFilterSummary() string {
	if len(m.columnFilters) == 0 {
		return ""
	}
	cols := make([]string, 0, len(m.columnFilters))
	for col := range m.columnFilters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%s", col, m.columnFilters[col])
	}
	return strings.Join(parts, ", ")
}

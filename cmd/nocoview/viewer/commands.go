package viewer

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"nocoview/internal/cache"
	"nocoview/internal/filter"
	"nocoview/internal/logging"
	"nocoview/internal/table"
	"nocoview/internal/translate"
)

// fetchResultMsg carries the result of a table fetch.
type fetchResultMsg struct {
	table  *table.Table
	cached bool
	err    error
}

// translateResultMsg carries the result of a query translation.
type translateResultMsg struct {
	directive *translate.Directive
	err       error
}

// fetchCmd loads the table through the cache. With refresh set the cached
// entry is dropped first so the fetch always hits the API.
func (m Model) fetchCmd(refresh bool) tea.Cmd {
	key := cache.Key{BaseURL: m.client.BaseURL(), PageSize: m.client.PageSize()}
	return func() tea.Msg {
		if refresh {
			m.store.Invalidate(key)
		}
		t, cached, err := m.store.GetOrFetch(context.Background(), key, m.client.FetchAll)
		return fetchResultMsg{table: t, cached: cached, err: err}
	}
}

// translateCmd sends the query to the translator.
func (m Model) translateCmd(query string) tea.Cmd {
	columns := m.full.Columns()
	return func() tea.Msg {
		d, err := m.translator.Translate(context.Background(), query, columns)
		return translateResultMsg{directive: d, err: err}
	}
}

// applyDirective evaluates a directive's filter expression against t. On
// failure the original table is returned along with the error so the caller
// can keep showing unfiltered data.
func applyDirective(t *table.Table, d *translate.Directive, threshold int) (*table.Table, error) {
	result, err := filter.Apply(t, d.FilterCode, threshold)
	if err != nil {
		logging.FilterError("directive %s failed: %v", d.ID, err)
		return t, err
	}
	return result, nil
}

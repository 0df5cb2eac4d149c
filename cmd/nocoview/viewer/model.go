// Package viewer implements the interactive terminal data viewer: a fetched
// table plus live substring search, column value filters, and natural
// language queries translated into filter expressions.
package viewer

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"nocoview/cmd/nocoview/ui"
	"nocoview/internal/cache"
	"nocoview/internal/config"
	"nocoview/internal/nocodb"
	"nocoview/internal/table"
	"nocoview/internal/translate"
)

// mode is the current input mode of the viewer.
type mode int

const (
	modeBrowse     mode = iota // plain navigation
	modeSearch                 // live substring search input
	modeQuery                  // natural language query input
	modeColumnPick             // choosing a column to filter on
	modeValuePick              // choosing a value for the chosen column
	modeRenamePick             // choosing a column to rename
	modeRenameEdit             // typing the new column name
)

// maxPickValues caps the value picker; columns with more distinct values than
// this are not offered as filter targets.
const maxPickValues = 50

// Model is the bubbletea model for the viewer.
type Model struct {
	cfg        *config.Config
	styles     ui.Styles
	client     *nocodb.Client
	store      *cache.Cache
	translator *translate.Translator

	mode    mode
	width   int
	height  int
	loading bool
	ready   bool

	// full is the table as fetched; view is full with the active search,
	// column filters and query directive applied, in that order.
	full *table.Table
	view *table.Table

	searchQuery   string
	columnFilters map[string]string
	directive     *translate.Directive
	threshold     int
	reasoning     string

	errMsg  string
	infoMsg string

	input      textinput.Model
	spin       spinner.Model
	body       viewport.Model
	picker     list.Model
	pickColumn string // column chosen in modeValuePick / modeRenameEdit
}

// pickItem is a list entry for the column and value pickers.
type pickItem struct {
	label  string
	detail string
}

func (i pickItem) Title() string       { return i.label }
func (i pickItem) Description() string { return i.detail }
func (i pickItem) FilterValue() string { return i.label }

// New creates the viewer model. The cache, client and translator are wired by
// the command layer so one-shot subcommands can share them.
func New(cfg *config.Config, client *nocodb.Client, store *cache.Cache, translator *translate.Translator) Model {
	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))

	input := textinput.New()
	input.CharLimit = 512
	input.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	delegate := list.NewDefaultDelegate()
	picker := list.New(nil, delegate, 40, 14)
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(true)
	picker.SetShowHelp(false)

	return Model{
		cfg:           cfg,
		styles:        styles,
		client:        client,
		store:         store,
		translator:    translator,
		mode:          modeBrowse,
		loading:       true,
		full:          table.New(),
		view:          table.New(),
		columnFilters: map[string]string{},
		threshold:     cfg.FuzzyThreshold,
		input:         input,
		spin:          spin,
		picker:        picker,
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	return vp
}

// Init starts the spinner and the initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd(false))
}

// recompute derives the visible table from the full table and the active
// search, column filters, and directive. Filter failures fall back to the
// pre-filter table with the error surfaced in the footer.
func (m *Model) recompute() {
	t := m.full

	if m.searchQuery != "" {
		t = t.Search(m.searchQuery)
	}
	for col, val := range m.columnFilters {
		t = t.WhereEqual(col, val)
	}
	if m.directive != nil {
		filtered, err := applyDirective(t, m.directive, m.threshold)
		if err != nil {
			m.errMsg = err.Error()
		}
		t = filtered
	}

	m.view = t
}

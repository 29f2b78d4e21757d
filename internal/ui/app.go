package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/statekit/internal/items"
	"github.com/five82/statekit/internal/prefs"
	"github.com/five82/statekit/internal/retry"
	"github.com/five82/statekit/internal/state"
)

// ItemStore is the collection store the browser renders.
type ItemStore = state.Store[int64, items.Item]

// DetailStore holds the server copy of one item for the detail pane.
type DetailStore = state.SingleStore[items.Item]

// DetailTaskID is the load id used for item detail fetches.
const DetailTaskID = "item_detail"

// Options configures the UI.
type Options struct {
	Context      context.Context
	Store        *ItemStore
	Detail       *DetailStore
	Fetcher      items.Fetcher
	Policy       retry.Policy
	ThemeName    string
	ShowActivity bool
	PrefsPath    string
	LogPath      string
	Tick         time.Duration
}

// editField is the field the text input is bound to.
type editField int

const (
	editNone editField = iota
	editName
	editNotes
)

// view is what the model last read from the store.
type view struct {
	state        state.AsyncState[[]items.Item]
	models       []items.Item
	dirty        map[int64]bool
	hasMutations bool
	canUndo      bool
	canRedo      bool
	page         int
	hasMore      bool
	detail       state.AsyncState[items.Item]
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *ItemStore
	detail    *DetailStore
	fetcher   items.Fetcher
	policy    retry.Policy
	prefsPath string
	logPath   string
	tick      time.Duration
	keys      keyMap
	changes   <-chan struct{}

	detailChanges <-chan struct{}

	// UI state
	theme        Theme
	width        int
	height       int
	ready        bool
	showHelp     bool
	showActivity bool
	showDetail   bool
	detailID     int64
	selectedRow  int
	statusLine   string

	// Data
	data view

	// Editing
	editing editField
	input   textinput.Model

	// Widgets
	spinner  spinner.Model
	activity viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	policy := opts.Policy
	if policy.MaxAttempts < 1 {
		policy = retry.DefaultPolicy()
	}

	input := textinput.New()
	input.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		store:        opts.Store,
		detail:       opts.Detail,
		fetcher:      opts.Fetcher,
		policy:       policy,
		prefsPath:    prefsPath,
		logPath:      opts.LogPath,
		tick:         tick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(themeName),
		showActivity: opts.ShowActivity,
		input:        input,
		spinner:      sp,
		activity:     viewport.New(0, ActivityHeight),
	}
	if m.detail != nil {
		m.detailChanges = m.detail.Subscribe()
	}
	if m.store != nil {
		m.changes = m.store.Subscribe()
		m.sync()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.spinner.Tick,
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes, storeChangedMsg{}))
	}
	if m.detailChanges != nil {
		cmds = append(cmds, waitForChange(m.detailChanges, detailChangedMsg{}))
	}
	if m.store != nil && m.fetcher != nil && m.data.state.IsIdle() {
		cmds = append(cmds, m.refreshCmd())
	}
	if m.showActivity {
		cmds = append(cmds, readActivityCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.activity.Width = max(msg.Width-2, 0)
		m.ready = true
		return m, nil

	case storeChangedMsg:
		m.sync()
		return m, waitForChange(m.changes, storeChangedMsg{})

	case detailChangedMsg:
		m.sync()
		return m, waitForChange(m.detailChanges, detailChangedMsg{})

	case detailDoneMsg:
		m.sync()
		if msg.id == m.detailID {
			if err := m.data.detail.Err(); err != nil {
				m.statusLine = fmt.Sprintf("Fetch of #%d failed: %v", msg.id, err)
			}
		}
		return m, nil

	case loadDoneMsg:
		m.sync()
		if err := m.data.state.Err(); err != nil {
			m.statusLine = "Load failed: " + err.Error()
		}
		return m, nil

	case saveDoneMsg:
		m.statusLine = msg.summary()
		return m, nil

	case activityMsg:
		m.setActivity(msg)
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.showActivity {
			cmds = append(cmds, readActivityCmd(m.logPath))
		}
		cmds = append(cmds, tickCmd(m.tick))
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.editing != editNone {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case m.showDetail && key.Matches(msg, m.keys.Escape):
		m.showDetail = false

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, m.keys.Activity):
		m.showActivity = !m.showActivity
		m.savePrefs()
		if m.showActivity {
			return m, readActivityCmd(m.logPath)
		}

	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(m.data.models)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = max(len(m.data.models)-1, 0)

	case key.Matches(msg, m.keys.Rename):
		m.startEdit(editName)
	case key.Matches(msg, m.keys.EditNotes):
		m.startEdit(editNotes)

	case key.Matches(msg, m.keys.ToggleStatus):
		if it, ok := m.selected(); ok {
			m.store.Update(it.ID, state.Assign(items.StatusField, items.NextStatus(it.Status)))
			m.sync()
		}

	case key.Matches(msg, m.keys.Undo):
		m.store.Undo()
		m.sync()
	case key.Matches(msg, m.keys.Redo):
		m.store.Redo()
		m.sync()

	case key.Matches(msg, m.keys.Commit):
		cmd := m.commit()
		return m, cmd

	case key.Matches(msg, m.keys.Discard):
		m.store.Discard()
		m.statusLine = "Discarded all edits"
		m.sync()
	case key.Matches(msg, m.keys.DiscardItem):
		if it, ok := m.selected(); ok {
			m.store.DiscardKey(it.ID)
			m.statusLine = fmt.Sprintf("Discarded edits to #%d", it.ID)
			m.sync()
		}

	case key.Matches(msg, m.keys.NextPage):
		if !m.data.hasMore {
			m.statusLine = "No more pages"
			return m, nil
		}
		return m, m.nextPageCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Inspect):
		it, ok := m.selected()
		if !ok || m.detail == nil {
			return m, nil
		}
		m.showDetail = true
		m.detailID = it.ID
		return m, m.detailCmd(it.ID)

	case key.Matches(msg, m.keys.Cancel):
		m.store.Cancel(state.PageTaskID(0))
		m.store.Cancel(state.PageTaskID(m.data.page + 1))
		if m.detail != nil {
			m.detail.Cancel(DetailTaskID)
		}
		m.statusLine = "Cancelled loads"
	}

	return m, nil
}

func (m *Model) startEdit(field editField) {
	it, ok := m.selected()
	if !ok {
		return
	}
	m.editing = field
	switch field {
	case editNotes:
		m.input.Prompt = "Notes: "
		m.input.SetValue(it.Notes)
	default:
		m.input.Prompt = "Name: "
		m.input.SetValue(it.Name)
	}
	m.input.CursorEnd()
	m.input.Focus()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.stopEdit()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.input.Value())
		if it, ok := m.selected(); ok {
			switch m.editing {
			case editName:
				if value != "" && value != it.Name {
					m.store.Update(it.ID, state.Assign(items.NameField, value))
				}
			case editNotes:
				if value != it.Notes {
					m.store.Update(it.ID, state.Assign(items.NotesField, value))
				}
			}
		}
		m.stopEdit()
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEdit() {
	m.editing = editNone
	m.input.Blur()
	m.input.Reset()
}

// sync copies what the view needs out of the store.
func (m *Model) sync() {
	if m.detail != nil {
		m.data.detail = m.detail.State()
	}
	if m.store == nil {
		return
	}
	pending := m.store.PendingMutations()
	dirty := make(map[int64]bool, len(pending))
	for k := range pending {
		dirty[k] = true
	}
	m.data = view{
		state:        m.store.State(),
		models:       m.store.AllModels(),
		dirty:        dirty,
		hasMutations: len(pending) > 0,
		canUndo:      m.store.CanUndo(),
		canRedo:      m.store.CanRedo(),
		page:         m.store.CurrentPage(),
		hasMore:      m.store.HasMorePages(),
		detail:       m.data.detail,
	}
	if m.selectedRow >= len(m.data.models) {
		m.selectedRow = max(len(m.data.models)-1, 0)
	}
}

func (m Model) selected() (items.Item, bool) {
	if m.store == nil || m.selectedRow < 0 || m.selectedRow >= len(m.data.models) {
		return items.Item{}, false
	}
	return m.data.models[m.selectedRow], true
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, ShowActivity: m.showActivity})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}

package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/klix/internal/events"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	EventListView ViewState = iota
	DetailView
)

// DefaultLimit is the number of events kept on screen.
const DefaultLimit = 500

var countedKinds = []events.Kind{
	events.WebhookIssued,
	events.WebhookFailed,
	events.WebhookSkipped,
	events.Registration,
	events.CredentialFailed,
}

// Model represents the TUI application state.
type Model struct {
	view      ViewState
	source    <-chan events.Event
	eventList list.Model
	events    []events.Event // newest first
	selected  *events.Event
	counts    map[events.Kind]int
	alert     *events.Event
	paused    bool
	missed    int
	lastSeq   uint64
	closed    bool
	limit     int
	width     int
	height    int
	now       func() time.Time
	help      help.Model
	keys      keyMap
}

// NewModel creates a monitor reading from source. backlog is shown first, oldest to newest.
// Events from source that were already in backlog are skipped by sequence.
func NewModel(source <-chan events.Event, backlog []events.Event) *Model {
	m := &Model{
		view:      EventListView,
		source:    source,
		eventList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		counts:    make(map[events.Kind]int),
		limit:     DefaultLimit,
		now:       time.Now,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.eventList.Title = "Dispatch events"
	m.eventList.SetShowHelp(false)

	for _, evt := range backlog {
		m.record(evt)
	}
	m.refresh()
	return m
}

// Init starts listening for events.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case EventListView:
			return m.handleEventListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgEventReceived:
			evt := msg.data.(events.Event)
			if evt.Sequence != 0 && evt.Sequence <= m.lastSeq {
				return m, m.waitForEvent()
			}
			if m.paused {
				m.missed++
			} else {
				m.record(evt)
				m.refresh()
			}
			return m, m.waitForEvent()
		case MsgStreamClosed:
			m.closed = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.eventList, cmd = m.eventList.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	default:
		return m.renderEventList()
	}
}

func (m *Model) handleEventListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.eventList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.eventList, cmd = m.eventList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.eventList.SelectedItem().(eventItem); ok {
			evt := item.event
			m.selected = &evt
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		m.paused = !m.paused
		if !m.paused {
			m.missed = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.events = nil
		m.counts = make(map[events.Kind]int)
		m.alert = nil
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.eventList, cmd = m.eventList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = EventListView
		m.selected = nil
	}
	return m, nil
}

// record stores evt without touching the list widget.
func (m *Model) record(evt events.Event) {
	m.lastSeq = max(m.lastSeq, evt.Sequence)
	m.events = slices.Insert(m.events, 0, evt)
	if len(m.events) > m.limit {
		m.events = m.events[:m.limit]
	}
	m.counts[evt.Kind]++
	if evt.Kind == events.CredentialFailed {
		m.alert = &evt
	}
}

func (m *Model) refresh() {
	now := m.now()
	items := make([]list.Item, len(m.events))
	for i, evt := range m.events {
		items[i] = eventItem{event: evt, now: now}
	}
	m.eventList.SetItems(items)
}

func (m *Model) waitForEvent() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return streamClosedMsg()
		}
		evt, ok := <-source
		if !ok {
			return streamClosedMsg()
		}
		return eventReceivedMsg(evt)
	}
}

func (m *Model) renderEventList() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("klix monitor"))
	b.WriteString("\n")

	if m.alert != nil {
		b.WriteString(styles.banner.Render(fmt.Sprintf("Credential failure at %s: %s",
			m.alert.Time.Local().Format(time.TimeOnly), m.alert.Message)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderCounts())
	b.WriteString("\n")

	switch {
	case m.closed:
		b.WriteString(styles.err.Render("Stream closed"))
		b.WriteString("\n")
	case m.paused:
		b.WriteString(styles.warn.Render(fmt.Sprintf("Paused (%d missed)", m.missed)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.eventList.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.pause, m.keys.clear, m.keys.quit}))
	return b.String()
}

func (m *Model) renderCounts() string {
	parts := make([]string, 0, len(countedKinds))
	for _, k := range countedKinds {
		parts = append(parts, fmt.Sprintf("%s %d", styles.Kind(k).Render(string(k)), m.counts[k]))
	}
	return strings.Join(parts, " • ")
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return styles.err.Render("No event selected\n\nPress esc to go back, q to quit")
	}
	evt := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Event #%d", evt.Sequence)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Kind:    %s\n", styles.Kind(evt.Kind).Render(string(evt.Kind)))
	fmt.Fprintf(&b, "Time:    %s\n", evt.Time.Local().Format(time.DateTime))
	if evt.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", evt.Message)
	}

	if len(evt.Fields) > 0 {
		b.WriteString("\n")
		keys := make([]string, 0, len(evt.Fields))
		for k := range evt.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", styles.help.Render(k), evt.Fields[k])
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}

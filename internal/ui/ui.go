package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/services"
)

// DefaultIdleTimeout bounds each long poll so a dead server is noticed.
const DefaultIdleTimeout = 30 * time.Second

// QueueClient is the part of [services.QueueClient] the watcher uses.
type QueueClient interface {
	Changes(ctx context.Context, since models.Baseline, start int, end *int, idsOnly bool) (models.ChangeSet, error)
	Idle(ctx context.Context, seen models.QueueStatus, timeout time.Duration) (models.QueueStatus, error)
	SetCurrent(ctx context.Context, id uint32) (models.QueueStatus, error)
	DeleteID(ctx context.Context, id uint32) (models.QueueStatus, error)
	Shuffle(ctx context.Context, span models.Span) (models.QueueStatus, error)
}

// Model is the queue watcher. It mirrors the server's queue with incremental change queries
// and waits for changes with long polls.
//
// Network calls run in commands; the mirror is only touched in Update.
type Model struct {
	ctx     context.Context
	client  QueueClient
	mirror  *services.Mirror
	timeout time.Duration
	width   int
	height  int
	list    list.Model
	notice  string
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a watcher for the server behind client.
func NewModel(ctx context.Context, client QueueClient) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Queue"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return &Model{
		ctx:     ctx,
		client:  client,
		mirror:  &services.Mirror{},
		timeout: DefaultIdleTimeout,
		list:    l,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts with a full fetch of the queue.
func (m *Model) Init() tea.Cmd {
	return m.fetchChanges(models.Baseline{})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgChangesFetched:
			return m.handleChanges(msg.data.(changesFetched))
		case MsgQueueIdle:
			return m.handleIdle(msg.data.(queueIdle))
		case MsgCommandDone:
			done := msg.data.(commandDone)
			if done.err != nil {
				m.notice = styles.warn.Render(fmt.Sprintf("%s failed: %v", done.name, done.err))
				return m, nil
			}
			m.notice = ""
			// Cursor moves do not bump the version, so refresh explicitly.
			return m, m.fetchChanges(m.mirror.Since())
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleChanges(msg changesFetched) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil

	if err := m.mirror.Apply(msg.changes); err != nil {
		m.mirror.Reset()
		return m, m.fetchChanges(models.Baseline{})
	}

	cmd := m.list.SetItems(entryItems(m.mirror.Items(), m.mirror.Status().CurrentID))
	return m, tea.Batch(cmd, m.waitForChange(m.mirror.Status()))
}

func (m *Model) handleIdle(msg queueIdle) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}

	st := msg.status
	if st.Epoch != m.mirror.Status().Epoch {
		m.mirror.Reset()
		return m, m.fetchChanges(models.Baseline{})
	}
	if seen := m.mirror.Status(); st.Version == seen.Version && st.CurrentID == seen.CurrentID {
		return m, m.waitForChange(seen)
	}
	return m, m.fetchChanges(m.mirror.Since())
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.resync):
		m.mirror.Reset()
		m.err = nil
		return m, m.fetchChanges(models.Baseline{})
	case key.Matches(msg, m.keys.shuffle):
		return m, m.command("shuffle", func(ctx context.Context) error {
			_, err := m.client.Shuffle(ctx, models.Span{})
			return err
		})
	case key.Matches(msg, m.keys.play), key.Matches(msg, m.keys.remove):
		selected, ok := m.list.SelectedItem().(entryItem)
		if !ok {
			return m, nil
		}
		id := selected.item.ID
		if key.Matches(msg, m.keys.play) {
			return m, m.command("play", func(ctx context.Context) error {
				_, err := m.client.SetCurrent(ctx, id)
				return err
			})
		}
		return m, m.command("delete", func(ctx context.Context) error {
			_, err := m.client.DeleteID(ctx, id)
			return err
		})
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) fetchChanges(since models.Baseline) tea.Cmd {
	return func() tea.Msg {
		cs, err := m.client.Changes(m.ctx, since, 0, nil, false)
		return changesFetchedMsg(cs, err)
	}
}

func (m *Model) waitForChange(seen models.QueueStatus) tea.Cmd {
	return func() tea.Msg {
		st, err := m.client.Idle(m.ctx, seen, m.timeout)
		return queueIdleMsg(st, err)
	}
}

func (m *Model) command(name string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg(name, fn(m.ctx))
	}
}

// View renders the queue with a status line.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	view := fmt.Sprintf("%s\n%s\n\n%s", styles.status(m.mirror.Status()), m.list.View(), m.help.View(m.keys))
	if m.notice != "" {
		view += "\n" + m.notice
	}
	return view
}

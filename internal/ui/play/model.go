package play

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gokatarajesh/quiz-bank/internal/session"
)

// Player is the part of *session.Session the UI drives.
type Player interface {
	Start(n int) (session.StartResult, error)
	Select(option string) (session.Feedback, error)
	Next() error
	Restart() error
	View() session.View
}

// Options configures the model.
type Options struct {
	// TimeLimit scales the countdown bar.
	TimeLimit time.Duration
	NoColor   bool
}

// Model renders a quiz session using Bubble Tea.
type Model struct {
	player  Player
	events  <-chan session.Event
	view    session.View
	bar     progress.Model
	limit   int // seconds per question
	count   int // questions to request on start
	cursor  int
	notice  string
	noColor bool
}

// NewModel builds a model for player; events is usually Feed.Events().
func NewModel(player Player, events <-chan session.Event, opts Options) Model {
	limit := int(opts.TimeLimit.Round(time.Second) / time.Second)
	if limit <= 0 {
		limit = int(session.DefaultTimeLimit / time.Second)
	}
	view := player.View()
	return Model{
		player:  player,
		events:  events,
		view:    view,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		limit:   limit,
		count:   view.DefaultCount,
		noColor: opts.NoColor,
	}
}

// Init waits for the first session event.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update consumes session events and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(typed.Width-10, 10), 60)
		return m, nil
	case EventMsg:
		m = m.applyEvent(typed.Event)
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

// View renders the current phase.
func (m Model) View() string {
	var body string
	switch m.view.Phase {
	case session.PhaseStart:
		body = renderStart(m.view, m.count, m.noColor)
	case session.PhasePlaying:
		body = renderPlaying(m.view, m.cursor, m.bar.ViewAs(m.remaining()), m.noColor)
	case session.PhaseResults:
		body = renderResults(m.view.Result, m.noColor)
	}
	return lipgloss.JoinVertical(lipgloss.Left, renderTitle(m.noColor), body, renderNotice(m.notice, m.noColor), renderHelp(m.view, m.noColor))
}

// EventMsg wraps a session event for Bubble Tea.
type EventMsg struct {
	Event session.Event
}

// waitForEvent blocks until a session event is available.
func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

// applyEvent reacts to a session event. The snapshot is re-read from the
// player because queued events may be older than the last key press.
func (m Model) applyEvent(e session.Event) Model {
	m.view = m.player.View()
	switch e.Kind {
	case session.EventAdvanced, session.EventStarted:
		m.cursor = 0
		m.notice = ""
	case session.EventTimedOut:
		m.notice = "Waktu habis!"
	case session.EventRestarted:
		m.count = m.view.DefaultCount
		m.notice = ""
	}
	return m
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	}

	switch m.view.Phase {
	case session.PhaseStart:
		m = m.startKey(key)
	case session.PhasePlaying:
		m = m.playingKey(key)
	case session.PhaseResults:
		if key.String() == "r" {
			m = m.act(m.player.Restart())
			m.count = m.view.DefaultCount
		}
	}
	return m, nil
}

func (m Model) startKey(key tea.KeyMsg) Model {
	switch key.String() {
	case "up", "+", "k":
		if m.count < m.view.BankSize {
			m.count++
		}
	case "down", "-", "j":
		if m.count > 1 {
			m.count--
		}
	case "enter", " ":
		res, err := m.player.Start(m.count)
		m = m.act(err)
		if err == nil && res.Reduced {
			m.notice = "Jumlah soal disesuaikan dengan isi bank."
		}
		m.cursor = 0
	}
	return m
}

func (m Model) playingKey(key tea.KeyMsg) Model {
	q := m.view.Question
	if q == nil {
		return m
	}
	if m.view.ShowFeedback {
		if k := key.String(); k == "enter" || k == "n" || k == " " {
			m = m.act(m.player.Next())
		}
		return m
	}

	switch k := key.String(); k {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case "enter", " ":
		m = m.choose(m.cursor)
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			m = m.choose(int(k[0] - '1'))
		}
	}
	return m
}

func (m Model) choose(i int) Model {
	q := m.view.Question
	if i < 0 || i >= len(q.Options) {
		return m
	}
	m.cursor = i
	_, err := m.player.Select(q.Options[i])
	return m.act(err)
}

// act records the outcome of a player action and refreshes the snapshot.
func (m Model) act(err error) Model {
	m.notice = ""
	if err != nil {
		m.notice = describe(err)
	}
	m.view = m.player.View()
	return m
}

func (m Model) remaining() float64 {
	return min(max(float64(m.view.TimeLeft)/float64(m.limit), 0), 1)
}

func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrNoQuestions):
		return "Bank soal kosong. Tambahkan soal terlebih dahulu."
	case errors.Is(err, session.ErrInvalidCount):
		return "Jumlah soal harus lebih dari nol."
	case errors.Is(err, session.ErrNotAnswered):
		return "Pilih jawaban terlebih dahulu."
	default:
		return err.Error()
	}
}

// Package picker implements a single-choice terminal prompt whose choices
// are loaded asynchronously while a loading animation is shown.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultTickInterval is the delay between loading animation frames.
const DefaultTickInterval = 500 * time.Millisecond

const (
	defaultMessage    = "Select an option"
	defaultSearchText = "Searching"

	// loadingFrames is the number of distinct loading frames (1-3 dots).
	loadingFrames = 3
)

var (
	// ErrNoSelectableChoices is returned when the final item list has no
	// choice the cursor can rest on. It is a configuration error and is
	// never retried.
	ErrNoSelectableChoices = errors.New("picker: no selectable choices")

	// ErrCancelled is returned when the user aborts the picker.
	ErrCancelled = errors.New("picker: cancelled")
)

// phase is the picker's lifecycle stage.
type phase int

const (
	phaseSearching phase = iota // Transient; never rendered
	phaseLoading                // Fetch in flight, animating
	phasePending                // Items available, awaiting input
	phaseDone                   // Choice confirmed; terminal
)

func (p phase) String() string {
	switch p {
	case phaseSearching:
		return "searching"
	case phaseLoading:
		return "loading"
	case phasePending:
		return "pending"
	case phaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// initMsg is sent by Init() to start the fetch via Update(), so that the
// cancel handles it creates are kept on the model.
type initMsg struct{}

// fetchDoneMsg carries the settled result of Source.Fetch.
type fetchDoneMsg[V any] struct {
	items []Item[V]
	err   error
}

// tickMsg fires when a loading frame's delay elapses.
type tickMsg struct {
	id uint64 // Must match Model.tickID to be accepted
}

// Config configures a picker session.
type Config[V any] struct {
	Message    string // Question shown on the first line
	SearchText string // Dimmed text shown while loading

	// Choices is used as the item list when Source is nil.
	Choices []Item[V]

	// Source, when set, is fetched once at start and its result replaces
	// Choices.
	Source Source[V]

	// TickInterval overrides DefaultTickInterval.
	TickInterval time.Duration

	// OnFetchError is called when Source.Fetch fails. The picker still
	// treats the fetch as empty; this hook only exposes the cause.
	OnFetchError func(error)

	Logger *slog.Logger
}

// Model is the Bubble Tea model for a single picker session.
type Model[V any] struct {
	message      string
	searchText   string
	source       Source[V]
	onFetchError func(error)
	logger       *slog.Logger

	phase           phase
	tick            int // Loading frame, 0..loadingFrames-1
	items           []Item[V]
	fetching        bool
	active          int // Index into items; -1 until pending

	// firstRenderDone hides the help tip once a key is pressed. View is
	// called after every message, so it cannot count pending renders.
	firstRenderDone bool

	result V
	err    error
	width  int // Terminal width; 0 until the first WindowSizeMsg

	ctx          context.Context
	fetchStart   time.Time
	tickInterval time.Duration

	// tickID tracks the latest scheduled frame; only a matching tickMsg
	// advances the animation.
	tickID uint64

	// cancelTick stops the pending frame timer.
	cancelTick context.CancelFunc

	// cancelFetch cancels the context handed to Source.Fetch.
	cancelFetch context.CancelFunc
}

// New creates a picker Model. Without a source the item list is final
// immediately, so a list with no selectable choice fails here with
// ErrNoSelectableChoices before anything is rendered.
func New[V any](cfg Config[V]) (Model[V], error) {
	m := Model[V]{
		message:      cfg.Message,
		searchText:   cfg.SearchText,
		source:       cfg.Source,
		onFetchError: cfg.OnFetchError,
		logger:       cfg.Logger,
		phase:        phaseSearching,
		active:       -1,
		ctx:          context.Background(),
		tickInterval: cfg.TickInterval,
	}
	if m.message == "" {
		m.message = defaultMessage
	}
	if m.searchText == "" {
		m.searchText = defaultSearchText
	}
	if m.tickInterval <= 0 {
		m.tickInterval = DefaultTickInterval
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}

	if m.source == nil {
		m.items = cfg.Choices
		if err := m.enterPending(); err != nil {
			return Model[V]{}, err
		}
		return m, nil
	}

	// The fetch itself starts from Init; the first visible frame is
	// already the loading animation.
	m.fetching = true
	m.phase = phaseLoading
	m.tick = 0
	return m, nil
}

// Result returns the confirmed value and whether one was confirmed.
func (m Model[V]) Result() (V, bool) {
	return m.result, m.phase == phaseDone
}

// Err returns the error that ended the session, if any.
func (m Model[V]) Err() error {
	return m.err
}

// Init implements tea.Model. It sends an initMsg so that the fetch is
// started through Update, where state mutations are properly captured.
func (m Model[V]) Init() tea.Cmd {
	if m.phase != phaseLoading {
		return nil
	}
	return func() tea.Msg { return initMsg{} }
}

// Update implements tea.Model.
func (m Model[V]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Nothing changes once the session has ended.
	if m.phase == phaseDone || m.err != nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case fetchDoneMsg[V]:
		return m.handleFetchDone(msg)

	case tickMsg:
		return m.handleTick(msg)

	case initMsg:
		if m.phase != phaseLoading || m.cancelFetch != nil {
			return m, nil
		}
		return m, tea.Batch(m.startFetch(), m.scheduleTick())
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model[V]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Cancel) {
		m.err = ErrCancelled
		m.release()
		m.logger.Info("picker cancelled", "phase", m.phase.String())
		return m, tea.Quit
	}

	// The list is not navigable until items have arrived.
	if m.phase != phasePending {
		return m, nil
	}
	m.firstRenderDone = true // See the field comment.

	switch {
	case key.Matches(msg, keys.Confirm):
		return m.confirm()

	case key.Matches(msg, keys.Up):
		m.active = step(m.items, m.active, -1)

	case key.Matches(msg, keys.Down):
		m.active = step(m.items, m.active, +1)

	default:
		if idx, ok := digitIndex(msg); ok {
			if _, ok := choiceAt(m.items, idx); ok {
				m.active = idx
			}
		}
	}

	return m, nil
}

// confirm moves to the terminal phase and records the active value.
func (m Model[V]) confirm() (tea.Model, tea.Cmd) {
	c, ok := choiceAt(m.items, m.active)
	if !ok {
		return m, nil
	}
	m.phase = phaseDone
	m.result = c.Value
	m.release()
	m.logger.Info("choice confirmed", "index", m.active, "name", c.Label())
	return m, tea.Quit
}

// handleFetchDone applies the settled fetch. Only this path leaves the
// loading phase.
func (m Model[V]) handleFetchDone(msg fetchDoneMsg[V]) (tea.Model, tea.Cmd) {
	if m.phase != phaseLoading {
		return m, nil
	}

	m.fetching = false
	m.stopTick()
	elapsed := time.Since(m.fetchStart)

	if msg.err != nil {
		m.logger.Warn("fetch failed", "error", msg.err, "duration_ms", elapsed.Milliseconds())
		if m.onFetchError != nil {
			m.onFetchError(msg.err)
		}
	} else {
		m.items = msg.items
		m.logger.Debug("fetch done", "items", len(msg.items), "duration_ms", elapsed.Milliseconds())
	}

	if err := m.enterPending(); err != nil {
		m.err = err
		m.release()
		m.logger.Error("no selectable choices", "items", len(m.items))
		return m, tea.Quit
	}
	return m, nil
}

// handleTick advances the loading animation if the fetch is still running.
func (m Model[V]) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.tickID || m.phase != phaseLoading || !m.fetching {
		return m, nil // Stale frame timer; ignore.
	}
	m.tick = (m.tick + 1) % loadingFrames
	return m, m.scheduleTick()
}

// enterPending moves to the pending phase and places the cursor on the
// first selectable item.
func (m *Model[V]) enterPending() error {
	m.phase = phasePending
	m.active = firstSelectable(m.items)
	if m.active < 0 {
		return ErrNoSelectableChoices
	}
	return nil
}

// startFetch returns a tea.Cmd that calls the source once.
func (m *Model[V]) startFetch() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFetch = cancel
	m.fetchStart = time.Now()
	m.logger.Debug("fetch started")

	src := m.source
	return func() tea.Msg {
		items, err := src.Fetch(ctx)
		return fetchDoneMsg[V]{items: items, err: err}
	}
}

// scheduleTick replaces any pending frame timer with a new one that fires
// after tickInterval unless cancelled first.
func (m *Model[V]) scheduleTick() tea.Cmd {
	m.stopTick()
	m.tickID++
	id := m.tickID
	interval := m.tickInterval

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelTick = cancel
	return func() tea.Msg {
		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-t.C:
			return tickMsg{id: id}
		case <-ctx.Done():
			return nil
		}
	}
}

// stopTick cancels the pending frame timer, if any.
func (m *Model[V]) stopTick() {
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
}

// release stops the frame timer and cancels the fetch context.
func (m *Model[V]) release() {
	m.stopTick()
	if m.cancelFetch != nil {
		m.cancelFetch()
	}
}

// Run shows the picker and blocks until the user confirms a choice, aborts,
// or ctx is cancelled. The confirmed value is returned exactly once.
func Run[V any](ctx context.Context, cfg Config[V], opts ...tea.ProgramOption) (V, error) {
	var zero V

	m, err := New(cfg)
	if err != nil {
		return zero, err
	}
	m.ctx = ctx

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	finalModel, err := tea.NewProgram(m, opts...).Run()
	if fm, ok := finalModel.(Model[V]); ok {
		fm.release()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		return zero, fmt.Errorf("picker: run: %w", err)
	}

	fm, ok := finalModel.(Model[V])
	if !ok {
		return zero, fmt.Errorf("picker: unexpected model type %T", finalModel)
	}
	if fm.err != nil {
		return zero, fm.err
	}
	value, ok := fm.Result()
	if !ok {
		return zero, ErrCancelled
	}
	return value, nil
}

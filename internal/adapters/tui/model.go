// Package tui is the terminal display surface, built on bubbletea.
//
// The model holds the latest controller snapshot it has seen and never
// mutates it. Key presses become controller calls run as tea.Cmds, and the
// controller's subscription feeds new snapshots back in as stateMsg values.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-client/internal/app"
)

const helpText = "n/enter/space: new quote • q/esc: quit"

var helpStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)

// Controller is the part of app.QuoteController the terminal UI needs.
type Controller interface {
	Snapshot() app.State
	Mount(ctx context.Context) bool
	Refresh(ctx context.Context)
	Subscribe(fn func(app.State)) (unsubscribe func())
}

// stateMsg delivers a controller snapshot to the event loop.
type stateMsg app.State

// Model is the bubbletea model for the quote screen.
type Model struct {
	ctx   context.Context
	ctrl  Controller
	state app.State
	width int
}

// NewModel creates a model seeded with the controller's current state.
// ctx bounds the refreshes the model starts.
func NewModel(ctx context.Context, ctrl Controller) Model {
	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		state: ctrl.Snapshot(),
	}
}

// State returns the snapshot the model currently renders.
func (m Model) State() app.State {
	return m.state
}

// Init mounts the controller, which fetches a quote if none is loaded.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Mount(m.ctx)
		return nil
	}
}

// Update handles key presses, resizes and controller snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		// Snapshots can arrive out of order; keep the newest.
		if msg.Revision > m.state.Revision {
			m.state = app.State(msg)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter, msg.Type == tea.KeySpace, msg.String() == "n":
		return m, m.refresh()
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyCtrlC, msg.String() == "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Refresh(m.ctx)
		return nil
	}
}

// View renders the current state followed by the key help.
func (m Model) View() string {
	return RenderWidth(m.state, m.width) + "\n" + helpStyle.Render(helpText) + "\n"
}

// Run shows the quote screen until the user quits or ctx is done.
// Extra options are passed to tea.NewProgram.
func Run(ctx context.Context, ctrl Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, ctrl), opts...)

	unsubscribe := ctrl.Subscribe(func(s app.State) {
		p.Send(stateMsg(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("running terminal ui: %w", err)
	}

	return nil
}

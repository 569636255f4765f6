package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"github.com/tejedor/trama/internal/handlers"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	seatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	contentStyle = lipgloss.NewStyle().PaddingLeft(2)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	deltaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

type nodeViewMsg struct {
	characterID uuid.UUID
	view        *handlers.NodeView
}

type outcomeMsg struct {
	outcome *engine.Outcome
}

type varsMsg struct {
	vars state.Vars
}

type errMsg struct {
	err error
}

// ConsoleUI drives a hot-seat playthrough: one tab per seat, arrows to
// pick an option, enter to submit.
type ConsoleUI struct {
	cfg    *ConsoleConfig
	client *http.Client
	sess   *state.Session

	seats   []uuid.UUID // character IDs in stable display order
	active  int
	views   map[uuid.UUID]*handlers.NodeView
	cursor  int
	width   int
	spin    spinner.Model
	busy    bool
	status  string
	lastErr error
}

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, sess *state.Session) *ConsoleUI {
	seats := make([]uuid.UUID, 0, len(sess.Seats))
	for id := range sess.Seats {
		seats = append(seats, id)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].String() < seats[j].String() })

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &ConsoleUI{
		cfg:    cfg,
		client: client,
		sess:   sess,
		seats:  seats,
		views:  make(map[uuid.UUID]*handlers.NodeView),
		spin:   sp,
		width:  80,
	}
}

func (ui *ConsoleUI) Init() tea.Cmd {
	cmds := []tea.Cmd{ui.spin.Tick}
	for _, id := range ui.seats {
		cmds = append(cmds, ui.fetchNode(id))
	}
	return tea.Batch(cmds...)
}

func (ui *ConsoleUI) fetchNode(characterID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		view, err := getNodeView(ui.client, ui.cfg.APIBaseURL, ui.sess.ID, characterID)
		if err != nil {
			return errMsg{err}
		}
		return nodeViewMsg{characterID: characterID, view: view}
	}
}

func (ui *ConsoleUI) submit(characterID, nodeID, optionID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		seat := ui.sess.Seats[characterID]
		outcome, err := submitDecision(ui.client, ui.cfg.APIBaseURL, engine.SubmitRequest{
			SessionID:   ui.sess.ID,
			PlayerID:    seat.PlayerID,
			CharacterID: characterID,
			NodeID:      nodeID,
			OptionID:    optionID,
		})
		if err != nil {
			return errMsg{err}
		}
		return outcomeMsg{outcome}
	}
}

func (ui *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		return ui, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		ui.spin, cmd = ui.spin.Update(msg)
		return ui, cmd

	case nodeViewMsg:
		ui.views[msg.characterID] = msg.view
		if msg.characterID == ui.activeSeat() {
			ui.cursor = 0
		}
		return ui, nil

	case outcomeMsg:
		ui.busy = false
		ui.lastErr = nil
		ui.status = summarizeOutcome(msg.outcome)
		// Refresh every seat: a joint table may have moved siblings.
		cmds := make([]tea.Cmd, 0, len(ui.seats))
		for _, id := range ui.seats {
			cmds = append(cmds, ui.fetchNode(id))
		}
		return ui, tea.Batch(cmds...)

	case varsMsg:
		ui.lastErr = nil
		ui.status = formatVars(msg.vars)
		return ui, nil

	case errMsg:
		ui.busy = false
		ui.lastErr = msg.err
		return ui, nil

	case tea.KeyMsg:
		return ui.handleKey(msg)
	}
	return ui, nil
}

func (ui *ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := ui.views[ui.activeSeat()]

	switch msg.String() {
	case "q", "ctrl+c":
		return ui, tea.Quit

	case "tab":
		ui.active = (ui.active + 1) % len(ui.seats)
		ui.cursor = 0
		return ui, nil

	case "up", "k":
		if ui.cursor > 0 {
			ui.cursor--
		}
		return ui, nil

	case "down", "j":
		if view != nil && ui.cursor < len(view.Options)-1 {
			ui.cursor++
		}
		return ui, nil

	case "c":
		_ = clipboard.WriteAll(ui.sess.ID.String())
		ui.status = "Session ID copied to clipboard"
		return ui, nil

	case "r":
		return ui, ui.fetchNode(ui.activeSeat())

	case "v":
		charID := ui.activeSeat()
		return ui, func() tea.Msg {
			vars, err := getCharacterState(ui.client, ui.cfg.APIBaseURL, ui.sess.ID, charID)
			if err != nil {
				return errMsg{err}
			}
			return varsMsg{vars}
		}

	case "enter":
		if ui.busy || view == nil || len(view.Options) == 0 || view.Status == state.SeatEnded {
			return ui, nil
		}
		ui.busy = true
		opt := view.Options[ui.cursor]
		return ui, ui.submit(ui.activeSeat(), view.NodeID, opt.ID)
	}
	return ui, nil
}

func (ui *ConsoleUI) activeSeat() uuid.UUID {
	return ui.seats[ui.active]
}

func (ui *ConsoleUI) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("trama console"))
	b.WriteString(seatStyle.Render(fmt.Sprintf("  session %s", shortID(ui.sess.ID))))
	b.WriteString("\n\n")

	// Seat tabs
	tabs := make([]string, len(ui.seats))
	for i, id := range ui.seats {
		label := "character " + shortID(id)
		if i == ui.active {
			tabs[i] = activeStyle.Render("[" + label + "]")
		} else {
			tabs[i] = seatStyle.Render(" " + label + " ")
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	view := ui.views[ui.activeSeat()]
	if view == nil {
		b.WriteString(ui.spin.View() + " loading...\n")
	} else {
		b.WriteString(titleStyle.Render(view.Title))
		b.WriteString("\n")
		b.WriteString(contentStyle.Render(wordwrap.String(view.Content, max(20, ui.width-4))))
		b.WriteString("\n\n")

		switch {
		case view.Status == state.SeatEnded:
			if view.Victory {
				b.WriteString(statusStyle.Render("THE END - victory\n"))
			} else {
				b.WriteString(statusStyle.Render("THE END\n"))
			}
		case view.Status == state.SeatPending:
			b.WriteString(statusStyle.Render("Waiting for other characters to decide...\n"))
		case len(view.Options) == 0:
			b.WriteString(seatStyle.Render("No options available.\n"))
		default:
			for i, opt := range view.Options {
				cursor := "  "
				line := opt.Text
				if i == ui.cursor {
					cursor = cursorStyle.Render("> ")
					line = activeStyle.Render(line)
				}
				b.WriteString(fmt.Sprintf("%s%s\n", cursor, line))
			}
		}
	}

	if ui.busy {
		b.WriteString("\n" + ui.spin.View() + " submitting...")
	}
	if ui.status != "" {
		b.WriteString("\n" + deltaStyle.Render(ui.status))
	}
	if ui.lastErr != nil {
		b.WriteString("\n" + errStyle.Render("error: "+ui.lastErr.Error()))
	}

	b.WriteString(helpStyle.Render("\ntab: switch character - up/down: select - enter: decide - v: variables - r: refresh - c: copy session id - q: quit"))
	return b.String()
}

func formatVars(vars state.Vars) string {
	if len(vars) == 0 {
		return "No variables set"
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, vars[name]))
	}
	return strings.Join(parts, "  ")
}

func summarizeOutcome(o *engine.Outcome) string {
	var parts []string
	for _, d := range o.Deltas {
		parts = append(parts, fmt.Sprintf("%s: %v -> %v", d.Variable, d.Before, d.After))
	}
	for charID, t := range o.Transitions {
		switch t.Status {
		case engine.TransitionPending:
			parts = append(parts, fmt.Sprintf("%s awaiting siblings", shortID(charID)))
		case engine.TransitionEnding:
			parts = append(parts, fmt.Sprintf("%s reached an ending", shortID(charID)))
		case engine.TransitionUnresolved:
			parts = append(parts, fmt.Sprintf("%s has no mapped destination", shortID(charID)))
		}
	}
	if len(parts) == 0 {
		return "Decision recorded"
	}
	return strings.Join(parts, " | ")
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

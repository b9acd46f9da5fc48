package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/faultdrill/internal/dispatch"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
)

// Source is what the board reads and changes. dispatch.Service satisfies it.
type Source interface {
	Queue(ctx context.Context, state *escalation.State, limit int) ([]dispatch.QueueEntry, error)
	Get(ctx context.Context, id string) (*models.WorkOrder, error)
	StartWork(ctx context.Context, id string) (*models.WorkOrder, error)
	CloseWork(ctx context.Context, id, notes string) (*models.WorkOrder, error)
}

type boardMode int

const (
	modeQueue boardMode = iota
	modeNotes
	modeDetail
)

// Board is the interactive supervisor view: a live queue that can start and
// close work orders.
type Board struct {
	ctx      context.Context
	src      Source
	state    *escalation.State
	limit    int
	interval time.Duration

	table   table.Model
	notes   *NotesBar
	detail  *models.WorkOrder
	entries []dispatch.QueueEntry
	mode    boardMode
	message string
	updated time.Time
	width   int
	height  int
}

var boardColumns = []table.Column{
	{Title: "WO_ID", Width: 10},
	{Title: "PRIORITY", Width: 8},
	{Title: "STATUS", Width: 11},
	{Title: "SLA", Width: 6},
	{Title: "AGE", Width: 6},
	{Title: "FAULT", Width: 26},
	{Title: "FLAG", Width: 14},
}

// NewBoard creates a board refreshing every interval.
func NewBoard(ctx context.Context, src Source, state *escalation.State, limit int, interval time.Duration) *Board {
	if state == nil {
		state = escalation.NewState()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(cyanColor)
	styles.Selected = styles.Selected.Foreground(fgColor).Background(primaryColor).Bold(true)

	t := table.New(
		table.WithColumns(boardColumns),
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithStyles(styles),
	)

	return &Board{
		ctx:      ctx,
		src:      src,
		state:    state,
		limit:    limit,
		interval: interval,
		table:    t,
		notes:    NewNotesBar(),
	}
}

// Run starts the board on the terminal and blocks until the user quits.
func (b *Board) Run() error {
	p := tea.NewProgram(b, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type queueLoadedMsg struct {
	entries []dispatch.QueueEntry
	at      time.Time
}

type workOrderLoadedMsg struct {
	wo *models.WorkOrder
}

type actionResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tickMsg time.Time

// Init implements tea.Model
func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.refresh(), b.tick())
}

// Update implements tea.Model
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)

	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.notes.SetWidth(msg.Width)
		if h := msg.Height - 10; h > 3 {
			b.table.SetHeight(h)
		}

	case queueLoadedMsg:
		b.entries = msg.entries
		b.updated = msg.at
		b.table.SetRows(tableRows(msg.entries))

	case workOrderLoadedMsg:
		b.detail = msg.wo
		b.mode = modeDetail

	case actionResultMsg:
		b.message = msg.message
		return b, b.refresh()

	case errMsg:
		b.message = "Error: " + msg.err.Error()

	case tickMsg:
		return b, tea.Batch(b.refresh(), b.tick())
	}
	return b, nil
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return b, tea.Quit
	}

	switch b.mode {
	case modeNotes:
		switch msg.String() {
		case "esc":
			b.notes.Blur()
			b.mode = modeQueue
			b.message = "Close cancelled"
			return b, nil
		case "enter":
			id, notes := b.notes.Submit()
			b.mode = modeQueue
			return b, b.closeWork(id, notes)
		}
		return b, b.notes.Update(msg)

	case modeDetail:
		switch msg.String() {
		case "esc", "enter", "q":
			b.mode = modeQueue
			b.detail = nil
		}
		return b, nil
	}

	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "r":
		b.message = ""
		return b, b.refresh()
	case "s":
		if id := b.selectedID(); id != "" {
			return b, b.startWork(id)
		}
		return b, nil
	case "c":
		if id := b.selectedID(); id != "" {
			b.mode = modeNotes
			return b, b.notes.Focus(id)
		}
		return b, nil
	case "enter":
		if id := b.selectedID(); id != "" {
			return b, b.load(id)
		}
		return b, nil
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View implements tea.Model
func (b *Board) View() string {
	var s strings.Builder

	header := titleStyle.Render("SUPERVISOR BOARD")
	header += "  " + siteStyle(b.state.SiteStatus).Render(string(b.state.SiteStatus))
	header += "  " + labelStyle.Render(fmt.Sprintf("breaches %d (HIGH %d)", b.state.SLABreaches, b.state.HighPrioritySLABreaches))
	if !b.updated.IsZero() {
		header += "  " + labelStyle.Render("updated "+b.updated.Format("15:04:05"))
	}
	s.WriteString(header + "\n\n")

	if b.mode == modeDetail && b.detail != nil {
		s.WriteString(DetailView(*b.detail))
	} else if len(b.entries) == 0 {
		s.WriteString("No active work orders. ✅\n")
	} else {
		s.WriteString(b.table.View() + "\n")
	}

	if b.message != "" {
		style := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(b.message, "Error") {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		s.WriteString("\n" + style.Render(b.message) + "\n")
	}

	if b.mode == modeNotes {
		s.WriteString("\n" + b.notes.View() + "\n")
	}

	var status string
	switch b.mode {
	case modeNotes:
		status = " Enter:close | Esc:cancel"
	case modeDetail:
		status = " Esc:back | Ctrl+C:quit"
	default:
		status = fmt.Sprintf(" Orders: %d | ↑↓:nav | Enter:detail | s:start | c:close | r:refresh | q:quit", len(b.entries))
	}
	s.WriteString("\n" + statusBarStyle.Width(max(b.width, 40)).Render(status))
	return s.String()
}

func (b *Board) selectedID() string {
	row := b.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (b *Board) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, err := b.src.Queue(b.ctx, b.state, b.limit)
		if err != nil {
			return errMsg{err}
		}
		return queueLoadedMsg{entries: entries, at: time.Now()}
	}
}

func (b *Board) load(id string) tea.Cmd {
	return func() tea.Msg {
		wo, err := b.src.Get(b.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return workOrderLoadedMsg{wo}
	}
}

func (b *Board) startWork(id string) tea.Cmd {
	return func() tea.Msg {
		wo, err := b.src.StartWork(b.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return actionResultMsg{fmt.Sprintf("%s updated → %s", wo.ID, wo.Status)}
	}
}

func (b *Board) closeWork(id, notes string) tea.Cmd {
	return func() tea.Msg {
		wo, err := b.src.CloseWork(b.ctx, id, notes)
		if err != nil {
			return errMsg{err}
		}
		return actionResultMsg{fmt.Sprintf("%s updated → %s", wo.ID, wo.Status)}
	}
}

func (b *Board) tick() tea.Cmd {
	if b.interval <= 0 {
		return nil
	}
	return tea.Tick(b.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func tableRows(entries []dispatch.QueueEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		flag := ""
		if e.Status == models.StatusBreached {
			flag = breachFlag
		}
		rows = append(rows, table.Row{
			e.ID,
			string(e.Priority),
			string(e.Status),
			slaText(e.SLAMinutes),
			ageText(e.AgeMinutes),
			clip(e.Fault, 26),
			flag,
		})
	}
	return rows
}

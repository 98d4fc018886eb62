package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/export"
	"github.com/matzehuels/tracetower/pkg/playback"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// speedStep is the autoplay speed change per key press.
const speedStep = 100 * time.Millisecond

var (
	styleStatusBar = lipgloss.NewStyle().Foreground(colorGray).Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(colorDim)
	stylePlaying   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	stylePaused    = lipgloss.NewStyle().Foreground(colorGray)
	styleLocked    = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)

// =============================================================================
// Key bindings
// =============================================================================

type keyMap struct {
	Toggle key.Binding
	Next   key.Binding
	Prev   key.Binding
	First  key.Binding
	Last   key.Binding
	Faster key.Binding
	Slower key.Binding
	PNG    key.Binding
	GIF    key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		First:  key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("0", "reset")),
		Last:   key.NewBinding(key.WithKeys("end", "$"), key.WithHelp("$", "last step")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
		PNG:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export png")),
		GIF:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "export gif")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Prev, k.Next, k.GIF, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Prev, k.Next, k.First, k.Last},
		{k.Faster, k.Slower},
		{k.PNG, k.GIF, k.Reload},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

// stateMsg is sent by the controller observer after every transition,
// including autoplay ticks and export seeks.
type stateMsg playback.State

// settleMsg asks the player to draw step index; ack is closed once the
// frame has been rendered.
type settleMsg struct {
	index int
	ack   chan struct{}
}

type progressMsg export.Job

type exportDoneMsg struct {
	path string
	err  error
}

type reloadMsg struct {
	trace *trace.Trace
	err   error
}

// =============================================================================
// Bridge between the exporter and the running program
// =============================================================================

// bridge lets export callbacks, which run outside the event loop, reach the
// program.
type bridge struct {
	prog *tea.Program
}

// settle waits until the player has rendered step index.
func (b *bridge) settle(ctx context.Context, index int) error {
	if b.prog == nil {
		return nil
	}
	ack := make(chan struct{})
	b.prog.Send(settleMsg{index: index, ack: ack})
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *bridge) progress(j export.Job) {
	if b.prog != nil {
		b.prog.Send(progressMsg(j))
	}
}

// observe forwards controller state changes to the program. Sends happen
// on their own goroutine since transitions may run inside Update.
func (b *bridge) observe(st playback.State) {
	if b.prog != nil {
		go b.prog.Send(stateMsg(st))
	}
}

// =============================================================================
// PlayerModel
// =============================================================================

// PlayerModel is the bubbletea model of the interactive player.
type PlayerModel struct {
	ctx      context.Context
	ctrl     *playback.Controller
	exporter *export.Exporter
	external roles.RoleMap
	assign   roles.Assignment
	outDir   string
	reload   func() (*trace.Trace, error)

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	ready    bool

	status    string
	exporting bool
	percent   int
}

// PlayerOptions configure a PlayerModel.
type PlayerOptions struct {
	Exporter *export.Exporter
	Roles    roles.RoleMap
	OutDir   string
	// Reload re-reads the trace source; nil disables reloading.
	Reload func() (*trace.Trace, error)
}

// NewPlayerModel creates a player over a loaded controller.
func NewPlayerModel(ctx context.Context, ctrl *playback.Controller, opts PlayerOptions) PlayerModel {
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	return PlayerModel{
		ctx:      ctx,
		ctrl:     ctrl,
		exporter: opts.Exporter,
		external: opts.Roles,
		assign:   roles.Classify(ctrl.Trace(), opts.Roles),
		outDir:   opts.OutDir,
		reload:   opts.Reload,
		keys:     newKeyMap(),
		help:     help.New(),
	}
}

func (m PlayerModel) Init() tea.Cmd {
	return nil
}

func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - lipgloss.Height(m.footer())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width, m.viewport.Height = msg.Width, h
		}
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.refresh()
		return m, nil

	case settleMsg:
		m.refresh()
		ack := msg.ack
		return m, func() tea.Msg { close(ack); return nil }

	case progressMsg:
		m.percent = msg.Progress
		m.status = fmt.Sprintf("Exporting GIF %d%%", msg.Progress)
		return m, nil

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.status = StyleError.Render(errors.UserMessage(msg.err))
		} else {
			m.status = StyleSuccess.Render("Saved " + msg.path)
		}
		m.refresh()
		return m, nil

	case reloadMsg:
		if msg.err != nil && msg.trace == nil {
			m.status = StyleError.Render(errors.UserMessage(msg.err))
			return m, nil
		}
		m.ctrl.Load(msg.trace)
		m.assign = roles.Classify(msg.trace, m.external)
		m.status = fmt.Sprintf("Reloaded %d steps", msg.trace.Len())
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m PlayerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		err = m.ctrl.Toggle()
	case key.Matches(msg, m.keys.Next):
		err = m.ctrl.Next()
	case key.Matches(msg, m.keys.Prev):
		err = m.ctrl.Previous()
	case key.Matches(msg, m.keys.First):
		err = m.ctrl.Reset()
	case key.Matches(msg, m.keys.Last):
		err = m.ctrl.Seek(m.ctrl.State().Len - 1)
	case key.Matches(msg, m.keys.Faster):
		err = m.ctrl.SetSpeed(m.ctrl.State().Speed - speedStep)
	case key.Matches(msg, m.keys.Slower):
		err = m.ctrl.SetSpeed(m.ctrl.State().Speed + speedStep)
	case key.Matches(msg, m.keys.PNG):
		return m.startExport(export.PNG)
	case key.Matches(msg, m.keys.GIF):
		return m.startExport(export.GIF)
	case key.Matches(msg, m.keys.Reload):
		if m.reload == nil {
			return m, nil
		}
		m.status = "Reloading…"
		reload := m.reload
		return m, func() tea.Msg {
			tr, err := reload()
			return reloadMsg{trace: tr, err: err}
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if err != nil {
		m.status = StyleWarning.Render(errors.UserMessage(err))
	} else if !m.exporting {
		m.status = ""
	}
	m.refresh()
	return m, nil
}

// startExport runs an export as a command. A second export while one is
// running is refused by the controller's lease.
func (m PlayerModel) startExport(kind export.Kind) (tea.Model, tea.Cmd) {
	if m.exporter == nil {
		return m, nil
	}
	if m.exporting {
		m.status = StyleWarning.Render(errors.UserMessage(playback.ErrLocked))
		return m, nil
	}
	m.exporting, m.percent = true, 0
	m.status = fmt.Sprintf("Exporting %s…", strings.ToUpper(string(kind)))

	ctx, ctrl, exporter, dir := m.ctx, m.ctrl, m.exporter, m.outDir
	return m, func() tea.Msg {
		var (
			data []byte
			step int
			err  error
		)
		if kind == export.GIF {
			data, err = exporter.GIF(ctx, ctrl)
		} else {
			data, step, err = exporter.PNG(ctx, ctrl)
		}
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := writeExport(dir, export.Filename(kind, step), data)
		return exportDoneMsg{path: path, err: err}
	}
}

// refresh re-renders the current step into the viewport.
func (m *PlayerModel) refresh() {
	if !m.ready {
		return
	}
	st := m.ctrl.State()
	if st.Idle() {
		m.viewport.SetContent(StyleDim.Render("No trace loaded."))
		return
	}
	v := structure.BuildView(m.ctrl.Current(), m.assign)
	m.viewport.SetContent(renderView(v, st.Len))
}

func (m PlayerModel) View() string {
	if !m.ready {
		return "Loading…"
	}
	return m.viewport.View() + "\n" + m.footer()
}

func (m PlayerModel) footer() string {
	st := m.ctrl.State()

	var mode string
	switch {
	case st.Locked:
		mode = styleLocked.Render("● EXPORT")
	case st.Playing:
		mode = stylePlaying.Render("▶ PLAY")
	default:
		mode = stylePaused.Render("■ PAUSE")
	}
	bar := fmt.Sprintf("%s  %s  %s", mode, scrubber(st, 30), StyleDim.Render(st.Speed.String()))
	if m.status != "" {
		bar += "  " + m.status
	}
	return styleStatusBar.Render(bar) + "\n" + m.help.View(m.keys)
}

// scrubber draws the position of the current step in the trace.
func scrubber(st playback.State, width int) string {
	if st.Len == 0 {
		return StyleDim.Render(strings.Repeat("─", width))
	}
	pos := 0
	if st.Len > 1 {
		pos = st.Index * (width - 1) / (st.Len - 1)
	}
	return StyleDim.Render(strings.Repeat("━", pos)) +
		StyleHighlight.Render("●") +
		StyleDim.Render(strings.Repeat("─", width-1-pos)) +
		StyleNumber.Render(fmt.Sprintf(" %d/%d", st.Index+1, st.Len))
}

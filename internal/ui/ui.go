package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"

	"github.com/DaanHessen/storyreel/internal/engine"
	"github.com/DaanHessen/storyreel/internal/media"
	"github.com/DaanHessen/storyreel/internal/story"
	"github.com/DaanHessen/storyreel/internal/util"
)

const (
	viewBand   = "band"
	viewPlayer = "player"
	viewHelp   = "help"
)

// bandCellWidth is the column span of one avatar in the story band.
const bandCellWidth = 12

// Rows above the media frame: progress bars, then the name header.
const (
	rowBars   = 0
	rowHeader = 1
)

type model struct {
	ctx     context.Context
	log     *slog.Logger
	clock   clockwork.Clock
	catalog *story.Catalog
	engine  *engine.Engine
	queue   *timerQueue
	surface media.Surface
	tuning  engine.Tuning
	cellW   float64
	cellH   float64

	keys     keyMap
	help     help.Model
	theme    string
	styles   styles
	view     string
	selected int
	width    int
	height   int
	ticking  bool
	status   string
}

func initialModel(ctx context.Context, catalog *story.Catalog, cfg util.Config, log *slog.Logger, clock clockwork.Clock) model {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := model{
		ctx:     ctx,
		log:     log,
		clock:   clock,
		catalog: catalog.Ordered(),
		surface: media.TerminalSurface{},
		tuning:  cfg.Tuning(),
		cellW:   cfg.Cell.Width,
		cellH:   cfg.Cell.Height,
		keys:    newKeyMap(),
		help:    help.New(),
		theme:   cfg.App.Theme,
		view:    viewBand,
	}
	m.styles = newStyles(paletteFor(m.theme))
	m.resetEngine()
	return m
}

// resetEngine binds a fresh, closed engine to the current catalog.
func (m *model) resetEngine() {
	m.queue = newTimerQueue(m.clock)
	m.engine = engine.New(m.ctx, m.catalog, m.queue, m.surface,
		engine.WithTuning(m.tuning), engine.WithLogger(m.log))
}

// open starts the viewer at the group with id.
func (m *model) open(id string) (tea.Cmd, error) {
	if err := m.engine.Open(id, m.clock.Now()); err != nil {
		return nil, err
	}
	if i, ok := m.catalog.IndexOf(id); ok {
		m.selected = i
	}
	m.view = viewPlayer
	m.status = ""
	m.log.Info("story opened", "group", id)
	if m.ticking {
		return nil, nil
	}
	m.ticking = true
	return frameTick(), nil
}

// handle applies engine notifications to the catalog and the view.
func (m *model) handle(notes []engine.Notification) {
	for _, n := range notes {
		switch n := n.(type) {
		case engine.CursorChanged:
			m.selected = n.To.Group
		case engine.Watched:
			if m.catalog.MarkWatched(n.GroupID) {
				m.log.Info("group watched", "group", n.GroupID)
			}
		case engine.Closed:
			m.log.Info("story closed", "reason", string(n.Reason))
			m.returnToBand()
		}
	}
}

// returnToBand reorders the band so unwatched groups lead, keeping the
// selection on the same group.
func (m *model) returnToBand() {
	var id string
	if m.selected < m.catalog.Len() {
		id = m.catalog.Group(m.selected).ID
	}
	m.catalog = m.catalog.Ordered()
	if i, ok := m.catalog.IndexOf(id); ok {
		m.selected = i
	}
	m.queue.clear()
	m.resetEngine()
	m.view = viewBand
}

func (m *model) dispatch(ev engine.Event) {
	m.handle(m.engine.Dispatch(ev))
}

// pump delivers every timer that has come due.
func (m *model) pump() {
	now := m.clock.Now()
	for m.view == viewPlayer {
		d, ok := m.queue.next(now)
		if !ok {
			return
		}
		m.dispatch(engine.TimerFired{Timer: d.t, At: d.at})
	}
}

func (m model) viewport() engine.Viewport {
	w, h := m.size()
	return engine.Viewport{Width: float64(w) * m.cellW, Height: float64(h) * m.cellH}
}

// point maps a terminal cell to the centre of that cell in pixels.
func (m model) point(x, y int) engine.Point {
	return engine.Point{X: (float64(x) + 0.5) * m.cellW, Y: (float64(y) + 0.5) * m.cellH}
}

func (m model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	return w, h
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd {
	if m.view == viewPlayer {
		return frameTick()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case frameMsg:
		m.pump()
		if m.view != viewPlayer {
			m.ticking = false
			return m, nil
		}
		return m, frameTick()
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.view {
		case viewHelp:
			if key.Matches(msg, m.keys.Help, m.keys.Close) {
				m.view = viewBand
			}
			return m, nil
		case viewPlayer:
			return m.updatePlayerKey(msg)
		default:
			return m.updateBandKey(msg)
		}
	case tea.MouseMsg:
		if m.view == viewPlayer {
			m.updatePlayerMouse(msg)
			return m, nil
		}
		if m.view == viewBand {
			return m.updateBandMouse(msg)
		}
	}
	return m, nil
}

func (m model) updateBandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Prev, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Next, m.keys.Down):
		if m.selected < m.catalog.Len()-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Open):
		return m.openSelected()
	case key.Matches(msg, m.keys.Theme):
		m.theme = nextThemeName(m.theme, 1)
		m.styles = newStyles(paletteFor(m.theme))
	case key.Matches(msg, m.keys.Help):
		m.view = viewHelp
	case key.Matches(msg, m.keys.Close):
		return m, tea.Quit
	}
	return m, nil
}

func (m model) openSelected() (tea.Model, tea.Cmd) {
	if m.catalog.Len() == 0 {
		return m, nil
	}
	cmd, err := m.open(m.catalog.Group(m.selected).ID)
	if err != nil {
		m.status = err.Error()
		m.log.Error("open story", "error", err)
	}
	return m, cmd
}

func (m model) updatePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := m.clock.Now()
	switch {
	case key.Matches(msg, m.keys.Prev):
		m.dispatch(engine.Previous{At: now})
	case key.Matches(msg, m.keys.Next):
		m.dispatch(engine.Next{At: now})
	case key.Matches(msg, m.keys.Pause):
		m.dispatch(engine.TogglePause{At: now})
	case key.Matches(msg, m.keys.Close):
		m.dispatch(engine.Close{At: now})
	}
	return m, nil
}

func (m *model) updatePlayerMouse(msg tea.MouseMsg) {
	now := m.clock.Now()
	p := m.point(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if m.onCloseControl(msg.X, msg.Y) {
			m.dispatch(engine.Close{At: now})
			return
		}
		m.dispatch(engine.PointerDown{Point: p, At: now, Viewport: m.viewport()})
	case tea.MouseActionMotion:
		m.dispatch(engine.PointerMove{Point: p, At: now})
	case tea.MouseActionRelease:
		m.dispatch(engine.PointerUp{Point: p, At: now})
	}
}

// onCloseControl reports whether the cell holds the header's close glyph.
func (m model) onCloseControl(x, y int) bool {
	w, _ := m.size()
	if y != rowHeader || x < w-3 {
		return false
	}
	return m.engine.State(m.clock.Now()).OverlayVisible
}

func (m model) updateBandMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	// title row, blank row, then two rows of avatars
	if msg.Y < 2 || msg.Y > 3 {
		return m, nil
	}
	i := msg.X / bandCellWidth
	if i < 0 || i >= m.catalog.Len() {
		return m, nil
	}
	m.selected = i
	return m.openSelected()
}

func (m model) View() string {
	switch m.view {
	case viewPlayer:
		return m.renderPlayer()
	case viewHelp:
		return m.renderHelp()
	default:
		return m.renderBand()
	}
}

// Layout rendering -----------------------------------------------------------
func (m model) renderBand() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("storyreel") + "\n\n")
	rings := make([]string, 0, m.catalog.Len())
	for i, g := range m.catalog.Groups() {
		ring := m.styles.ringNew.Render("◉")
		if g.Watched {
			ring = m.styles.ringSeen.Render("○")
		}
		name := runewidth.Truncate(g.DisplayName, bandCellWidth-2, "…")
		if i == m.selected {
			name = m.styles.selected.Render(name)
		}
		cell := lipgloss.NewStyle().Width(bandCellWidth).Align(lipgloss.Center).Render(ring + "\n" + name)
		rings = append(rings, cell)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rings...))
	b.WriteString("\n\n")
	if m.catalog.Len() > 0 {
		g := m.catalog.Group(m.selected)
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("%s · %d stories", g.DisplayName, len(g.Items))) + "\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.warning.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.Prev, m.keys.Next, m.keys.Open, m.keys.Theme, m.keys.Help, m.keys.Close}))
	return b.String()
}

func (m model) renderPlayer() string {
	s := m.engine.State(m.clock.Now())
	if s.Phase == engine.PhaseClosed {
		return m.renderBand()
	}
	w, h := m.size()
	bars, header := "", ""
	if s.OverlayVisible {
		bars = m.renderBars(s.Progress, w)
		header = m.renderHeader(s.Group, w)
	}
	footer := m.help.View(m.keys)
	frameH := h - 3 - lipgloss.Height(footer)
	drop := int(s.OffsetY / m.cellH)
	if drop > frameH-3 {
		drop = frameH - 3
	}
	if drop < 0 {
		drop = 0
	}
	shift := int(math.Round(s.Offset / m.cellW))
	body := m.renderMedia(s, w, frameH-drop, shift)
	rows := []string{bars, header}
	for i := 0; i < drop; i++ {
		rows = append(rows, "")
	}
	rows = append(rows, body, footer)
	return strings.Join(rows, "\n")
}

// renderBars draws one segment per item, split evenly across the width.
func (m model) renderBars(progress []float64, width int) string {
	n := len(progress)
	if n == 0 {
		return ""
	}
	seg := (width - (n - 1)) / n
	if seg < 1 {
		seg = 1
	}
	parts := make([]string, n)
	for i, f := range progress {
		filled := int(math.Round(f * float64(seg)))
		parts[i] = m.styles.barFill.Render(strings.Repeat("━", filled)) +
			m.styles.barEmpty.Render(strings.Repeat("━", seg-filled))
	}
	return strings.Join(parts, " ")
}

func (m model) renderHeader(g story.Group, width int) string {
	avatar := "●"
	if g.Avatar == "" {
		avatar = "○"
	}
	left := m.styles.header.Render(avatar + " " + g.DisplayName)
	right := m.styles.muted.Render(" ✕ ")
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m model) renderMedia(s engine.Snapshot, width, height, shift int) string {
	var lines []string
	switch {
	case s.MediaUnavailable:
		lines = append(lines, m.styles.warning.Render("media unavailable"), m.styles.muted.Render(s.Item.Source))
	case s.Item.IsVideo():
		state := "▶ playing"
		if s.Phase != engine.PhasePlaying {
			state = "⏸ paused"
		}
		lines = append(lines, "video", state, m.styles.muted.Render(s.Item.Source))
	default:
		lines = append(lines, "image", m.styles.muted.Render(s.Item.Source))
	}
	if s.UserHold {
		lines = append(lines, "", m.styles.warning.Render("on hold"))
	}
	st := m.styles.frame
	inner := width - 2
	if limit := width - 2; shift > limit {
		shift = limit
	} else if shift < -limit {
		shift = -limit
	}
	// The frame slides off screen: the edge it leaves through loses its border.
	switch {
	case shift > 0:
		st = st.MarginLeft(shift).BorderRight(false)
		inner = width - shift - 1
	case shift < 0:
		st = st.BorderLeft(false)
		inner = width + shift - 1
	}
	if inner < 1 {
		inner = 1
	}
	innerH := height - 2
	if innerH < 1 {
		innerH = 1
	}
	content := lipgloss.Place(inner, innerH, lipgloss.Center, lipgloss.Center, strings.Join(lines, "\n"))
	return st.Width(inner).Render(content)
}

const helpMarkdown = `# storyreel

Stories play in order: every group of the band, item by item.

## Viewer

| Input | Action |
| --- | --- |
| click right half | next item |
| click left half | previous item |
| press and hold | pause while held |
| drag left / right | swipe to the next / previous group |
| drag down | dismiss |
| space | hold / release |
| esc, q | close |

Groups you watch to the end move behind the unwatched ones.
`

func (m model) renderHelp() string {
	w, _ := m.size()
	out := helpMarkdown
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(w))
	if err == nil {
		if rendered, err := r.Render(helpMarkdown); err == nil {
			out = rendered
		}
	}
	return out + "\n" + m.help.FullHelpView(m.keys.FullHelp())
}

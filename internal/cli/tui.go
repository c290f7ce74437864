package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// Canvas geometry: one cell covers cellW x cellH editor units.
const (
	cellW    = 10.0
	cellH    = 25.0
	boxWidth = 20
)

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	tuiMenuStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	tuiMenuCursor  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

const tuiHelp = "hjkl move · tab select · a add · x close · [ ] output · o link · O unlink · i input · m drag · e text · + option · ^s save · q quit"

// callbackMsg runs a deferred renderer callback on the update loop.
type callbackMsg struct{ fn func() }

type menuItem struct {
	label  string
	action func()
}

// editorModel is the terminal front-end of an editing session. It is the
// controller's Renderer, Dragger, Pointer and Menu.
type editorModel struct {
	ctrl *editor.Controller
	path string
	save func(graph.Document) error

	cursor   view.Point // pointer, editor units
	origin   view.Point // top-left of the canvas, editor units
	selected int        // node ID, 0 for none
	output   int        // index into the selected node's outputs

	attached map[view.Element]bool
	fading   map[view.Element]bool
	dragging bool

	menu       []menuItem
	menuOpen   bool
	menuCursor int

	editing bool
	input   []rune

	status    string
	statusErr bool
	quitArmed bool
	saved     bool

	queued        []tea.Cmd
	width, height int
}

func newEditorModel(path string, opts editor.Options, save func(graph.Document) error) *editorModel {
	m := &editorModel{
		path:     path,
		save:     save,
		attached: make(map[view.Element]bool),
		fading:   make(map[view.Element]bool),
		width:    100,
		height:   30,
	}
	opts.Renderer = m
	opts.Dragger = m
	opts.Pointer = m
	m.ctrl = editor.New(opts)
	m.ctrl.RegisterMenu(m)
	return m
}

// =============================================================================
// Collaborators
// =============================================================================

func (m *editorModel) Attach(v view.Element) { m.attached[v] = true }

func (m *editorModel) Detach(v view.Element) {
	delete(m.attached, v)
	delete(m.fading, v)
}

func (m *editorModel) Animate(v view.Element, a editor.Animation, done func()) {
	if a.Opacity == 0 {
		m.fading[v] = true
	}
	m.After(a.Duration, done)
}

func (m *editorModel) After(d time.Duration, fn func()) {
	m.queued = append(m.queued, tea.Tick(d, func(time.Time) tea.Msg { return callbackMsg{fn} }))
}

func (m *editorModel) MakeDraggable(*view.NodeView) {}

func (m *editorModel) Dragging() bool { return m.dragging }

func (m *editorModel) Position() view.Point { return m.cursor }

func (m *editorModel) AddItem(label string, action func()) {
	m.menu = append(m.menu, menuItem{label: label, action: action})
}

// hooks shows rejected gestures in the status line.
func (m *editorModel) hooks() observability.EditorHooks { return statusHooks{m: m} }

type statusHooks struct {
	observability.NoopEditorHooks
	m *editorModel
}

func (h statusHooks) OnGestureRejected(gesture string, err error) {
	h.m.setError(fmt.Errorf("%s: %w", gesture, err))
}

// =============================================================================
// Update
// =============================================================================

func (m *editorModel) Init() tea.Cmd { return m.drain() }

func (m *editorModel) drain() tea.Cmd {
	cmds := m.queued
	m.queued = nil
	return tea.Batch(cmds...)
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg.fn()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if cmd := m.key(msg); cmd != nil {
			return m, tea.Batch(cmd, m.drain())
		}
	}
	return m, m.drain()
}

func (m *editorModel) key(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	if k == "ctrl+c" {
		return tea.Quit
	}
	switch {
	case m.editing:
		m.editKey(msg)
		return nil
	case m.menuOpen:
		m.menuKey(k)
		return nil
	}

	if k != "q" {
		m.quitArmed = false
	}
	m.status, m.statusErr = "", false

	switch k {
	case "q":
		if m.ctrl.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.setStatus("unsaved changes, press q again to quit")
			return nil
		}
		return tea.Quit
	case "ctrl+s":
		m.doSave()
	case "up", "k":
		m.step(0, -cellH)
	case "down", "j":
		m.step(0, cellH)
	case "left", "h":
		m.step(-cellW, 0)
	case "right", "l":
		m.step(cellW, 0)
	case "H", "J", "K", "L":
		m.pan(k)
	case "tab":
		m.cycle(1)
	case "shift+tab":
		m.cycle(-1)
	case "enter":
		m.selectAt(m.cursor)
	case "a":
		m.menuOpen, m.menuCursor = true, 0
	case "x":
		if v := m.selectedView(); v != nil {
			v.Close()
			if _, ok := m.ctrl.Graph().Node(v.NodeID()); ok {
				m.setStatus("node %d cannot be closed", v.NodeID())
			} else {
				m.selected = 0
			}
		}
	case "[":
		m.output--
		m.clampOutput()
	case "]":
		m.output++
		m.clampOutput()
	case "o", "O":
		button := view.Primary
		if k == "O" {
			button = view.Secondary
		}
		if out := m.selectedOutput(); out != nil {
			out.Click(button)
			if m.ctrl.Pending() != nil {
				m.setStatus("linking from %s, select a target and press i", pointName(out))
			}
		}
	case "i":
		if v := m.selectedView(); v != nil && v.Input() != nil {
			v.Input().Click(view.Primary)
		}
	case "m":
		if m.selectedView() != nil {
			m.dragging = !m.dragging
		}
	case "e":
		if n := m.selectedNode(); n != nil {
			m.editing, m.input = true, []rune(n.Text)
		}
	case "+":
		if n := m.selectedNode(); n != nil {
			if _, err := m.ctrl.AddChoiceOption(m.selected, fmt.Sprintf("Option %d", len(n.Options)+1)); err != nil {
				m.setError(err)
			}
		}
	case "esc":
		m.dragging = false
	}
	return nil
}

func (m *editorModel) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.ctrl.SetText(m.selected, string(m.input)); err != nil {
			m.setError(err)
		}
		m.editing = false
	case tea.KeyEsc:
		m.editing = false
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
}

func (m *editorModel) menuKey(k string) {
	switch k {
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(m.menu)-1 {
			m.menuCursor++
		}
	case "enter":
		m.menuOpen = false
		before := m.ctrl.Graph().NodeCount()
		m.menu[m.menuCursor].action()
		if m.ctrl.Graph().NodeCount() > before {
			m.selectAt(m.cursor)
		}
	case "esc", "q", "a":
		m.menuOpen = false
	}
}

// step moves the pointer, or the selected node while dragging.
func (m *editorModel) step(dx, dy float64) {
	m.cursor = m.cursor.Add(view.Point{X: dx, Y: dy})
	if m.dragging {
		if err := m.ctrl.MoveNode(m.selected, m.cursor); err != nil {
			m.setError(err)
		}
	}
	m.follow()
}

// pan scrolls the canvas unless a node is being dragged.
func (m *editorModel) pan(k string) {
	if !m.ctrl.BackgroundDrag() {
		return
	}
	d := map[string]view.Point{
		"H": {X: -10 * cellW}, "L": {X: 10 * cellW},
		"K": {Y: -4 * cellH}, "J": {Y: 4 * cellH},
	}[k]
	m.origin = m.origin.Add(d)
	m.cursor = m.cursor.Add(d)
}

// follow scrolls so the pointer stays on the canvas.
func (m *editorModel) follow() {
	cols, rows := float64(m.width), float64(m.canvasRows())
	col, row := (m.cursor.X-m.origin.X)/cellW, (m.cursor.Y-m.origin.Y)/cellH
	switch {
	case col < 0:
		m.origin.X += col * cellW
	case col >= cols:
		m.origin.X += (col - cols + 1) * cellW
	}
	switch {
	case row < 0:
		m.origin.Y += row * cellH
	case row >= rows:
		m.origin.Y += (row - rows + 1) * cellH
	}
}

func (m *editorModel) cycle(dir int) {
	views := m.ctrl.Views().Nodes()
	if len(views) == 0 {
		return
	}
	i := 0
	for j, v := range views {
		if v.NodeID() == m.selected {
			i = (j + dir + len(views)) % len(views)
			break
		}
	}
	m.selected, m.output = views[i].NodeID(), 0
	m.dragging = false
	m.cursor = views[i].Position
	m.follow()
}

// selectAt selects the node whose box covers p.
func (m *editorModel) selectAt(p view.Point) {
	for _, v := range m.ctrl.Views().Nodes() {
		col, row := m.cell(v.Position)
		pc, pr := m.cell(p)
		if pc >= col && pc < col+boxWidth && pr >= row && pr < row+boxHeight(v) {
			m.selected, m.output = v.NodeID(), 0
			return
		}
	}
	m.selected = 0
}

func (m *editorModel) selectedView() *view.NodeView {
	if m.selected == 0 {
		return nil
	}
	v, err := m.ctrl.Views().Node(m.selected)
	if err != nil {
		m.selected = 0
		return nil
	}
	return v
}

func (m *editorModel) selectedNode() *dialogue.Node {
	n, _ := m.ctrl.Graph().Node(m.selected)
	return n
}

func (m *editorModel) selectedOutput() *view.ConnectionPoint {
	v := m.selectedView()
	if v == nil {
		return nil
	}
	outs := v.Outputs()
	if len(outs) == 0 {
		return nil
	}
	m.clampOutput()
	return outs[m.output]
}

func (m *editorModel) clampOutput() {
	v := m.selectedView()
	if v == nil {
		m.output = 0
		return
	}
	n := len(v.Outputs())
	switch {
	case n == 0:
		m.output = 0
	case m.output < 0:
		m.output = n - 1
	case m.output >= n:
		m.output = 0
	}
}

func (m *editorModel) doSave() {
	doc := m.ctrl.Save()
	if err := m.save(doc); err != nil {
		m.setError(err)
		return
	}
	m.saved = true
	m.setStatus("saved %d nodes to %s", len(doc.Nodes), m.path)
}

func (m *editorModel) setStatus(format string, args ...any) {
	m.status, m.statusErr = fmt.Sprintf(format, args...), false
}

func (m *editorModel) setError(err error) {
	m.status, m.statusErr = err.Error(), true
}

func pointName(p *view.ConnectionPoint) string {
	if p.Option() == dialogue.NoOption {
		return fmt.Sprintf("node %d", p.NodeID())
	}
	return fmt.Sprintf("node %d option %d", p.NodeID(), p.Option())
}

// =============================================================================
// View
// =============================================================================

func (m *editorModel) canvasRows() int {
	if r := m.height - 3; r > 5 {
		return r
	}
	return 5
}

func (m *editorModel) cell(p view.Point) (int, int) {
	return int((p.X - m.origin.X) / cellW), int((p.Y - m.origin.Y) / cellH)
}

func boxHeight(v *view.NodeView) int {
	return 3 + max(len(v.Outputs())-1, 0)
}

type canvas struct {
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", w))
	}
	return c
}

func (c *canvas) set(col, row int, r rune) {
	if row >= 0 && row < len(c.cells) && col >= 0 && col < len(c.cells[row]) {
		c.cells[row][col] = r
	}
}

func (c *canvas) text(col, row int, s string) {
	for i, r := range []rune(s) {
		c.set(col+i, row, r)
	}
}

func (c *canvas) String() string {
	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

// outputAnchor is the cell right of output i of a box at col,row.
func outputAnchor(col, row, i int) view.Point {
	return view.Point{X: float64(col + boxWidth), Y: float64(row + 1 + i)}
}

func (m *editorModel) View() string {
	cv := newCanvas(m.width, m.canvasRows())

	// Draw from the attached set so retiring views stay visible until the
	// renderer detaches them.
	nodes := make(map[int]*view.NodeView)
	var edges []*view.EdgeView
	for el := range m.attached {
		switch v := el.(type) {
		case *view.NodeView:
			nodes[v.NodeID()] = v
		case *view.EdgeView:
			edges = append(edges, v)
		}
	}
	for _, e := range edges {
		m.drawEdge(cv, e, nodes)
	}
	for _, v := range nodes {
		col, row := m.cell(v.Position)
		m.drawNode(cv, v, col, row)
	}
	cc, cr := m.cell(m.cursor)
	cv.set(cc, cr, '+')

	var b strings.Builder
	title := fmt.Sprintf("%s  %d nodes · %d edges", m.path, m.ctrl.Graph().NodeCount(), m.ctrl.Graph().EdgeCount())
	if m.ctrl.Dirty() {
		title += " · modified"
	}
	b.WriteString(tuiHeaderStyle.Render(title))
	b.WriteString("\n")

	body := cv.String()
	if m.menuOpen {
		body = lipgloss.Place(m.width, m.canvasRows(), lipgloss.Center, lipgloss.Center, m.menuView())
	}
	b.WriteString(body)
	b.WriteString("\n")

	switch {
	case m.editing:
		b.WriteString(tuiStatusStyle.Render(fmt.Sprintf("text of node %d: %s█", m.selected, string(m.input))))
	case m.statusErr:
		b.WriteString(tuiErrorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(tuiStatusStyle.Render(m.status))
	case m.dragging:
		b.WriteString(tuiStatusStyle.Render(fmt.Sprintf("dragging node %d, m or esc to drop", m.selected)))
	}
	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render(tuiHelp))
	return b.String()
}

func (m *editorModel) drawEdge(cv *canvas, e *view.EdgeView, nodes map[int]*view.NodeView) {
	sv, ok := nodes[e.Edge.Source]
	if !ok {
		return
	}
	tv, ok := nodes[e.Edge.Target]
	if !ok {
		return
	}
	idx := 0
	for i, out := range sv.Outputs() {
		if out == e.Source {
			idx = i
		}
	}
	sc, sr := m.cell(sv.Position)
	tc, tr := m.cell(tv.Position)
	from := outputAnchor(sc, sr, idx)
	to := view.Point{X: float64(tc - 1), Y: float64(tr + 1)}

	mark := '·'
	if m.fading[e] {
		mark = '░'
	}
	const samples = 48
	for i := 0; i <= samples; i++ {
		p := view.CurvePoint(from, to, float64(i)/samples)
		cv.set(int(p.X+0.5), int(p.Y+0.5), mark)
	}
	cv.set(int(to.X), int(to.Y), '▸')
}

func (m *editorModel) drawNode(cv *canvas, v *view.NodeView, col, row int) {
	n, ok := m.ctrl.Graph().Node(v.NodeID())
	h := boxHeight(v)

	tl, tr, bl, br, hz, vt := '╭', '╮', '╰', '╯', '─', '│'
	switch {
	case m.fading[v]:
		tl, tr, bl, br, hz, vt = '░', '░', '░', '░', '░', '░'
	case v.NodeID() == m.selected:
		tl, tr, bl, br, hz, vt = '╔', '╗', '╚', '╝', '═', '║'
	}
	cv.set(col, row, tl)
	cv.set(col+boxWidth-1, row, tr)
	cv.set(col, row+h-1, bl)
	cv.set(col+boxWidth-1, row+h-1, br)
	for x := col + 1; x < col+boxWidth-1; x++ {
		cv.set(x, row, hz)
		cv.set(x, row+h-1, hz)
	}
	for y := row + 1; y < row+h-1; y++ {
		cv.set(col, y, vt)
		cv.set(col+boxWidth-1, y, vt)
	}
	cv.text(col+2, row, fmt.Sprintf(" %d %s ", v.NodeID(), v.Type))

	if in := v.Input(); in != nil {
		cv.set(col-1, row+1, slotRune(in))
	}
	for i, out := range v.Outputs() {
		label := ""
		if ok {
			if opt, found := n.Option(out.Option()); found {
				label = opt.Text
			} else if i == 0 {
				label = n.Text
			}
		}
		cv.text(col+2, row+1+i, summarize(label, boxWidth-4))
		r := slotRune(out)
		if out == m.ctrl.Pending() {
			r = '◆'
		} else if v.NodeID() == m.selected && i == m.output {
			r = '▶'
		}
		cv.set(col+boxWidth, row+1+i, r)
	}
	if len(v.Outputs()) == 0 && ok {
		cv.text(col+2, row+1, summarize(n.Text, boxWidth-4))
	}
}

func slotRune(p *view.ConnectionPoint) rune {
	if p.IsConnected() {
		return '●'
	}
	return '○'
}

func (m *editorModel) menuView() string {
	var b strings.Builder
	for i, item := range m.menu {
		if i == m.menuCursor {
			b.WriteString(tuiMenuCursor.Render("▸ " + item.label))
		} else {
			b.WriteString("  " + item.label)
		}
		if i < len(m.menu)-1 {
			b.WriteString("\n")
		}
	}
	return tuiMenuStyle.Render(b.String())
}

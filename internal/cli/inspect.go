package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenebox/pkg/core/relative"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/pipeline"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// inspectCommand creates the interactive inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags sceneFlags

	cmd := &cobra.Command{
		Use:   "inspect [scene]",
		Short: "Browse the nodes of a solved scene interactively",
		Long: `Browse the nodes of a solved scene interactively.

For every child of a relative container the view shows its incoming
relations, its symbolic box in terms of the container's x, y, w and h, and
the final pixel placement.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), opts, flags.noCache)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	loaded, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	layout, _, err := runner.LayoutWithCacheInfo(ctx, loaded.Scene, loaded.SceneHash, opts)
	if err != nil {
		return err
	}

	m := newInspectModel(loaded.Scene, layout)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if fm, ok := final.(inspectModel); ok && fm.cursor < len(fm.entries) {
		printInfo("Last selected: %s", fm.entries[fm.cursor].ID)
	}
	return nil
}

// =============================================================================
// Entries
// =============================================================================

// inspectEntry is one row of the inspector.
type inspectEntry struct {
	ID        string
	Kind      string
	Depth     int
	Parent    string
	Placement *pkgio.Placement
	Pruned    bool
	Symbolic  string   // box of a relative child, e.g. "(x, 10 + y) to (20 + x, 15 + y)"
	Relations []string // incoming relations, e.g. "below a"
}

// relativeInfo is what a relative container knows about one child.
type relativeInfo struct {
	parent    string
	symbolic  string
	relations []string
}

// inspectEntries lists every node of s in tree order, joined with its
// placement in l.
func inspectEntries(s *scene.Scene, l *pkgio.Layout) []inspectEntry {
	placements := make(map[string]*pkgio.Placement, len(l.Nodes))
	for i := range l.Nodes {
		placements[l.Nodes[i].ID] = &l.Nodes[i]
	}
	pruned := make(map[string]bool, len(l.Pruned))
	for _, id := range l.Pruned {
		pruned[id] = true
	}

	root := s.Root()
	if root == nil {
		return nil
	}
	info := make(map[scene.Object]relativeInfo)
	_ = scene.Walk(root, func(o scene.Object, _ int) error {
		if r, ok := o.(*scene.Relative); ok {
			describeRelative(s, r, info)
		}
		return nil
	})

	var entries []inspectEntry
	_ = scene.Walk(root, func(o scene.Object, depth int) error {
		id := s.ID(o)
		e := inspectEntry{
			ID:        id,
			Kind:      scene.Kind(o),
			Depth:     depth,
			Placement: placements[id],
			Pruned:    pruned[id],
		}
		if ri, ok := info[o]; ok {
			e.Parent, e.Symbolic, e.Relations = ri.parent, ri.symbolic, ri.relations
		} else if p := placements[id]; p != nil {
			e.Parent = p.Parent
		}
		entries = append(entries, e)
		return nil
	})
	return entries
}

// describeRelative records the symbolic box and incoming relations of every
// child of r.
func describeRelative(s *scene.Scene, r *scene.Relative, out map[scene.Object]relativeInfo) {
	c := r.Container()
	boxes, _, err := c.Boxes()
	name := s.ID(r)
	for _, it := range c.Children() {
		o, ok := it.(scene.Object)
		if !ok {
			continue
		}
		nid, _ := c.ID(it)
		ri := relativeInfo{parent: name, symbolic: "unresolved"}
		if b, ok := boxes[nid]; ok && err == nil {
			ri.symbolic = fmt.Sprintf("(%s, %s) to (%s, %s)", b.X1(), b.Y1(), b.X2(), b.Y2())
		}
		for _, e := range c.Graph().InEdges(nid) {
			target := pkgio.ContainerID
			if e.From != relative.Root {
				from, _ := c.Item(e.From)
				target = s.ID(from)
			}
			ri.relations = append(ri.relations, e.Label.String()+" "+target)
		}
		out[o] = ri
	}
}

// =============================================================================
// inspectModel - bubbletea model
// =============================================================================

type inspectModel struct {
	title   string
	width   int
	height  int
	entries []inspectEntry
	cursor  int
	offset  int
	rows    int // visible list rows
}

func newInspectModel(s *scene.Scene, l *pkgio.Layout) inspectModel {
	title := s.Name
	if title == "" {
		title = "scene"
	}
	return inspectModel{
		title:   fmt.Sprintf("%s  %dx%d", title, l.Width, l.Height),
		entries: inspectEntries(s, l),
		rows:    15,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.rows)
		case "pgdown":
			m.move(m.rows)
		case "home", "g":
			m.move(-len(m.entries))
		case "end", "G":
			m.move(len(m.entries))
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.rows = max(msg.Height-6, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta and keeps it inside the visible window.
func (m *inspectModel) move(delta int) {
	if len(m.entries) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.rows {
		m.offset = m.cursor - m.rows + 1
	}
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(listDimStyle.Render("empty scene"))
		return b.String()
	}

	end := min(m.offset+m.rows, len(m.entries))
	var list strings.Builder
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", e.Depth), e.ID, listDimStyle.Render(e.Kind))
		switch {
		case i == m.cursor:
			list.WriteString(listSelectedStyle.Render(line))
		case e.Pruned:
			list.WriteString(stylePruned.Render(line))
		default:
			list.WriteString(listNormalStyle.Render(line))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(32).Render(list.String()),
		detailBoxStyle.Render(m.entries[m.cursor].detail()),
	))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))
	return b.String()
}

// detail renders the right-hand pane for e.
func (e inspectEntry) detail() string {
	var b strings.Builder
	row := func(key, value string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(10).Render(key))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}

	row("id", e.ID)
	row("kind", e.Kind)
	if e.Parent != "" {
		row("parent", e.Parent)
	}
	switch {
	case e.Pruned:
		row("position", StyleWarning.Render("pruned (strict)"))
	case e.Placement != nil:
		p := e.Placement
		row("position", fmt.Sprintf("%d, %d", p.X, p.Y))
		row("size", fmt.Sprintf("%dx%d", p.Width, p.Height))
	}
	if e.Symbolic != "" {
		row("symbolic", e.Symbolic)
	}
	for i, r := range e.Relations {
		key := ""
		if i == 0 {
			key = "relations"
		}
		row(key, r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
)

// newCommand creates the "new" command, which writes a scaffold dialogue.
func (c *CLI) newCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create a dialogue file with START -> TEXT -> END",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
			}
			ctrl := editor.NewSession(c.editorOptions())
			defer ctrl.Close()
			if err := graph.WriteFile(ctrl.Save(), path); err != nil {
				return err
			}
			printSuccess("Created %s", path)
			printNextStep("Edit it", appName+" edit "+path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// editorOptions returns controller options from the configuration.
func (c *CLI) editorOptions() editor.Options {
	fallback := c.cfg().Editor.Fallback()
	return editor.Options{Fallback: &fallback, Logger: c.Logger}
}

// inspectCommand creates the "inspect" command, which validates a dialogue
// file and prints its nodes and edges.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a dialogue file and list its nodes and edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := graph.FromSerializable(doc)
			if err != nil {
				return err
			}
			printInspect(g, doc)
			return nil
		},
	}
}

func printInspect(g *dialogue.Graph, doc graph.Document) {
	fmt.Println(styleTitle.Render("Nodes"))
	rows := make([][]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		p := doc.PositionOf(n.ID(), graph.Position{})
		rows = append(rows, []string{
			strconv.Itoa(n.ID()),
			n.Type.String(),
			summarize(n.Text, 40),
			optionList(n),
			fmt.Sprintf("%.0f,%.0f", p.X, p.Y),
		})
	}
	fmt.Println(renderTable([]string{"ID", "Type", "Text", "Options", "Position"}, rows))

	fmt.Println(styleTitle.Render("Edges"))
	for _, e := range g.Edges() {
		fmt.Println("  " + styleValue.Render(e.String()))
	}
	if g.EdgeCount() == 0 {
		printDetail("none")
	}

	printNewline()
	printKeyValue("Nodes", strconv.Itoa(g.NodeCount()))
	printKeyValue("Edges", strconv.Itoa(g.EdgeCount()))
	if unreachable := unreachableNodes(g); len(unreachable) > 0 {
		printWarning("Unreachable from START: %v", unreachable)
	}
	if open := openOutputs(g); len(open) > 0 {
		printWarning("Unconnected outputs: %s", strings.Join(open, ", "))
	}
}

func optionList(n *dialogue.Node) string {
	if len(n.Options) == 0 {
		return ""
	}
	parts := make([]string, len(n.Options))
	for i, o := range n.Options {
		parts[i] = fmt.Sprintf("%d:%s", o.ID, summarize(o.Text, 12))
	}
	return strings.Join(parts, " ")
}

func summarize(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// unreachableNodes lists nodes no path from START reaches.
func unreachableNodes(g *dialogue.Graph) []int {
	start, ok := g.Start()
	if !ok {
		return nil
	}
	seen := map[int]bool{start.ID(): true}
	queue := []int{start.ID()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	var out []int
	for _, n := range g.Nodes() {
		if !seen[n.ID()] {
			out = append(out, n.ID())
		}
	}
	return out
}

// openOutputs lists output slots without an edge, e.g. "2" or "4[1]".
func openOutputs(g *dialogue.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		for _, opt := range n.Outputs() {
			if _, ok := g.OutputEdge(n.ID(), opt); ok {
				continue
			}
			if opt == dialogue.NoOption {
				out = append(out, strconv.Itoa(n.ID()))
			} else {
				out = append(out, fmt.Sprintf("%d[%d]", n.ID(), opt))
			}
		}
	}
	return out
}

package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
)

// editCommand creates the edit command, which opens a dialogue file in the
// terminal editor. A missing file starts from the scaffold.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a dialogue in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			m := newEditorModel(path, c.editorOptions(), func(doc graph.Document) error {
				return graph.WriteFile(doc, path)
			})
			defer m.ctrl.Close()

			if _, err := os.Stat(path); err == nil {
				doc, err := graph.ReadFile(path)
				if err != nil {
					return err
				}
				if err := m.ctrl.Load(doc); err != nil {
					return err
				}
			} else {
				m.ctrl.Scaffold()
				printInfo("New dialogue %s", path)
			}

			observability.SetEditorHooks(m.hooks())
			defer observability.SetEditorHooks(observability.NoopEditorHooks{})

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return err
			}

			switch {
			case m.ctrl.Dirty():
				printWarning("Discarded unsaved changes to %s", path)
			case m.saved:
				printSuccess("Saved %s", path)
			}
			return nil
		},
	}
}

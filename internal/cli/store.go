package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/session"
)

// storeCommand creates the store command, which moves dialogues between
// files and the configured store.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage saved dialogues in the configured store",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

// withStore opens the store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(session.Store) error) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved dialogues",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				items, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					printInfo("No saved dialogues")
					return nil
				}
				rows := make([][]string, len(items))
				for i, s := range items {
					rows[i] = []string{s.ID, s.Name, strconv.Itoa(s.Nodes), formatRelativeTime(s.UpdatedAt)}
				}
				fmt.Println(renderTable([]string{"ID", "Name", "Nodes", "Updated"}, rows))
				return nil
			})
		},
	}
}

func (c *CLI) storePushCommand() *cobra.Command {
	var name, id string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Save a dialogue file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := graph.Validate(doc); err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			return c.withStore(cmd.Context(), func(store session.Store) error {
				sess, err := c.pushTarget(cmd.Context(), store, id, name)
				if err != nil {
					return err
				}
				sess.Name = name
				sess.Document = doc
				if err := store.Put(cmd.Context(), sess); err != nil {
					return err
				}
				printSuccess("Saved %s", styleHighlight.Render(sess.Name))
				printKeyValue("ID", sess.ID)
				printKeyValue("Backend", c.cfg().Store.Backend)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dialogue name (default: file name)")
	cmd.Flags().StringVar(&id, "id", "", "replace the dialogue with this ID instead of creating one")
	return cmd
}

// pushTarget returns the stored dialogue to replace, or a new one.
func (c *CLI) pushTarget(ctx context.Context, store session.Store, id, name string) (*session.Session, error) {
	if id == "" {
		return session.New(name, graph.Document{})
	}
	sess, err := store.Get(ctx, id)
	if errors.Is(err, errors.ErrCodeSessionNotFound) {
		return &session.Session{ID: id}, nil
	}
	return sess, err
}

func (c *CLI) storePullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "pull <id>",
		Short:             "Write a saved dialogue to a file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStoredIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = sess.ID + ".json"
				}
				if err := graph.WriteFile(sess.Document, path); err != nil {
					return err
				}
				printSuccess("Pulled %s", styleHighlight.Render(sess.Name))
				printFile(path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")
	return cmd
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>",
		Short:             "Delete a saved dialogue",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStoredIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

// formatRelativeTime renders t relative to now for listings.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

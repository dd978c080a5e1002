package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands",
	}

	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsSetCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsImportCmd(app))
	cmd.AddCommand(newItemsClearCmd(app))

	return cmd
}

// itemRows is the list payload; it renders as JSON or as a table.
type itemRows struct {
	Data []itemView `json:"data"`
	Meta listMeta   `json:"meta"`

	now time.Time
}

type itemView struct {
	model.Item
	Status inventory.StatusTier `json:"status"`
}

type listMeta struct {
	Total    int    `json:"total"`
	Shown    int    `json:"shown"`
	Search   string `json:"search,omitempty"`
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Critical int    `json:"critical"`
	Low      int    `json:"low"`
}

func (r itemRows) Header() []string {
	return []string{"ID", "Name", "Type", "Value", "Status", "Updated"}
}

func (r itemRows) Rows() [][]string {
	out := make([][]string, 0, len(r.Data))
	for _, v := range r.Data {
		out = append(out, []string{
			v.ID,
			v.Name,
			v.Type.Label(),
			displayValue(v.Item),
			v.Status.Label(),
			humanize.RelTime(v.UpdatedAt, r.now, "ago", "from now"),
		})
	}
	return out
}

func displayValue(it model.Item) string {
	if it.Type == model.ItemTypePercentage {
		return strconv.Itoa(it.Value) + "%"
	}
	return strconv.Itoa(it.Value)
}

func newItemsListCmd(app *App) *cobra.Command {
	var search string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items (optionally filtered by name and status)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := inventory.ParseStatusFilter(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := openRepository(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := repo.GetAll(commandContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}

			shown := inventory.Query{Search: search, Status: sf}.Apply(items)
			rows := itemRows{
				Data: make([]itemView, 0, len(shown)),
				Meta: listMeta{Total: len(items), Shown: len(shown), Search: search, Status: string(sf), Backend: repo.Describe()},
				now:  time.Now(),
			}
			for _, it := range items {
				switch inventory.ClassifyItem(it) {
				case inventory.TierCritical:
					rows.Meta.Critical++
				case inventory.TierLow:
					rows.Meta.Low++
				}
			}
			for _, it := range shown {
				rows.Data = append(rows.Data, itemView{Item: it, Status: inventory.ClassifyItem(it)})
			}
			return writeOut(cmd, app, rows)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case/diacritic-insensitive name filter")
	cmd.Flags().StringVar(&status, "status", "all", "Status filter (all|critical|low|ok)")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			repo, err := openRepository(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := repo.GetAll(commandContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, it := range items {
				if it.ID == id {
					return writeOut(cmd, app, map[string]any{"data": itemView{Item: it, Status: inventory.ClassifyItem(it)}})
				}
			}
			return writeErr(cmd, errNotFound("item", id))
		},
	}
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var name string
	var typ string
	var value int
	var notes string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := model.ParseItemType(strings.TrimSpace(typ))
			if !ok {
				return writeErr(cmd, fmt.Errorf("invalid --type %q (want qty|pct)", typ))
			}
			ctx := commandContext(cmd)
			es, _, err := openEditStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer es.Close()

			it, err := es.AddItem(ctx, name, t, value, notes)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": itemView{Item: it, Status: inventory.ClassifyItem(it)}})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Item name (required, unique)")
	cmd.Flags().StringVar(&typ, "type", "qty", "Item type (qty|pct)")
	cmd.Flags().IntVar(&value, "value", 0, "Initial value (qty 0-9999, pct 0-100)")
	cmd.Flags().StringVar(&notes, "notes", "", "Optional notes")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newItemsSetCmd(app *App) *cobra.Command {
	var delta bool

	cmd := &cobra.Command{
		Use:   "set <item-id> <value>",
		Short: "Set an item's value (clamped to its range) and save",
		Example: strings.TrimSpace(`
  rehabinv items set item-ab12cd34 12
  rehabinv items set --delta item-ab12cd34 -- -2
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid value %q: %w", args[1], err))
			}

			ctx := commandContext(cmd)
			es, _, err := openEditStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer es.Close()

			before, ok := es.Item(id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			if delta {
				es.Step(id, n)
			} else {
				es.Mutate(id, n)
			}
			saved, err := es.Save(ctx)
			if err != nil {
				return writeErr(cmd, describeSaveError(err))
			}
			after, _ := es.Item(id)
			return writeOut(cmd, app, map[string]any{
				"data": itemView{Item: after, Status: inventory.ClassifyItem(after)},
				"meta": map[string]any{"previousValue": before.Value, "changed": saved > 0},
			})
		},
	}

	cmd.Flags().BoolVar(&delta, "delta", false, "Treat <value> as a relative step")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			ctx := commandContext(cmd)
			es, _, err := openEditStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer es.Close()

			it, ok := es.Item(id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			if err := es.DeleteItem(ctx, id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": it.ID, "name": it.Name}})
		},
	}
	return cmd
}

type replacer interface {
	ReplaceAll(ctx context.Context, items []model.Item) error
}

func newItemsImportCmd(app *App) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import items from a JSON array (ids kept; existing ids overwritten)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := store.ParseItemsJSON(b)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("parse %s: %w", args[0], err))
			}
			if len(items) == 0 {
				return writeErr(cmd, errors.New("no valid items in file"))
			}

			repo, err := openRepository(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := commandContext(cmd)
			if r, ok := repo.(replacer); ok && replace {
				// Local storage swaps the collection in one transaction.
				if err := r.ReplaceAll(ctx, items); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"imported": len(items), "replaced": true}})
			}
			if replace {
				if err := repo.Clear(ctx); err != nil {
					return writeErr(cmd, err)
				}
			}
			saved, err := repo.UpsertAll(ctx, items)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"imported": len(saved), "replaced": replace}})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete all existing items first")
	return cmd
}

func newItemsClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, confirmRequiredError{action: "delete every item"})
			}
			repo, err := openRepository(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := repo.Clear(commandContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"cleared": true}})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every item")
	return cmd
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rehabinv-cli/internal/export"
	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	var search string
	var status string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items as CSV (stdout, a file, or a directory)",
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
			items = inventory.Query{Search: search, Status: sf}.Apply(items)

			if strings.TrimSpace(out) == "" {
				return export.WriteCSV(cmd.OutOrStdout(), items)
			}

			path := exportPath(out, time.Now())
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, items); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteFileAtomic(path, buf.Bytes()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": path, "count": len(items)}})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file, or a directory (trailing / or existing) to use the timestamped name")
	cmd.Flags().StringVar(&search, "search", "", "Only export items whose name matches")
	cmd.Flags().StringVar(&status, "status", "all", "Only export items with this status (all|critical|low|ok)")
	return cmd
}

func exportPath(out string, now time.Time) string {
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(os.PathSeparator)) {
		return filepath.Join(out, export.Filename(now))
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, export.Filename(now))
	}
	return out
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photocull/internal/cull"
)

var (
	historyCollection string
	historyDir        string
	restoreRecord     int
	restoreAll        bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and undo past culls",
	Long: `Every cull that moves files writes a record to a history log in the
target folder. 'history list' shows those records and 'history restore'
moves the files back where they came from.

Records for permanently deleted files are shown but cannot be restored.

Example:
  photocull history list
  photocull history restore --record 3
  photocull history restore --all`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cull history records",
	RunE:  runHistoryList,
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Move culled files back to their original locations",
	RunE:  runHistoryRestore,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyCollection, "collection", "", "Collection source folder (optional when only one exists)")
	historyCmd.PersistentFlags().StringVar(&historyDir, "dir", "", "Cull target folder holding the history log (default: collection output folder)")
	historyRestoreCmd.Flags().IntVar(&restoreRecord, "record", 0, "Restore a single record by number from 'history list'")
	historyRestoreCmd.Flags().BoolVar(&restoreAll, "all", false, "Restore every restorable record")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRestoreCmd)
	rootCmd.AddCommand(historyCmd)
}

// resolveHistoryDir finds the folder holding the history log: --dir wins,
// otherwise the collection's output folder.
func resolveHistoryDir() (string, error) {
	if historyDir != "" {
		return filepath.Abs(historyDir)
	}

	store, err := openStorage()
	if err != nil {
		return "", err
	}
	defer store.Close()

	coll, err := resolveCollection(store, historyCollection)
	if err != nil {
		return "", err
	}
	return coll.OutputPath, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	dir, err := resolveHistoryDir()
	if err != nil {
		return err
	}

	ledger := cull.NewLedger(dir, logger)
	records, err := ledger.Records()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No cull history in %s\n", dir)
		return nil
	}

	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			humanize.Time(rec.Timestamp),
			string(rec.Action),
			fmt.Sprintf("%d", len(rec.Culled)),
			filepath.Base(rec.Retained),
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "When", "Action", "Culled", "Kept"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))

	fmt.Println()
	fmt.Println("Run 'photocull history restore --record <#>' to undo one cull")
	fmt.Println("Run 'photocull history restore --all' to undo everything")
	return nil
}

func runHistoryRestore(cmd *cobra.Command, args []string) error {
	if restoreAll == (restoreRecord > 0) {
		return fmt.Errorf("pick exactly one of --record or --all")
	}

	dir, err := resolveHistoryDir()
	if err != nil {
		return err
	}

	ledger := cull.NewLedger(dir, logger)

	var stats cull.RestoreStats
	if restoreAll {
		stats, err = ledger.RestoreAll(dir)
	} else {
		stats, err = ledger.Restore(dir, restoreRecord-1)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Restored %d files\n", stats.Restored)
	if stats.Skipped > 0 {
		fmt.Printf("Skipped %d files (missing or already in place, see log)\n", stats.Skipped)
	}
	fmt.Printf("Cleared %d history record(s)\n", stats.Removed)
	return nil
}

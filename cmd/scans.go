package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var scansCollection string

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List past scans of a collection",
	RunE:  runScans,
}

func init() {
	scansCmd.Flags().StringVar(&scansCollection, "collection", "", "Collection source folder (optional when only one exists)")
	rootCmd.AddCommand(scansCmd)
}

func runScans(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	coll, err := resolveCollection(store, scansCollection)
	if err != nil {
		return err
	}

	records, err := store.ScanHistory(coll.ID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No scans recorded for %s\n", coll.SourcePath)
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			humanize.Time(r.ScannedAt),
			fmt.Sprintf("%d", r.TotalAssets),
			fmt.Sprintf("%d", r.TotalGroups),
			fmt.Sprintf("%d", r.TotalDuplicates),
		})
	}
	fmt.Println(renderTable(
		[]string{"When", "Photos", "Groups", "Duplicates"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

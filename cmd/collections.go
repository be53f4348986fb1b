package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List cataloged collections",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	colls, err := store.ListCollections()
	if err != nil {
		return err
	}
	if len(colls) == 0 {
		fmt.Println("Catalog is empty. Run 'photocull scan <folder>' to get started.")
		return nil
	}

	rows := make([][]string, 0, len(colls))
	for _, c := range colls {
		assets, err := store.GetAssetsByCollection(c.ID)
		if err != nil {
			return err
		}
		groups, err := store.GetGroups(c.ID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			c.Name,
			c.SourcePath,
			fmt.Sprintf("%d", len(assets)),
			fmt.Sprintf("%d", len(groups)),
			humanize.Time(c.UpdatedAt),
		})
	}

	fmt.Println(renderTable(
		[]string{"Name", "Source", "Photos", "Groups", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}

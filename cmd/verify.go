package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photocull/internal/scan"
)

var verifyCollection string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check cataloged photos against the files on disk",
	Long: `Re-hash every cataloged photo and compare against the stored content
hash. Reports files that are missing or whose bytes changed since the
last scan.

Example:
  photocull verify
  photocull verify --collection ./photos`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyCollection, "collection", "", "Collection source folder (optional when only one exists)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	coll, err := resolveCollection(store, verifyCollection)
	if err != nil {
		return err
	}

	assets, err := store.GetAssetsByCollection(coll.ID)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	if len(assets) == 0 {
		fmt.Println("Catalog holds no photos for this collection.")
		return nil
	}

	var ok, missing, changed int
	for _, a := range assets {
		if _, err := os.Stat(a.Path); err != nil {
			fmt.Printf("  missing  %s\n", a.Path)
			missing++
			continue
		}
		match, err := scan.VerifyAsset(a)
		if err != nil {
			fmt.Printf("  unreadable  %s (%v)\n", a.Path, err)
			missing++
			continue
		}
		if !match {
			fmt.Printf("  changed  %s\n", a.Path)
			changed++
			continue
		}
		ok++
	}

	fmt.Println()
	fmt.Printf("Verified %d photos: %d ok, %d changed, %d missing or unreadable\n",
		len(assets), ok, changed, missing)
	if changed+missing > 0 {
		fmt.Println("Run 'photocull scan' again to refresh the catalog.")
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photocull/internal/catalog"
	"photocull/internal/storage"
)

var (
	decideKeep   bool
	decideRemove bool
	decideClear  bool
	decideNote   string
)

var decideCmd = &cobra.Command{
	Use:   "decide <asset-id>",
	Short: "Override the suggested keeper for a photo",
	Long: `Record an explicit keep or remove decision for one photo.

Decisions override the strategy on the next cull: a photo marked keep is
never culled, a photo marked remove always is. Asset ids are shown by
'photocull list -v --json'; a unique id prefix is enough.

Example:
  photocull decide ast_1a2b3c --keep
  photocull decide ast_1a2b3c --remove --note "out of focus"
  photocull decide ast_1a2b3c --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().BoolVar(&decideKeep, "keep", false, "Always keep this photo")
	decideCmd.Flags().BoolVar(&decideRemove, "remove", false, "Always cull this photo")
	decideCmd.Flags().BoolVar(&decideClear, "clear", false, "Drop the decision and fall back to the strategy")
	decideCmd.Flags().StringVar(&decideNote, "note", "", "Free-form note stored with the decision")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	set := 0
	for _, b := range []bool{decideKeep, decideRemove, decideClear} {
		if b {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("pick exactly one of --keep, --remove, or --clear")
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	asset, err := store.FindAssetByPrefix(args[0])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no asset with id %s", args[0])
		}
		return err
	}

	if decideClear {
		if err := store.DeleteDecision(asset.ID); err != nil {
			return fmt.Errorf("failed to clear decision: %w", err)
		}
		fmt.Printf("Cleared decision for %s\n", asset.Path)
		return nil
	}

	state := catalog.StateKeep
	reason := catalog.ReasonUserOverrideKeep
	if decideRemove {
		state = catalog.StateRemove
		reason = catalog.ReasonUserOverrideRemove
	}

	err = store.UpsertDecision(catalog.Decision{
		AssetID:   asset.ID,
		State:     state,
		Reason:    reason,
		Note:      decideNote,
		DecidedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	fmt.Printf("Marked %s as %s\n", asset.Path, state)
	return nil
}

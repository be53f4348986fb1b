package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photocull/internal/catalog"
	"photocull/internal/cull"
	"photocull/internal/match"
)

var (
	cullCollection string
	cullDryRun     bool
	cullDelete     bool
	cullTargetDir  string
	cullNoConfirm  bool
	cullGroupIDs   []string
)

var cullCmd = &cobra.Command{
	Use:   "cull",
	Short: "Move or delete duplicate photos",
	Long: `Cull duplicate photos, keeping one member of each group.

By default duplicates are MOVED to the collection's output folder and a
history record is written, so the cull can be undone with
'photocull history restore'. Deleting is permanent and irreversible.

The keeper is chosen by strategy (oldest by default); an explicit
'photocull decide' overrides the suggestion for that file.

Options:
  --dry-run     Preview without touching any file
  --delete      Delete permanently instead of moving (not restorable)
  --target-dir  Move duplicates somewhere other than the output folder
  --yes         Skip confirmation prompt
  --group       Cull only these groups (id prefixes from 'photocull list')

Example:
  photocull cull --dry-run
  photocull cull
  photocull cull --strategy largest --yes
  photocull cull --group grp_1a2b --group grp_3c4d`,
	RunE: runCull,
}

func init() {
	cullCmd.Flags().StringVar(&cullCollection, "collection", "", "Collection source folder (optional when only one exists)")
	cullCmd.Flags().BoolVar(&cullDryRun, "dry-run", false, "Preview without moving or deleting")
	cullCmd.Flags().BoolVar(&cullDelete, "delete", false, "Delete permanently instead of moving")
	cullCmd.Flags().StringVar(&cullTargetDir, "target-dir", "", "Move duplicates to this folder")
	cullCmd.Flags().BoolVarP(&cullNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	cullCmd.Flags().StringSliceVarP(&cullGroupIDs, "group", "g", nil, "Group ids to cull (can be specified multiple times)")
	rootCmd.AddCommand(cullCmd)
}

func runCull(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	coll, err := resolveCollection(store, cullCollection)
	if err != nil {
		return err
	}

	groups, err := store.GetGroups(coll.ID)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println("No duplicate groups found.")
		return nil
	}

	if len(cullGroupIDs) > 0 {
		groups = filterGroups(groups, cullGroupIDs)
		if len(groups) == 0 {
			fmt.Printf("No matching groups for ids: %v\n", cullGroupIDs)
			fmt.Println("Run 'photocull list' to see available groups.")
			return nil
		}
		fmt.Printf("Processing %d selected group(s)\n\n", len(groups))
	}

	keep, err := match.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	targetDir := cullTargetDir
	if targetDir == "" {
		targetDir = coll.OutputPath
	}

	mode := cull.ModeMove
	switch {
	case cullDryRun:
		mode = cull.ModeDryRun
	case cullDelete:
		mode = cull.ModeDelete
	}

	ledger := cull.NewLedger(targetDir, logger)
	culler := cull.NewCuller(targetDir, ledger,
		cull.WithDecisionRecorder(store),
		cull.WithDecisionSource(store),
		cull.WithCullLogger(logger),
	)

	toCull, totalSize := previewCull(culler, groups, keep)
	if toCull == 0 {
		fmt.Println("Nothing to cull (files may have been removed already).")
		return nil
	}

	action := fmt.Sprintf("move %d files to %s", toCull, targetDir)
	if cullDelete {
		action = fmt.Sprintf("permanently delete %d files", toCull)
	}
	fmt.Printf("Will %s (%s)\n\n", action, humanize.IBytes(totalSize))

	if mode == cull.ModeDryRun {
		printCullPlan(culler, groups, keep)
		fmt.Println("(Dry run - no files were modified)")
		return nil
	}

	if !cullNoConfirm && !cfg.AutoConfirm {
		if !confirm(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var succeeded, failed int
	var reclaimed uint64
	for _, g := range groups {
		outcome, err := culler.Cull(g, keep, mode)
		if err != nil {
			if errors.Is(err, cull.ErrCullInProgress) {
				return err
			}
			logger.Warn("skipping group", "group", g.ID, "error", err)
			continue
		}
		succeeded += outcome.Succeeded
		failed += outcome.Failed
		for _, op := range outcome.Ops {
			if op.Err != nil {
				continue
			}
			if a := findMember(g, op.Source); a != nil {
				reclaimed += uint64(a.Size)
				if cullDelete {
					// Deleted files are gone for good, drop the catalog row too.
					if err := store.DeleteAsset(a.ID); err != nil {
						logger.Warn("failed to drop catalog row", "asset", a.ID, "error", err)
					}
				}
			}
		}
	}

	fmt.Println()
	if cullDelete {
		fmt.Printf("Permanently deleted %d files\n", succeeded)
	} else {
		fmt.Printf("Moved %d files to %s\n", succeeded, targetDir)
		fmt.Println("Run 'photocull history restore --all' to undo")
	}
	if failed > 0 {
		fmt.Printf("Failed: %d files\n", failed)
	}
	fmt.Printf("Space reclaimed: %s\n", humanize.IBytes(reclaimed))

	return nil
}

// filterGroups keeps groups whose id matches any given id or id prefix, so
// the shortened ids shown by 'photocull list' work here.
func filterGroups(groups []*catalog.Group, ids []string) []*catalog.Group {
	var filtered []*catalog.Group
	for _, g := range groups {
		for _, id := range ids {
			if strings.HasPrefix(g.ID, id) {
				filtered = append(filtered, g)
				break
			}
		}
	}
	return filtered
}

// previewCull runs a dry-run pass to count the files a cull would touch,
// skipping files already gone from disk.
func previewCull(culler *cull.Culler, groups []*catalog.Group, keep match.Strategy) (int, uint64) {
	var count int
	var size uint64
	for _, g := range groups {
		outcome, err := culler.Cull(g, keep, cull.ModeDryRun)
		if err != nil {
			continue
		}
		for _, op := range outcome.Ops {
			if _, err := os.Stat(op.Source); err != nil {
				continue
			}
			count++
			if a := findMember(g, op.Source); a != nil {
				size += uint64(a.Size)
			}
		}
	}
	return count, size
}

func printCullPlan(culler *cull.Culler, groups []*catalog.Group, keep match.Strategy) {
	fmt.Println("Files to be culled:")
	for _, g := range groups {
		outcome, err := culler.Cull(g, keep, cull.ModeDryRun)
		if err != nil {
			continue
		}
		for _, op := range outcome.Ops {
			fmt.Printf("  %s\n", op.Source)
		}
	}
	fmt.Println()
}

func findMember(g *catalog.Group, path string) *catalog.Asset {
	for _, a := range g.Members {
		if a.Path == path {
			return a
		}
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

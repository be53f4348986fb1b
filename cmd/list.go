package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photocull/internal/catalog"
)

var (
	listCollection string
	listKind       string
	listJSON       bool
	listVerbose    bool
	listLimit      int
	listOffset     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List duplicate groups",
	Long: `Display the detected duplicate groups for a collection.

Each group shows its members, the suggested keeper (marked with a ✓),
and how much space culling the rest would reclaim.

Example:
  photocull list                   # First 10 groups
  photocull list -n 0              # All groups
  photocull list --kind near       # Only perceptual matches
  photocull list -v                # Per-member detail
  photocull list --json            # Machine-readable output`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listCollection, "collection", "", "Collection source folder (optional when only one exists)")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by group kind: exact, near, burst")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Show per-member detail")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	coll, err := resolveCollection(store, listCollection)
	if err != nil {
		return err
	}

	groups, err := store.GetGroups(coll.ID)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}

	if listKind != "" {
		want := catalog.GroupKind(strings.ToLower(listKind))
		filtered := groups[:0]
		for _, g := range groups {
			if g.Kind == want {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate groups found.")
		fmt.Println("Run 'photocull scan <folder>' to scan for duplicates.")
		return nil
	}

	totalDuplicates := 0
	var totalSavings uint64
	for _, g := range groups {
		for _, m := range g.Members {
			if m.ID != g.SuggestedKeep {
				totalDuplicates++
				totalSavings += uint64(m.Size)
			}
		}
	}

	fmt.Printf("Found %d duplicate groups (%d duplicates, %s reclaimable)\n\n",
		len(groups), totalDuplicates, humanize.IBytes(totalSavings))

	totalGroups := len(groups)
	startIdx := min(listOffset, totalGroups)
	groups = groups[startIdx:]
	if listLimit > 0 && listLimit < len(groups) {
		groups = groups[:listLimit]
	}

	if len(groups) == 0 {
		fmt.Printf("No groups in range (offset %d exceeds total %d)\n", listOffset, totalGroups)
		return nil
	}

	if listVerbose {
		for _, g := range groups {
			printGroup(g)
		}
	} else {
		printGroupTable(groups)
	}

	endIdx := startIdx + len(groups)
	fmt.Printf("\nShowing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
	if endIdx < totalGroups {
		fmt.Printf("Next page: photocull list -n %d --offset %d\n", listLimit, endIdx)
	}

	fmt.Println()
	fmt.Println("Run 'photocull cull --dry-run' to preview the cull")

	return nil
}

func printGroupTable(groups []*catalog.Group) {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		var reclaimable uint64
		keepName := ""
		for _, m := range g.Members {
			if m.ID == g.SuggestedKeep {
				keepName = filepath.Base(m.Path)
			} else {
				reclaimable += uint64(m.Size)
			}
		}
		rows = append(rows, []string{
			shortID(g.ID),
			string(g.Kind),
			fmt.Sprintf("%d", len(g.Members)),
			fmt.Sprintf("%.0f%%", g.Similarity*100),
			humanize.IBytes(reclaimable),
			keepName,
		})
	}
	fmt.Println(renderTable(
		[]string{"Group", "Kind", "Members", "Similarity", "Reclaimable", "Keep"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func printGroup(g *catalog.Group) {
	fmt.Printf("Group %s  [%s, %.0f%% similar, %d members]\n",
		shortID(g.ID), g.Kind, g.Similarity*100, len(g.Members))
	fmt.Println(strings.Repeat("-", 60))

	for _, m := range g.Members {
		marker := "✗"
		if m.ID == g.SuggestedKeep {
			marker = "✓"
		}
		fmt.Printf("  %s %s\n", marker, m.Path)
		detail := fmt.Sprintf("      %dx%d  %s", m.Width, m.Height, humanize.IBytes(uint64(m.Size)))
		if m.Exif != nil && m.Exif.Camera != "" {
			detail += "  " + m.Exif.Camera
		}
		if taken, ok := m.CaptureTime(); ok {
			detail += "  " + taken.Format("2006-01-02 15:04:05")
		}
		fmt.Println(detail)
	}
	fmt.Println()
}

// shortID trims uuid-based ids down to a usable prefix for display.
func shortID(id string) string {
	const prefixLen = 12
	if len(id) <= prefixLen {
		return id
	}
	return id[:prefixLen]
}

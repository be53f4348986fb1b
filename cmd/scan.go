package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photocull/internal/catalog"
	"photocull/internal/exifdata"
	"photocull/internal/match"
	"photocull/internal/scan"
	"photocull/internal/thumb"
)

var (
	scanExcludes  []string
	scanNoThumbs  bool
	scanBursts    bool
	scanOutputDir string
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder and detect duplicate photos",
	Long: `Scan a folder recursively, catalog every supported image, and detect
duplicates.

The scan runs in phases:
1. Quick scan    - index every file so the catalog is browsable immediately
2. Metadata      - dimensions and EXIF (camera, lens, capture time)
3. Thumbnails    - 512px previews, reused when still fresh
4. Hashing       - SHA-256 content hash and perceptual hash

Press Ctrl-C to stop; in-flight files finish and the scan exits cleanly
without touching the catalog.

Example:
  photocull scan ./photos
  photocull scan /path/to/images --threshold 5
  photocull scan ./shoot --exclude '*.xmp' --bursts`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanExcludes, "exclude", nil, "Glob patterns to skip (can be repeated)")
	scanCmd.Flags().BoolVar(&scanNoThumbs, "no-thumbnails", false, "Skip thumbnail generation")
	scanCmd.Flags().BoolVar(&scanBursts, "bursts", false, "Also group burst sequences (similar shots taken seconds apart)")
	scanCmd.Flags().StringVar(&scanOutputDir, "output-dir", "", "Where culled files go (default <folder>-culled)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	absFolder, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	outputDir := scanOutputDir
	if outputDir == "" {
		outputDir = absFolder + "-culled"
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	coll, err := store.EnsureCollection(filepath.Base(absFolder), absFolder, outputDir)
	if err != nil {
		return fmt.Errorf("failed to register collection: %w", err)
	}

	fmt.Printf("Scanning: %s\n", absFolder)
	fmt.Printf("Threshold: %d (Hamming distance)\n", cfg.Threshold)
	fmt.Printf("Workers: %d\n\n", cfg.Workers)

	opts := []scan.Option{
		scan.WithWorkers(cfg.Workers),
		scan.WithBatchSize(cfg.BatchSize),
		scan.WithExcludePatterns(append(append([]string{}, cfg.ExcludePatterns...), scanExcludes...)),
		scan.WithLogger(logger),
		scan.WithMetadataExtractor(scan.ExtractorFunc(exifdata.Extract)),
		scan.WithProgressSink(scan.SinkFunc(renderProgress)),
	}
	if len(cfg.FileTypes) > 0 {
		opts = append(opts, scan.WithFileTypes(cfg.FileTypes))
	}
	if !scanNoThumbs {
		thumbDir, err := resolvedThumbnailDir()
		if err != nil {
			return err
		}
		opts = append(opts, scan.WithThumbnailRenderer(thumb.NewRenderer(thumbDir)))
	}

	scanner := scan.NewScanner(opts...)

	// First Ctrl-C requests a graceful stop; a second one kills the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nStopping after in-flight items...")
		scanner.Token().Cancel()
	}()

	result, err := scanner.Scan(coll.ID, []string{absFolder})
	clearProgressLine()
	if err != nil {
		var cancelled *scan.CancelledError
		if errors.As(err, &cancelled) {
			fmt.Printf("Scan cancelled after %d files. Nothing was saved.\n", cancelled.Processed)
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Scanned: %d images in %s\n", len(result.Assets), result.Elapsed.Round(time.Millisecond))
	if f := result.MetadataFailures + result.ThumbnailFailures + result.HashFailures; f > 0 {
		fmt.Printf("Skipped %d items that could not be fully processed (see log)\n", f)
	}

	if len(result.Assets) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	if err := store.SaveAssets(result.Assets); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}

	fmt.Println("Finding duplicates...")
	keep, err := match.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	groups := match.NewExactMatcher(coll.ID, keep).FindGroups(result.Assets)
	remaining := match.ExcludeGrouped(result.Assets, groups)
	groups = append(groups, match.NewNearMatcher(coll.ID, keep, cfg.Threshold).FindGroups(remaining)...)
	if scanBursts {
		remaining = match.ExcludeGrouped(result.Assets, groups)
		groups = append(groups, match.NewBurstMatcher(coll.ID, keep, cfg.Threshold, match.DefaultBurstWindow).FindGroups(remaining)...)
	}

	if err := store.ReplaceGroups(coll.ID, groups); err != nil {
		return fmt.Errorf("failed to save groups: %w", err)
	}

	totalDuplicates := 0
	for _, g := range groups {
		totalDuplicates += len(g.Members) - 1
	}
	if err := store.RecordScan(coll.ID, len(result.Assets), len(groups), totalDuplicates); err != nil {
		logger.Warn("failed to record scan history", "error", err)
	}

	fmt.Println()
	fmt.Println("=== Scan Complete ===")
	fmt.Printf("Total images:     %d\n", len(result.Assets))
	fmt.Printf("Duplicate groups: %d\n", len(groups))
	fmt.Printf("Duplicates found: %d\n", totalDuplicates)

	if len(groups) > 0 {
		fmt.Println()
		fmt.Println("Run 'photocull list' to see duplicate groups")
		fmt.Println("Run 'photocull cull --dry-run' to preview the cull")
	}

	return nil
}

var lastProgressLine string

func renderProgress(p catalog.Progress) {
	clearProgressLine()

	shortPath := p.CurrentFile
	if len(shortPath) > 40 {
		shortPath = "..." + shortPath[len(shortPath)-37:]
	}

	line := fmt.Sprintf("[%s] %d/%d", p.Phase, p.FilesProcessed, p.TotalFiles)
	if p.EstimatedRemaining != nil {
		line += fmt.Sprintf("  ~%s left", p.EstimatedRemaining.Round(time.Second))
	}
	if shortPath != "" {
		line += "  " + shortPath
	}
	lastProgressLine = line
	fmt.Print(line)
}

func clearProgressLine() {
	if lastProgressLine != "" {
		fmt.Print("\r" + strings.Repeat(" ", len(lastProgressLine)) + "\r")
		lastProgressLine = ""
	}
}

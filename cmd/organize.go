package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediasort/internal"
)

var (
	targetFlag           string
	workersFlag          int
	ioWorkersFlag        int
	dryRunFlag           bool
	deleteDuplicatesFlag bool
	useExifToolFlag      bool
	verboseFlag          bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize [folder]",
	Short: "Organize media files from folder into date-named directories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		info, err := os.Stat(source)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", source)
		}

		conf, err := internal.LoadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("workers") {
			conf.Workers = workersFlag
		}
		if cmd.Flags().Changed("io-workers") {
			conf.IOWorkers = ioWorkersFlag
		}
		if cmd.Flags().Changed("delete-duplicates") {
			conf.DeleteDuplicates = deleteDuplicatesFlag
		}
		if cmd.Flags().Changed("exiftool") {
			conf.UseExifTool = useExifToolFlag
		}

		target := targetFlag
		if target == "" {
			target = source // organize in place
		}
		if !dryRunFlag {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("cannot create target directory %s: %w", target, err)
			}
		}

		log := internal.NewLogger(verboseFlag)

		printBanner(source, target, dryRunFlag)

		files, err := internal.ScanMediaFiles(source, conf)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No media files found, nothing to do")
			return nil
		}
		fmt.Printf("Found %d media files\n", len(files))

		resolver := internal.NewResolver(conf, log)
		defer resolver.Close()

		var manifest *internal.Manifest
		if conf.WriteManifest && !dryRunFlag {
			manifest, err = internal.NewManifest(target, source)
			if err != nil {
				return err
			}
			defer manifest.Close()
			manifest.LogStart(len(files))
		}

		stats := internal.NewStats(len(files))
		runner := &internal.Runner{
			Planner: &internal.Planner{
				Resolver:         resolver,
				TargetRoot:       target,
				DeleteDuplicates: conf.DeleteDuplicates,
				DryRun:           dryRunFlag,
				Log:              log,
			},
			Executor:  &internal.Executor{DeleteDuplicates: conf.DeleteDuplicates, Log: log},
			Stats:     stats,
			Manifest:  manifest,
			Log:       log,
			Workers:   conf.Workers,
			IOWorkers: conf.IOWorkers,
			DryRun:    dryRunFlag,
		}

		var bar *progressbar.ProgressBar
		runner.OnPhaseStart = func(phase internal.Phase, total int) {
			desc := "Planning destinations"
			if phase == internal.PhaseMove {
				desc = "Moving files"
			}
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(desc),
				progressbar.OptionSetWidth(20),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionClearOnFinish(),
			)
		}
		runner.OnFileDone = func(internal.Phase) {
			bar.Add(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		snapshot := runner.Run(ctx, files)
		if manifest != nil {
			manifest.LogEnd(snapshot)
		}
		if ctx.Err() != nil {
			color.Yellow("Interrupted: in-flight work drained, remaining files untouched")
		}

		printSummary(snapshot, target, dryRunFlag)
		return nil
	},
}

func printBanner(source, target string, dryRun bool) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Println("mediasort " + Version)
	fmt.Printf("  source: %s\n", source)
	fmt.Printf("  target: %s\n", target)
	if dryRun {
		color.Yellow("  dry-run: no files will be moved")
	}
}

func printSummary(sn internal.Snapshot, target string, dryRun bool) {
	verb := "moved"
	if dryRun {
		verb = "would move"
	}
	fmt.Println()
	color.New(color.FgGreen, color.Bold).Printf("Done in %.1fs\n", sn.Elapsed.Seconds())
	fmt.Printf("  processed: %d/%d\n", sn.Processed, sn.Total)
	color.Green("  %s:     %d", verb, sn.Moved)
	color.Yellow("  skipped:   %d", sn.Skipped)
	color.Red("  failed:    %d", sn.Failed)
	fmt.Printf("  rate:      %.1f files/s | %s/s\n",
		sn.FilesPerSecond(), humanize.Bytes(uint64(sn.BytesPerSecond())))
	fmt.Printf("  target:    %s\n", target)
}

func init() {
	organizeCmd.Flags().StringVar(&targetFlag, "target", "", "Target root directory (default: organize inside the source)")
	organizeCmd.Flags().IntVar(&workersFlag, "workers", 0, "Planning worker count (0 = sized from file count)")
	organizeCmd.Flags().IntVar(&ioWorkersFlag, "io-workers", 0, "Move worker count (0 = derived from planning workers)")
	organizeCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show planned moves without touching files")
	organizeCmd.Flags().BoolVar(&deleteDuplicatesFlag, "delete-duplicates", false, "Delete a source file whose destination already holds identical content")
	organizeCmd.Flags().BoolVar(&useExifToolFlag, "exiftool", false, "Use the exiftool binary for files the built-in EXIF decoder cannot read")
	organizeCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "Verbose logging")

	rootCmd.AddCommand(organizeCmd)
}

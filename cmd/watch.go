package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mediasort/internal"
)

// settleDelay gives a newly created file time to be written completely
// before it is planned and moved.
const settleDelay = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Watch folder and organize media files as they appear",
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
		if cmd.Flags().Changed("delete-duplicates") {
			conf.DeleteDuplicates = deleteDuplicatesFlag
		}

		target := targetFlag
		if target == "" {
			target = source
		}
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("cannot create target directory %s: %w", target, err)
		}

		log := internal.NewLogger(verboseFlag)

		resolver := internal.NewResolver(conf, log)
		defer resolver.Close()

		planner := &internal.Planner{
			Resolver:         resolver,
			TargetRoot:       target,
			DeleteDuplicates: conf.DeleteDuplicates,
			Log:              log,
		}
		executor := &internal.Executor{DeleteDuplicates: conf.DeleteDuplicates, Log: log}
		stats := internal.NewStats(0)

		watcher, err := internal.NewWatcher(source, conf)
		if err != nil {
			return fmt.Errorf("cannot watch %s: %w", source, err)
		}
		defer watcher.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Infof("watching %s, organizing into %s", source, target)
		watchLoop(ctx, watcher.Created(), watcher.Errors(), settleDelay, log, func(path string) {
			organizeOne(ctx, path, conf, planner, executor, stats, log)
		})

		sn := stats.Snapshot()
		log.Infof("stopping: moved=%d skipped=%d failed=%d", sn.Moved, sn.Skipped, sn.Failed)
		return nil
	},
}

// watchLoop consumes creation events until ctx is cancelled. Each file
// settles in its own goroutine so a burst of creations never backs up the
// receive loop and overflows the watcher's channel.
func watchLoop(ctx context.Context, created <-chan string, errs <-chan error, settle time.Duration, log *logrus.Logger, handle func(string)) {
	for {
		select {
		case path := <-created:
			go func() {
				time.Sleep(settle)
				handle(path)
			}()
		case err := <-errs:
			log.Warnf("watch error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// organizeOne plans and executes a single watched file end to end.
func organizeOne(ctx context.Context, path string, conf *internal.Config, planner *internal.Planner, executor *internal.Executor, stats *internal.Stats, log *logrus.Logger) {
	info, err := os.Stat(path)
	if err != nil {
		// Gone before it settled; a later Create event will re-report it.
		return
	}
	name := filepath.Base(path)
	f := internal.MediaFile{
		Name: name,
		Path: path,
		Size: info.Size(),
		Kind: conf.Classify(name),
	}

	plan, err := planner.Plan(ctx, f)
	if err != nil {
		if errors.Is(err, internal.ErrSourceVanished) || errors.Is(err, internal.ErrDuplicate) || errors.Is(err, internal.ErrAlreadyOrganized) {
			stats.Skipped()
			log.Infof("skipped %s: %v", name, err)
		} else {
			stats.Failed()
			log.Errorf("planning failed for %s: %v", name, err)
		}
		return
	}

	dest, err := executor.Execute(plan)
	switch {
	case err == nil:
		stats.Moved(plan.Size)
		log.Infof("moved: %s -> %s", path, dest)
	case errors.Is(err, internal.ErrSourceVanished), errors.Is(err, internal.ErrDuplicate):
		stats.Skipped()
		log.Warnf("skipped %s: %v", name, err)
	default:
		stats.Failed()
		log.Errorf("move failed for %s: %v", name, err)
	}
}

func init() {
	watchCmd.Flags().StringVar(&targetFlag, "target", "", "Target root directory (default: organize inside the source)")
	watchCmd.Flags().BoolVar(&deleteDuplicatesFlag, "delete-duplicates", false, "Delete a source file whose destination already holds identical content")
	watchCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "Verbose logging")

	rootCmd.AddCommand(watchCmd)
}

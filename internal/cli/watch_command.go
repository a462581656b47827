package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dbf-converter/internal/watch"
	"dbf-converter/internal/workspace"
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	dir := fs.String("dir", "", "directory to watch for DBF files")
	output := fs.String("output", "", "output directory for CSV files (default: saved setting)")
	encoding := fs.String("encoding", "", "character encoding of DBF text fields")
	settle := fs.Duration("settle", watch.DefaultSettle, "quiet period after the last write before a file is converted")
	existing := fs.Bool("existing", false, "also convert DBF files already in the directory")
	lf := fs.Bool("lf", false, "end CSV lines with LF instead of CRLF")
	debug := fs.Bool("debug", false, "debug-level logging to the configured log file")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	watchDir := firstNonEmpty(*dir, fs.Arg(0))
	if watchDir == "" {
		fs.Usage()
		return errors.New("--dir is required")
	}
	if *settle <= 0 {
		return errors.New("--settle must be > 0")
	}

	overrides := workspace.Overrides{
		OutputDir: strings.TrimSpace(*output),
		Encoding:  strings.TrimSpace(*encoding),
	}
	if *lf {
		overrides.LineEnding = workspace.LineEndingLF
	}
	env, err := loadRuntime(*config, overrides, false, *debug)
	if err != nil {
		return err
	}
	defer env.close()

	lock, err := workspace.AcquireWatchLock(env.configPath, watchDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	line := newProgressLine(stdoutIsTTY(), os.Stdout, 0)
	w, err := watch.New(watch.Options{
		Dir:            watchDir,
		DestinationDir: env.resolved.OutputDir,
		Convert:        env.resolved.Options,
		Settle:         *settle,
		Existing:       *existing,
		Logger:         env.logger,
		OnEvent:        line.Handle,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %s -> %s (settle %s, ctrl+c to stop)\n", watchDir, env.resolved.OutputDir, settle.Round(time.Millisecond))
	summary, err := w.Run(ctx)
	fmt.Println()
	fmt.Println("watch summary")
	fmt.Printf("completed: %d\n", summary.Completed)
	fmt.Printf("failed: %d\n", summary.Failed)
	fmt.Printf("records: %d\n", summary.Records)
	return err
}

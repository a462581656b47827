package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/model"
	"dbf-converter/internal/workspace"
)

type convertReport struct {
	OutputDir string                   `json:"output_dir"`
	Summary   batch.Summary            `json:"summary"`
	Results   []model.ConversionResult `json:"results"`
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path (default: $DBF_CONVERTER_CONFIG or "+workspace.DefaultConfigPath+")")
	output := fs.String("output", "", "output directory for CSV files (must exist)")
	encoding := fs.String("encoding", "", "character encoding of DBF text fields: auto (from the file header), UTF8, cp1252, cp866, ...")
	every := fs.Int("every", 0, "emit progress every N records (0 = 1 for a single file, settings/50 for a batch)")
	lf := fs.Bool("lf", false, "end CSV lines with LF instead of CRLF")
	includeDeleted := fs.Bool("include-deleted", false, "also convert records flagged as deleted")
	missing := fs.String("missing", "", "field missing from a record: empty|error")
	progress := fs.Bool("progress", stdoutIsTTY(), "show live progress line")
	debug := fs.Bool("debug", false, "debug-level logging to the configured log file")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	files, err := batch.ExpandInputs(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fs.Usage()
		return errors.New("at least one DBF file is required")
	}
	list := batch.NewFileList(files...)

	overrides := workspace.Overrides{
		OutputDir:     strings.TrimSpace(*output),
		Encoding:      strings.TrimSpace(*encoding),
		ProgressEvery: *every,
		MissingField:  strings.TrimSpace(*missing),
	}
	if *lf {
		overrides.LineEnding = workspace.LineEndingLF
	}
	if *includeDeleted {
		overrides.IncludeDeleted = boolPtr(true)
	}

	env, err := loadRuntime(*config, overrides, list.Len() == 1, *debug)
	if err != nil {
		return err
	}
	defer env.close()

	q, err := batch.NewQueue(list.Paths(), env.resolved.OutputDir)
	if err != nil {
		return err
	}
	env.logger.WithField("jobs", q.Len()).Info("batch started")

	line := newProgressLine(*progress && !*jsonOut, os.Stdout, q.Len())
	onEvent := line.Handle
	if *jsonOut {
		onEvent = nil
	}
	summary := batch.RunAll(context.Background(), q, env.resolved.Options, env.logger, onEvent)
	env.logger.WithFields(logrus.Fields{
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"records":   summary.Records,
	}).Info("batch finished")

	if *jsonOut {
		if err := printJSON(convertReport{
			OutputDir: q.DestinationDir(),
			Summary:   summary,
			Results:   q.Results(),
		}); err != nil {
			return err
		}
	} else {
		printConvertSummary(q.DestinationDir(), summary)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", summary.Failed, summary.Total)
	}
	return nil
}

func printConvertSummary(outputDir string, s batch.Summary) {
	fmt.Println("convert summary")
	fmt.Printf("output_dir: %s\n", outputDir)
	fmt.Printf("files: %d\n", s.Total)
	fmt.Printf("completed: %d\n", s.Completed)
	fmt.Printf("failed: %d\n", s.Failed)
	fmt.Printf("records: %d\n", s.Records)
}

package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/dbfread"
	"dbf-converter/internal/workspace"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	encoding := fs.String("encoding", "", "character encoding of DBF text fields")
	includeDeleted := fs.Bool("include-deleted", false, "count records flagged as deleted")
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

	settings, err := workspace.ReadSettings(*config)
	if err != nil {
		return err
	}
	overrides := workspace.Overrides{Encoding: strings.TrimSpace(*encoding)}
	if *includeDeleted {
		overrides.IncludeDeleted = boolPtr(true)
	}
	resolved, err := workspace.Resolve(settings, overrides, false)
	if err != nil {
		return err
	}
	opts := dbfread.OpenOptions{
		Encoding:       resolved.Options.Encoding,
		IncludeDeleted: resolved.Options.IncludeDeleted,
	}

	infos := make([]dbfread.Info, 0, len(files))
	for _, f := range files {
		info, err := dbfread.Inspect(f, opts)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	if *jsonOut {
		return printJSON(infos)
	}
	for i, info := range infos {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("file: %s\n", info.Path)
		fmt.Printf("encoding: %s\n", info.Encoding)
		fmt.Printf("records: %d\n", info.Records)
		fmt.Printf("deleted: %d\n", info.Deleted)
		fmt.Printf("fields (%d): %s\n", len(info.Fields), strings.Join(info.Fields, ", "))
	}
	return nil
}

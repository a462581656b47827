package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"dbf-converter/internal/workspace"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	configPath := workspace.ConfigPath(*config)
	s, err := workspace.ReadSettings(configPath)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(workspace.UpdateSettingsResult{ConfigPath: configPath, Settings: s})
	}
	fmt.Printf("config: %s\n", configPath)
	printSettings(s)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	pairs := fs.Args()
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		printSettingsUsage()
		return errors.New("settings set expects <key> <value> pairs")
	}

	configPath := workspace.ConfigPath(*config)
	s, err := workspace.ReadSettings(configPath)
	if err != nil {
		return err
	}
	for i := 0; i < len(pairs); i += 2 {
		if err := workspace.SetValue(&s, pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}

	res, err := workspace.UpdateSettings(workspace.UpdateSettingsOptions{
		ConfigPath: configPath,
		Settings:   s,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}
	fmt.Printf("updated settings in %s\n", res.ConfigPath)
	printSettings(res.Settings)
	return nil
}

func printSettings(s workspace.Settings) {
	fmt.Printf("output_dir: %s\n", defaultIfEmpty(s.OutputDir, "(not set)"))
	fmt.Printf("encoding: %s\n", s.Encoding)
	fmt.Printf("progress_every: %s\n", strconv.Itoa(s.ProgressEvery))
	fmt.Printf("missing_field: %s\n", s.MissingField)
	fmt.Printf("line_ending: %s\n", s.LineEnding)
	fmt.Printf("include_deleted: %s\n", yesNo(s.IncludeDeleted))
	fmt.Printf("log_file: %s\n", defaultIfEmpty(s.LogFile, "(disabled)"))
	fmt.Printf("debug: %s\n", yesNo(s.Debug))
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set <key> <value> [<key> <value> ...]")
	fmt.Println()
	fmt.Println("keys:")
	fmt.Println("  output_dir       default output directory")
	fmt.Println("  encoding         DBF text encoding (auto, UTF8, cp1252, cp866, ...)")
	fmt.Println("  progress_every   batch progress cadence in records")
	fmt.Println("  missing_field    empty|error")
	fmt.Println("  line_ending      crlf|lf")
	fmt.Println("  include_deleted  true|false")
	fmt.Println("  log_file         JSON log file path (empty disables)")
	fmt.Println("  debug            true|false")
}

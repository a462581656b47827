package cli

import (
	"fmt"

	"dbf-converter/internal/version"
)

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "convert":
		return runConvert(args[1:])
	case "ui":
		return runUI(args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "version", "--version":
		fmt.Println(version.Value)
		return nil
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("dbf-converter: convert xBase/DBF tables to CSV")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  dbf-converter convert --output ./csv data/customers.dbf")
	fmt.Println("  dbf-converter convert --output ./csv 'data/*.dbf'")
	fmt.Println("  dbf-converter ui")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  convert   convert one or more DBF files, one at a time, in the order given")
	fmt.Println("  ui        interactive file list with progress and conversion log")
	fmt.Println("  inspect   print field names and record counts of DBF files")
	fmt.Println("  watch     convert DBF files as they appear in a directory")
	fmt.Println("  doctor    check output directory, encoding and config")
	fmt.Println("  settings  show/update saved defaults")
	fmt.Println("  version   print the build version")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Defaults come from config/settings.json (override with --config or DBF_CONVERTER_CONFIG)")
	fmt.Println("  - DBF_CONVERTER_OUTPUT and DBF_CONVERTER_ENCODING override saved defaults; flags override both")
}

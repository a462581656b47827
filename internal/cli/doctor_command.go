package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"dbf-converter/internal/workspace"
)

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	output := fs.String("output", "", "output directory to check (default: saved setting)")
	encoding := fs.String("encoding", "", "encoding to check (default: saved setting)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := workspace.Doctor(workspace.DoctorOptions{
		ConfigPath: strings.TrimSpace(*config),
		OutputDir:  strings.TrimSpace(*output),
		Encoding:   strings.TrimSpace(*encoding),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, c := range res.Checks {
			status := "ok"
			if !c.OK {
				status = "fail"
			}
			fmt.Printf("[%s] %s: %s\n", status, c.Name, c.Message)
		}
	}
	if !res.OK {
		return errors.New("doctor found problems")
	}
	return nil
}

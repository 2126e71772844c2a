package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

func cmdLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	artifact := fs.String("artifact", "out/mapping.json", "mapping artifact")
	state := fs.String("state", "", "state name as reported")
	district := fs.String("district", "", "district name as reported")
	fs.Parse(args)

	if *state == "" || *district == "" {
		return fmt.Errorf("-state and -district are required")
	}
	a, _, err := registry.ReadFile(*artifact)
	if err != nil {
		return err
	}
	e := a.Lookup(*state, *district)
	if !e.Found() {
		return fmt.Errorf("%s is not in the artifact", e.Key)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

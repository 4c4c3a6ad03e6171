package cmd

import (
	"fmt"
	"strings"

	"github.com/emrgen/docseed/internal/compress"
	"github.com/emrgen/docseed/internal/service"
	"github.com/emrgen/docseed/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns ok if they are set
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		_ = cmd.Usage()

		return true
	}

	return false
}

// newSeeder builds a seeder from the loaded config; a non-empty compression overrides artifact.compression.
func newSeeder(compression string) (*service.Seeder, error) {
	if compression == "" {
		compression = cfg.Compression
	}

	codec, err := compress.ByName(compression)
	if err != nil {
		return nil, err
	}

	return service.NewSeeder(service.Options{
		WorksDir:    cfg.WorksDir,
		DistDir:     cfg.DistDir,
		Concurrency: cfg.Concurrency,
		Codec:       codec,
		Store:       cfg.Store,
	}), nil
}

// openStore opens an existing sqlite store, or the configured postgres database when path is empty.
// Only a writable store is migrated.
func openStore(path string, writable bool) (*store.GormStore, error) {
	c := cfg.Store
	if path != "" || c.Driver != store.DriverPostgres {
		c = store.SqliteConfig(path)
		c.JournalSizeLimit = cfg.Store.JournalSizeLimit
	}

	if writable {
		return store.OpenExisting(c)
	}
	return store.OpenReadOnly(c)
}

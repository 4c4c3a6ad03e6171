package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

// Migrate brings an existing store up to the current schema.
func Migrate() *cobra.Command {
	var path string

	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening an existing store migrates it
			s, err := openStore(path, true)
			if err != nil {
				return err
			}
			defer s.Close()

			color.Green("migrated %s", s.String())

			return nil
		},
	}

	command.Flags().StringVarP(&path, "store", "s", "", "sqlite store, the configured postgres database when omitted")

	return command
}

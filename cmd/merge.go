package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func mergeCmd() *cobra.Command {
	var name string

	var required = []string{"output"}

	command := &cobra.Command{
		Use:     "merge <store>...",
		Short:   "merge finished stores into one store",
		Example: "docseed merge -o moby-dick dist/en/en.sqlite dist/fr/fr.sqlite",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkMissingFlags(cmd, required) {
				return nil
			}

			seeder, err := newSeeder("")
			if err != nil {
				return err
			}

			path, res, err := seeder.MergeStores(cmd.Context(), name, args)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Store", "Offset", "Nodes", "Identifiers", "Works", "Variants"})
			for i, part := range res.Parts {
				table.Append([]string{
					args[i],
					strconv.FormatInt(part.Offset, 10),
					strconv.Itoa(part.Nodes),
					strconv.Itoa(part.Identifiers),
					strconv.Itoa(part.Works),
					strconv.Itoa(part.Variants),
				})
			}
			table.Render()

			printField("merged", path)

			return nil
		},
	}

	command.Flags().StringVarP(&name, "output", "o", "", "name of the merged store under dist.dir")

	return command
}

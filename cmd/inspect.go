package cmd

import (
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "inspect [store]",
		Short:   "show the content summary of a store",
		Example: "docseed inspect dist/en/en.sqlite",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			s, err := openStore(path, false)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			stats, err := s.Stats(ctx)
			if err != nil {
				return err
			}

			printField("store", s.String())
			printField("nodes", strconv.FormatInt(stats.Nodes, 10))
			printField("identifiers", strconv.FormatInt(stats.Identifiers, 10))

			variants, err := s.ListVariants(ctx)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Work", "Variant", "Title", "Language", "Version"})
			for _, v := range variants {
				table.Append([]string{v.WorkID, v.ID, v.Title, v.Language, v.Version})
			}
			table.Render()

			kinds := make([]string, 0, len(stats.Kinds))
			for kind := range stats.Kinds {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)

			table = tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Kind", "Nodes"})
			for _, kind := range kinds {
				table.Append([]string{kind, strconv.FormatInt(stats.Kinds[kind], 10)})
			}
			table.Render()

			return nil
		},
	}

	return command
}

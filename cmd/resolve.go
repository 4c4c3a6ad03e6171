package cmd

import (
	"errors"
	"os"
	"strconv"

	"github.com/emrgen/docseed/internal/store"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	var path string

	command := &cobra.Command{
		Use:     "resolve <id>...",
		Short:   "find the nodes an identifier points at",
		Example: "docseed resolve -s dist/en/en.sqlite call-me-ishmael",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(path, false)
			if err != nil {
				return err
			}
			defer s.Close()

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Row", "Kind", "Content"})
			for _, id := range args {
				row, err := s.ResolveIdentifier(cmd.Context(), id)
				if errors.Is(err, store.ErrIdentifierNotFound) {
					color.Yellow("not found: %s\n", id)
					continue
				}
				if err != nil {
					return err
				}

				node, err := s.GetNode(cmd.Context(), row)
				if err != nil {
					return err
				}

				var content string
				if node.Content != nil {
					content = *node.Content
				}
				table.Append([]string{id, strconv.FormatInt(row, 10), node.Kind, content})
			}
			table.Render()

			return nil
		},
	}

	command.Flags().StringVarP(&path, "store", "s", "", "sqlite store, the configured postgres database when omitted")

	return command
}

package cmd

import (
	"os"
	"strconv"

	"github.com/emrgen/docseed/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var workID string
	var variants []string
	var merge bool
	var compression string

	command := &cobra.Command{
		Use:   "seed [work-id/variant-id...]",
		Short: "encode work variants into sqlite stores",
		Example: `docseed seed moby-dick/en moby-dick/fr
docseed seed -w moby-dick -v en -v fr --merge
docseed seed -w moby-dick --compress brotli`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workID == "" && len(args) == 0 {
				color.Red("missing: --work or a <work-id>/<variant-id> argument\n")
				return cmd.Usage()
			}

			seeder, err := newSeeder(compression)
			if err != nil {
				return err
			}

			var reports []*service.Report
			for _, arg := range args {
				report, err := seeder.SeedVariant(cmd.Context(), arg)
				if err != nil {
					logrus.Errorf("seed %s: %v", arg, err)
					return err
				}
				reports = append(reports, report)
			}

			var merged string
			if workID != "" {
				res, err := seeder.SeedWork(cmd.Context(), workID, variants, merge)
				if err != nil {
					logrus.Errorf("seed work %s: %v", workID, err)
					return err
				}
				reports = append(reports, res.Variants...)
				merged = res.Merged
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Work", "Variant", "Nodes", "Identifiers", "Skipped", "Artifact"})
			for _, r := range reports {
				table.Append([]string{
					r.WorkID,
					r.VariantID,
					strconv.Itoa(r.Result.Nodes),
					strconv.Itoa(r.Result.Identifiers),
					strconv.Itoa(r.Result.Skipped),
					r.Artifact,
				})
			}
			table.Render()

			if merged != "" {
				printField("merged", merged)
			}

			return nil
		},
	}

	command.Flags().StringVarP(&workID, "work", "w", "", "seed the variants of a work")
	command.Flags().StringSliceVarP(&variants, "variant", "v", nil, "variants of --work to seed, all when omitted")
	command.Flags().BoolVar(&merge, "merge", false, "merge the variants of --work into one store")
	command.Flags().StringVarP(&compression, "compress", "c", "", "artifact compression: none, gzip, brotli or lz4")

	return command
}

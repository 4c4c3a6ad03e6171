package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/emrgen/docseed/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var (
	configDir string
	logLevel  string
	cfg       *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docseed",
	Short: "encode parsed document trees into sqlite stores",
	Example: `docseed seed moby-dick/en
docseed seed -w moby-dick --merge
docseed merge -o moby-dick dist/en/en.sqlite dist/fr/fr.sqlite
docseed inspect dist/en/en.sqlite
docseed resolve -s dist/en/en.sqlite call-me-ishmael
docseed db migrate -s dist/en/en.sqlite`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var dirs []string
		if configDir != "" {
			dirs = append(dirs, configDir)
		}

		loaded, err := config.LoadConfig(dirs...)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		if err := config.SetupLogging(loaded.Log); err != nil {
			return err
		}

		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGTERM, unix.SIGINT)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory holding docseed.yml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

package commands

import (
	"github.com/robgonnella/plcscout/internal/config"
	"github.com/robgonnella/plcscout/internal/core"
	"github.com/robgonnella/plcscout/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommandProps injected props that can be made available to all commands
type CommandProps struct {
	UI *ui.UI
}

// Root builds and returns our root command
func Root(props *CommandProps) *cobra.Command {
	var verbose bool
	var silent bool

	cmd := &cobra.Command{
		Use:   "plcscout",
		Short: "Discovers industrial devices on OT networks",
		// This runs before all commands and all sub-commands
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// set logging verbosity for all loggers
			zerolog.SetGlobalLevel(zerolog.InfoLevel)

			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			if silent {
				zerolog.SetGlobalLevel(zerolog.Disabled)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Persistent flags available to all commands
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
	cmd.PersistentFlags().BoolVar(&silent, "silent", false, "disables all logging")
	cmd.PersistentFlags().StringP("config", "c", "", "path to a yaml scan configuration")

	viper.BindPFlag("config-file", cmd.PersistentFlags().Lookup("config"))

	cmd.AddCommand(scan())
	cmd.AddCommand(watch(props))
	cmd.AddCommand(version())
	cmd.AddCommand(clear())

	return cmd
}

// loadConfig loads the configuration file shared through viper and points
// the classification cache at the runtime cache database unless the file
// chose one
func loadConfig() (*config.Config, error) {
	conf, err := core.LoadConfig(viper.GetString("config-file"))

	if err != nil {
		return nil, err
	}

	if conf.CacheDatabase == "" {
		conf.CacheDatabase = viper.GetString("cache-database")
	}

	return conf, nil
}

package commands

import (
	"errors"
	"os"

	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

/**
 * Command to remove the classification cache and log files
 */
func clear() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clears the classification cache and log files",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()

			dbFile := viper.GetString("cache-database")

			if dbFile != "" {
				if err := os.Remove(dbFile); err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				log.Info().Msg("removed cache database")
			}

			logFile := viper.GetString("log-file")

			if logFile != "" {
				if err := os.RemoveAll(logFile); err != nil {
					return err
				}
				log.Info().Msg("removed log file")
			}

			return nil
		},
	}

	return cmd
}

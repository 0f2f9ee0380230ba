package commands

import (
	"github.com/spf13/cobra"
)

// creates and returns the "watch" command
func watch(props *CommandProps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scans while showing devices and events live",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()

			if err != nil {
				return err
			}

			return props.UI.Launch(conf)
		},
	}

	return cmd
}

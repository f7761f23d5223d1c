package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/netmock/pkg/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the settings JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(config.SchemaJSON())
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/pkg/export"
)

var fieldsFlags struct {
	mode   string
	custom []string
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the optional competition fields",
	Long: "Without --mode, print the optional field template for a configuration front end.\n" +
		"With --mode, print the fields that mode selects.",
	RunE: printFields,
}

func init() {
	f := fieldsCmd.Flags()
	f.StringVar(&fieldsFlags.mode, "mode", "", "required_only, standard or custom")
	f.StringSliceVar(&fieldsFlags.custom, "custom", nil, "fields for custom mode")
	rootCmd.AddCommand(fieldsCmd)
}

func printFields(cmd *cobra.Command, _ []string) error {
	if fieldsFlags.mode == "" {
		return export.WriteJSON(cmd.OutOrStdout(), competition.NewUITemplate())
	}
	mode, err := competition.ParseConfigMode(fieldsFlags.mode)
	if err != nil {
		return err
	}
	sel, err := competition.SelectFields(mode, fieldsFlags.custom)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), sel)
}

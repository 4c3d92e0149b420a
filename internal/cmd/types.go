package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/output"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the attack types that can be scanned for",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		reg, err := buildRegistry(store)
		if err != nil {
			return err
		}
		if outputFmt == string(output.FormatJSON) {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reg.AttackTypes())
		}
		return output.RenderCatalog(cmd.OutOrStdout(), reg.AttackTypes())
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

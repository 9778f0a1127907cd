package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"asset-exporter/feature/exporters"
	"asset-exporter/feature/postexporters"
)

// unitsCmd represents the units command
var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the extraction and refinement units",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Extraction units (merge order):")
		for i, e := range exporters.All(exporters.Context{}) {
			fmt.Fprintf(w, "  %d. %s\n", i+1, e.Name())
		}
		fmt.Fprintln(w, "Refinement units:")
		for _, p := range postexporters.All(postexporters.Options{Images: &postexporters.ImagesOptions{}}) {
			fmt.Fprintf(w, "  - %s\n", p.Name())
		}
	},
}

func init() {
	RootCmd.AddCommand(unitsCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"asset-exporter/core/assets"
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <dir> <archive.json.zst>",
	Short: "Bundle a directory of package documents into an archive",
	Long:  `Packs every package document below dir into a zstd-compressed archive usable with game.driver=archive.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}

		n, err := assets.PackDir(cmd.Context(), args[0], f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(args[1])
			return fmt.Errorf("failed to pack %s: %w", args[0], err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Packed %d files into %s\n", n, args[1])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(packCmd)
}

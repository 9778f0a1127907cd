package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"asset-exporter/core/config"
	"asset-exporter/core/logger"
	"asset-exporter/core/sink"
	"asset-exporter/feature/artifacts"
	"asset-exporter/feature/postexporters"
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <assets.json> <dest>",
	Short: "Split an assets.json into per-type files",
	Long: `Writes each item type of an assets document to <dest>/NamedItems/<Type>.json
and every other top-level object to <dest>/<Key>.json. With --images copy or
move, the exported images next to the source document are transferred too.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		modeName, _ := cmd.Flags().GetString("images")
		mode, err := artifacts.ParseImageMode(modeName)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		res, err := artifacts.Split(cmd.Context(), data, sink.NewFileSink(args[1]), cfg.Output.SplitDir, logg)
		if err != nil {
			return err
		}

		dir := cfg.Images.Directory
		if dir == "" {
			dir = postexporters.DefaultImageDirectory
		}
		moved, err := artifacts.CopyImages(
			filepath.Join(filepath.Dir(args[0]), dir),
			filepath.Join(args[1], dir),
			mode, logg,
		)
		if err != nil {
			return fmt.Errorf("failed to %s images: %w", mode, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Split %d items into %d files, %d images %s\n", res.Items, len(res.Files), moved, mode)
		return nil
	},
}

func init() {
	splitCmd.Flags().String("images", string(artifacts.ImagesIgnore), "What to do with exported images: ignore, copy or move")
	RootCmd.AddCommand(splitCmd)
}

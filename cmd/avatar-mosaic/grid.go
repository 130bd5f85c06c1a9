package main

import (
	"fmt"
	"image"

	"github.com/ironsheep/avatar-mosaic/internal/grid"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/shuffle"
	"github.com/ironsheep/avatar-mosaic/internal/symmetry"
	"github.com/spf13/cobra"
)

var gridCmd = &cobra.Command{
	Use:   "grid <image>...",
	Short: "Tile local images into a grid",
	Long: `Composes local image files with the configured grid layout, without
touching the network. Images are placed in argument order unless --seed is
given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
	addGridFlags(gridCmd)
	gridCmd.Flags().StringP("output", "o", "grid.png", "Output PNG path (- for stdout)")
	gridCmd.Flags().Bool("skip-automatic", false, "Leave out generated avatars")
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGridFlags(cmd, &cfg)

	settings, auto, err := cfg.Grid.Resolve()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	skipAutomatic, _ := cmd.Flags().GetBool("skip-automatic")
	images := make([]image.Image, 0, len(args))
	for _, path := range args {
		img, err := imaging.Load(path)
		if err != nil {
			return err
		}
		if skipAutomatic && symmetry.IsAutomaticImage(img) {
			logger.Info("avatar is automatic, skipping", "path", path)
			continue
		}
		images = append(images, img)
	}
	if cfg.Seed != 0 {
		images = shuffle.Slice(images, shuffle.New(cfg.Seed))
	}
	if len(images) > settings.Capacity() {
		logger.Warn("more images than cells", "images", len(images), "capacity", settings.Capacity())
		images = shuffle.Take(images, settings.Capacity())
	}

	if auto {
		bg := imaging.DominantColorOf(images)
		settings.Background = &bg
	}
	canvas := grid.Combine(images, settings)

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		return imaging.EncodePNG(cmd.OutOrStdout(), canvas)
	}
	if err := imaging.SavePNG(output, canvas); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, %d images\n", output, canvas.Bounds().Dx(), canvas.Bounds().Dy(), len(images))
	return nil
}

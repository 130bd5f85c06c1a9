package main

import (
	"fmt"

	"github.com/ironsheep/avatar-mosaic/internal/colormodel"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/spf13/cobra"
)

var hsvCmd = &cobra.Command{
	Use:   "hsv <#hex>...",
	Short: "Print the HSV form of hex colors",
	Long: `Prints the HSV triple of each color. With exactly two colors it also
reports whether the detector would treat them as the same color.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHSV,
}

func init() {
	rootCmd.AddCommand(hsvCmd)
}

func runHSV(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	values := make([]colormodel.HSV, 0, len(args))
	for _, arg := range args {
		c, err := imaging.ParseHexColor(arg)
		if err != nil {
			return err
		}
		hsv := colormodel.FromRGBA(c)
		values = append(values, hsv)

		kind := "chromatic"
		if hsv.Gray() {
			kind = "gray"
		}
		fmt.Fprintf(out, "%s  %s  %s\n", imaging.FormatHex(c), hsv, kind)
	}

	if len(values) == 2 {
		fmt.Fprintf(out, "close: %t\n", colormodel.AreClose(values[0], values[1]))
	}
	return nil
}

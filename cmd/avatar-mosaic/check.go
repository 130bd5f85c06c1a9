package main

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/symmetry"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <image>...",
	Short: "Report whether images look like generated avatars",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("json", false, "Print one JSON report per line")
}

type checkReport struct {
	Path string `json:"path"`
	symmetry.Report
}

func runCheck(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)

	failed := 0
	for _, path := range args {
		img, err := imaging.Load(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
		report := symmetry.Analyze(img)

		if asJSON {
			if err := enc.Encode(checkReport{Path: path, Report: report}); err != nil {
				return err
			}
			continue
		}
		verdict := "photo"
		if report.Automatic {
			verdict = "automatic"
		}
		fmt.Fprintf(out, "%s: %s (%dx%d, %d/%d disagreeing, ratio %.4f)\n",
			path, verdict, report.Width, report.Height, report.Disagreeing, report.Sampled, report.Ratio)
	}

	if failed > 0 {
		return fmt.Errorf("failed to check %d of %d images", failed, len(args))
	}
	return nil
}

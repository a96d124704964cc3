package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-site/internal/observability"
	"github.com/spf13/cobra"
)

var (
	resolveJSON  bool
	resolveCheck bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [variant]",
	Short: "Print the resume as resolved for a variant",
	Long: `Merge the base content with a variant and print the result. Unknown or missing
variants resolve to the default. With --check, list variant bullet ids that do not
resolve and fail if there are any.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the merged document as JSON")
	resolveCmd.Flags().BoolVar(&resolveCheck, "check", false, "Report dangling bullet ids and exit non-zero if any")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	lib, err := loadLibrary()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if resolveCheck {
		dangling := lib.DanglingBulletIDs()
		observability.NewPrinter(out).PrintDanglingBullets(dangling)
		if len(dangling) > 0 {
			return fmt.Errorf("%d variant(s) select bullet ids that do not exist", len(dangling))
		}
		return nil
	}

	slug := ""
	if len(args) == 1 {
		slug = args[0]
	}
	merged := lib.Resolve(slug)

	if resolveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(merged)
	}
	observability.NewPrinter(out).PrintResume(merged)
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/resume-site/internal/export"
	"github.com/jonathan/resume-site/internal/rendering"
	"github.com/jonathan/resume-site/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportVariant string
	exportOut     string
	exportTimeout time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print a variant of the resume to PDF",
	Long:  "Render the page for a variant in headless Chrome and save it as PDF. Requires Chrome/Chromium.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportVariant, "variant", "default", "Variant to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "resume.pdf", "Path to output PDF file")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", export.DefaultTimeout, "Browser timeout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	lib, err := loadLibrary()
	if err != nil {
		return err
	}
	renderer, err := rendering.NewRenderer()
	if err != nil {
		return err
	}

	merged := lib.Resolve(exportVariant)
	if merged.Variant.Slug != exportVariant {
		logger.Warn("unknown variant, exporting default",
			zap.String("requested", exportVariant),
			zap.String("variant", merged.Variant.Slug))
	}

	handler := server.NewPageHandler(lib, renderer, logger)
	pdf, err := export.PDFFromHandler(cmd.Context(), handler, "/"+merged.Variant.Slug, exportTimeout, nil)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(exportOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(exportOut, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", exportOut, len(pdf))
	return nil
}

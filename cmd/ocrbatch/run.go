package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
	"github.com/Lllllllleong/bulktextextractor/internal/output"
	"github.com/Lllllllleong/bulktextextractor/internal/services"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var format string
	var out string
	var engine string
	var correctorName string

	cmd := &cobra.Command{
		Use:           "run <image>...",
		Short:         "Run OCR and correction over images and zip the corrected documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := output.ParseFormat(format); err != nil {
				return errors.New(output.InvalidFormatMessage)
			}

			config, err := services.LoadExtractorConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				config.OutputDir = out
			}
			if cmd.Flags().Changed("ocr") {
				config.OCREngine = engine
			}
			if cmd.Flags().Changed("corrector") {
				config.Corrector = correctorName
			}

			images, err := readImages(args)
			if err != nil {
				return err
			}

			extractor, err := services.NewExtractorFromConfig(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer extractor.Close()

			result, err := extractor.Process(cmd.Context(), images, format)
			if errors.Is(err, output.ErrInvalidFormat) {
				return errors.New(output.InvalidFormatMessage)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), result.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "archive: %s\n", result.ArchivePath)
			if result.ArchiveGCSUri != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "published: %s\n", result.ArchiveGCSUri)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatText.String(), "output format: .txt|.docx|.json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "parent directory for batch directories (default: $OUTPUT_DIR or .)")
	cmd.Flags().StringVar(&engine, "ocr", "", "OCR engine: tesseract|azure|gemini (default: $OCR_ENGINE or tesseract)")
	cmd.Flags().StringVar(&correctorName, "corrector", "", "corrector: openai|vertex (default: $CORRECTOR or openai)")
	return cmd
}

func readImages(paths []string) ([]ocr.Input, error) {
	images := make([]ocr.Input, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		images = append(images, ocr.NewInput(filepath.Base(path), content, ""))
	}
	return images, nil
}

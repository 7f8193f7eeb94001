package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/document"
)

type detectReport struct {
	File         string                    `json:"file" yaml:"file"`
	DocumentType document.Format           `json:"document_type" yaml:"document_type"`
	PIIItems     []detector.Match          `json:"pii_items" yaml:"pii_items"`
	Summary      map[detector.Category]int `json:"summary" yaml:"summary"`
}

func newDetectCmd(opts *options) *cobra.Command {
	var (
		format        string
		categories    []string
		minConfidence string
	)
	cmd := &cobra.Command{
		Use:   "detect FILE",
		Short: "List the PII found in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid --format %q (json or yaml)", format)
			}
			floor := detector.ConfidenceLow
			if minConfidence != "" {
				c, err := detector.ParseConfidence(minConfidence)
				if err != nil {
					return err
				}
				floor = c
			}
			engine, err := opts.engine(categories)
			if err != nil {
				return err
			}
			docType, _, content, err := opts.load(args[0])
			if err != nil {
				return err
			}

			matches := detector.AtLeast(engine.Detect(content.FullText), floor)
			opts.log.Info("scanned file", "file", args[0], "pii_items", len(matches))
			return writeReport(cmd.OutOrStdout(), format, detectReport{
				File:         args[0],
				DocumentType: docType,
				PIIItems:     matches,
				Summary:      detector.Summarize(matches),
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format (json or yaml)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "only detect these categories (repeatable)")
	cmd.Flags().StringVar(&minConfidence, "min-confidence", "", "drop matches below this confidence (high, medium, low)")
	return cmd
}

func writeReport(w io.Writer, format string, report detectReport) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

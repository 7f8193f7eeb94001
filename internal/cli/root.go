// Package cli implements the piiscan command line tool.
package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/document"
	"github.com/dgallion1/docredact/internal/parser"
)

// options are the flags shared by every subcommand.
type options struct {
	logLevel  string
	region    string
	pdftotext bool
	log       *slog.Logger
}

// NewRootCmd builds the piiscan command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "piiscan",
		Short: "Find and redact PII in documents",
		Long: `piiscan scans txt, md, csv, html, pdf and docx files for personal data
(emails, phone numbers, national IDs, payment cards, dates, IBANs and street
addresses) and writes redacted copies.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q", opts.logLevel)
			}
			// Logs go to stderr so stdout stays clean for piping.
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.region, "region", "US", "fallback region for phone numbers without a country code")
	root.PersistentFlags().BoolVar(&opts.pdftotext, "pdftotext", false, "fall back to the pdftotext binary for PDFs")

	root.AddCommand(newDetectCmd(opts), newRedactCmd(opts))
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func (o *options) parserOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: o.pdftotext}
}

func (o *options) engine(categories []string) (*detector.Engine, error) {
	engineOpts := []detector.Option{
		detector.WithLogger(o.log),
		detector.WithPhoneRegion(o.region),
	}
	if len(categories) > 0 {
		cats := make([]detector.Category, 0, len(categories))
		for _, name := range categories {
			c, err := detector.ParseCategory(name)
			if err != nil {
				return nil, err
			}
			cats = append(cats, c)
		}
		engineOpts = append(engineOpts, detector.WithCategories(cats...))
	}
	return detector.New(engineOpts...), nil
}

// load reads a supported file and extracts its text.
func (o *options) load(path string) (document.Format, []byte, *document.Content, error) {
	format, ok := document.FormatForFile(path)
	if !ok {
		return "", nil, nil, fmt.Errorf("unsupported file type: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, err
	}
	content, err := parser.ForFormat(format, o.parserOptions()).Parse(bytes.NewReader(data), path)
	if err != nil {
		return "", nil, nil, err
	}
	return format, data, content, nil
}

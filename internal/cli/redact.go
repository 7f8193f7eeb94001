package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/redact"
	"github.com/dgallion1/docredact/internal/rewrite"
)

func newRedactCmd(opts *options) *cobra.Command {
	var (
		literals []string
		auto     string
		mode     string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "redact FILE",
		Short: "Write a copy of a file with the given text replaced by " + redact.Sentinel,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := redact.ParseMode(mode)
			if err != nil {
				return err
			}
			format, data, content, err := opts.load(args[0])
			if err != nil {
				return err
			}

			selected := append([]string(nil), literals...)
			if auto != "" {
				floor, err := detector.ParseConfidence(auto)
				if err != nil {
					return fmt.Errorf("invalid --auto: %w", err)
				}
				engine, err := opts.engine(nil)
				if err != nil {
					return err
				}
				found := detector.AtLeast(engine.Detect(content.FullText), floor)
				selected = append(selected, detector.Literals(found)...)
			}
			if len(selected) == 0 {
				return fmt.Errorf("nothing to redact: pass --literal or --auto")
			}

			rw := &rewrite.Rewriter{Parsers: opts.parserOptions()}
			out, outFormat, err := rw.Apply(format, data, selected, m)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
				output = base + "_redacted" + outFormat.Ext()
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			opts.log.Info("wrote redacted file",
				"input", args[0],
				"output", output,
				"literals", len(selected),
				"mode", m,
			)
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&literals, "literal", "l", nil, "text to redact, applied in order (repeatable)")
	cmd.Flags().StringVar(&auto, "auto", "", "also redact detected PII at or above this confidence (high, medium, low)")
	cmd.Flags().StringVar(&mode, "mode", "sequential", "replacement mode (sequential or atomic)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path, "-" for stdout (default: FILE_redacted.EXT)`)
	return cmd
}

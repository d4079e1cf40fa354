package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/adapter/output"
	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/model"
)

var peekOpts struct {
	format   string
	field    string
	template string
}

var peekCmd = &cobra.Command{
	Use:   "peek [file]",
	Short: "Print the pending notification without consuming it",
	Long: `Decode the trigger file and print the notification it holds.

The file is left in place. Exits non-zero if the file is missing or does
not hold a valid notification.

Examples:
  # Human-readable summary
  toast peek

  # Just the message
  toast peek --field message

  # As YAML, from another file
  toast peek /tmp/other.json --format yaml

  # Custom template
  toast peek --template '{{upper .Title}}: {{.Message}}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPeek,
}

func init() {
	rootCmd.AddCommand(peekCmd)

	peekCmd.Flags().StringVarP(&peekOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu)")
	peekCmd.Flags().StringVar(&peekOpts.field, "field", "",
		"Output a single field (title, message, icon_path, closable, minimizable, expiry_time)")
	peekCmd.Flags().StringVar(&peekOpts.template, "template", "",
		"Custom Go template for plain and dmenu output")
}

func runPeek(cmd *cobra.Command, args []string) error {
	path := cfg.Trigger.Path
	if len(args) > 0 {
		path = args[0]
	}

	n, err := codec.Decode(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no pending notification at %s", path)
		}
		return err
	}

	if peekOpts.field != "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), output.FormatField(n, peekOpts.field))
		return err
	}

	formatter, err := createFormatter()
	if err != nil {
		return err
	}
	return formatter.Format(cmd.OutOrStdout(), n)
}

// createFormatter creates the output formatter based on options.
func createFormatter() (output.Formatter, error) {
	format, err := output.ParseFormatType(peekOpts.format)
	if err != nil {
		return nil, &model.Error{Kind: model.KindValidation, Op: "peek", Err: err}
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = peekOpts.template
	return output.NewFormatter(format, opts), nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/spendlog/spendlog/internal/model"
)

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	printer *message.Printer
}

func newFormatter(format string, w io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:  format,
		Writer:  w,
		printer: message.NewPrinter(language.English),
	}
}

// Structured writes v as JSON or YAML and reports whether it did. Text
// output is left to the caller.
func (f *OutputFormatter) Structured(v any) (bool, error) {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// Printf writes localized text, grouping digits in numbers.
func (f *OutputFormatter) Printf(format string, args ...any) {
	_, _ = f.printer.Fprintf(f.Writer, format, args...)
}

// Money formats an amount with two decimals and thousands separators.
func (f *OutputFormatter) Money(a model.Amount) string {
	return f.printer.Sprintf("%.2f", a.Float64())
}

// Fprintln is a plain line write for messages that need no localization.
func (f *OutputFormatter) Fprintln(args ...any) {
	_, _ = fmt.Fprintln(f.Writer, args...)
}

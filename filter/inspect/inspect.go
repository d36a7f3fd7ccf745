// Package inspect renders schemes and populated execution contexts as
// tables, for debugging field layouts and the values bound to them.
package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-filter/filter"
)

// TableFormatter provides utilities for formatting a context as a table
type TableFormatter struct {
	// MaxWidth is the maximum width for the value column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
	// UseColor enables colorized set/unset markers
	UseColor bool
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatContext formats the fields of a context's scheme and the values
// bound to them as a markdown table. Unset slots render as a marker
// rather than a value.
func (tf *TableFormatter) FormatContext(ctx *filter.ExecutionContext) string {
	scheme := ctx.Scheme()
	names := scheme.FieldNames()
	if len(names) == 0 {
		return "_Empty scheme_"
	}

	tableString := &strings.Builder{}

	alignment := make([]tw.Align, 4)
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"#", "Field", "Type", "Value"})

	set := 0
	for _, name := range names {
		field, _ := scheme.GetField(name)
		row := []string{
			fmt.Sprintf("%d", field.Index()),
			name,
			field.GetType().String(),
		}
		if value, ok := ctx.GetFieldValue(field); ok {
			set++
			row = append(row, tf.truncate(value.String()))
		} else {
			row = append(row, tf.colorize("<unset>", color.FgRed))
		}
		table.Append(row)
	}

	table.Render()
	tableString.WriteString(fmt.Sprintf("\n_%d of %d fields set_\n", set, len(names)))

	return tableString.String()
}

// truncate shortens a value rendering to MaxWidth.
func (tf *TableFormatter) truncate(s string) string {
	if tf.MaxWidth <= 0 || len(s) <= tf.MaxWidth {
		return s
	}
	cut := tf.MaxWidth - len(tf.TruncateString)
	if cut < 0 {
		cut = 0
	}
	return s[:cut] + tf.TruncateString
}

func (tf *TableFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !tf.UseColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// PrintContext prints a context table to stdout
func PrintContext(ctx *filter.ExecutionContext) {
	formatter := NewTableFormatter()
	formatter.UseColor = isTerminal(os.Stdout)
	fmt.Println(formatter.FormatContext(ctx))
}

// FprintContext writes a context table to w without color.
func FprintContext(w io.Writer, ctx *filter.ExecutionContext) {
	formatter := NewTableFormatter()
	fmt.Fprintln(w, formatter.FormatContext(ctx))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// PrintTable prints headers and rows as aligned columns.
// An empty headers slice prints rows only.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

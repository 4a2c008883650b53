// Package outwriter renders scores, theses, evidence and decision memos.
package outwriter

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// renderTable writes a bordered table. Numeric tables align right.
func renderTable(w io.Writer, headers []string, data [][]string, alignRight bool) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if alignRight {
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

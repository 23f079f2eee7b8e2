// Package report renders scheduling runs as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/sarchlab/schedsim/process"
	"github.com/sarchlab/schedsim/scheduling"
	"github.com/sarchlab/schedsim/stats"
)

// WriteTimeline renders one row per process, sorted by id, and one column per
// tick. Cells hold the snapshot symbols.
func WriteTimeline(
	w io.Writer,
	procs []*process.Process,
	snapshots []scheduling.Snapshot,
) {
	sorted := make([]*process.Process, len(procs))
	copy(sorted, procs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	header := []string{"Process"}
	for _, s := range snapshots {
		header = append(header, strconv.Itoa(s.Tick))
	}

	table := newTable(w)
	table.SetHeader(header)

	for _, p := range sorted {
		row := []string{p.Label()}
		for _, s := range snapshots {
			row = append(row, s.States[p.ID])
		}

		table.Append(row)
	}

	table.Render()
}

// WriteStatistics renders the statistics table with the average service
// index as footer.
func WriteStatistics(w io.Writer, t stats.Table) {
	table := newTable(w)
	table.SetHeader([]string{"Process", "ti", "t", "tf", "T", "Te", "I"})

	for _, r := range t.Records {
		table.Append([]string{
			r.Label,
			strconv.Itoa(r.Arrival),
			strconv.Itoa(r.Burst),
			strconv.Itoa(r.Finish),
			strconv.Itoa(r.Turnaround),
			strconv.Itoa(r.Wait),
			strconv.FormatFloat(r.ServiceIndex, 'f', 4, 64),
		})
	}

	table.SetFooter([]string{
		"", "", "", "", "", "Average I",
		fmt.Sprintf("%.2f", t.AverageServiceIndex()),
	})

	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)

	return table
}

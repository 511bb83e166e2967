package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteReport renders results as a table.
func WriteReport(w io.Writer, results []Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Qubits", "Gates", "Reps", "Strategy", "Mean", "Min", "Max"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range results {
		table.Append([]string{
			r.Scenario,
			fmt.Sprint(r.Qubits),
			fmt.Sprint(r.Gates),
			fmt.Sprint(r.Repetitions),
			r.Strategy.String(),
			formatDuration(r.Mean),
			formatDuration(r.Min),
			formatDuration(r.Max),
		})
	}
	table.Render()
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond / 10).String()
}

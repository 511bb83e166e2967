package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"qdeck/internal/register"
)

// writeState prints the non-zero amplitudes of reg followed by per-qubit
// probabilities.
func writeState(w io.Writer, reg *register.Register) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Basis", "Amplitude", "Probability"})
	table.SetAutoFormatHeaders(false)
	for _, s := range reg.BasisStates(1e-10) {
		table.Append([]string{
			"|" + s.Label + "⟩",
			fmt.Sprintf("%+.6f", s.Amplitude),
			fmt.Sprintf("%.6f", s.Probability),
		})
	}
	table.Render()

	probs := tablewriter.NewWriter(w)
	probs.SetHeader([]string{"Qubit", "P(0)", "P(1)"})
	probs.SetAutoFormatHeaders(false)
	for q, p := range reg.Probabilities() {
		probs.Append([]string{
			fmt.Sprintf("q[%d]", q),
			fmt.Sprintf("%.6f", p.Prob0),
			fmt.Sprintf("%.6f", p.Prob1),
		})
	}
	probs.Render()
}

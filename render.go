package main

import (
	"fmt"
	"strings"

	"qdeck/internal/circuit"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// cellInfo describes what occupies a single cell in the circuit grid.
type cellInfo struct {
	gate        *circuit.Gate
	isControl   bool
	isTarget    bool
	vertAbove   bool
	vertBelow   bool
	passThrough bool
}

// getCellInfo returns rendering information for the cell at (step, qubit).
func getCellInfo(c *circuit.Circuit, step, qubit int) cellInfo {
	var info cellInfo

	if gate := c.GetGateAt(step, qubit); gate != nil {
		info.gate = gate
		info.isControl = gate.Control == qubit
		info.isTarget = gate.Target == qubit && gate.Control >= 0
	}

	// Vertical wire for CNOTs spanning this qubit
	for _, g := range c.Gates {
		if g.Step != step || g.Control < 0 {
			continue
		}
		minQ, maxQ := min(g.Control, g.Target), max(g.Control, g.Target)
		if qubit < minQ || qubit > maxQ {
			continue
		}
		if qubit > minQ {
			info.vertAbove = true
		}
		if qubit < maxQ {
			info.vertBelow = true
		}
		if qubit > minQ && qubit < maxQ && info.gate == nil {
			info.passThrough = true
		}
	}

	return info
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlTargetSelect
)

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW (11) visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)

	// ── Highlighted cell (cursor or target selection) ──
	if hl == hlCursor || hl == hlTargetSelect {
		bdr := cursorBoxStyle
		if hl == hlTargetSelect {
			bdr = targetSelectStyle
		}
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")

		switch {
		case info.isControl:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + gateStyle.Render("●") + strings.Repeat("─", dashR) + bdr.Render("║")
		case info.isTarget:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + gateStyle.Render("⊕") + strings.Repeat("─", dashR) + bdr.Render("║")
		case info.gate != nil:
			name := padCenter(info.gate.Type, gateNameW)
			mid = bdr.Render("║") + "─┤" + gateStyle.Render(name) + "├─" + bdr.Render("║")
		case info.passThrough:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR) + bdr.Render("║")
		default:
			mid = bdr.Render("║") + strings.Repeat("─", innerW) + bdr.Render("║")
		}
		return
	}

	// ── Normal (non-highlighted) cells ──
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch {
	case info.isControl:
		mid = strings.Repeat("─", dashL) + gateStyle.Render("●") + strings.Repeat("─", dashR)
	case info.isTarget:
		mid = strings.Repeat("─", dashL) + gateStyle.Render("⊕") + strings.Repeat("─", dashR)
	case info.gate != nil:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		name := padCenter(info.gate.Type, gateNameW)

		top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
	case info.passThrough:
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
	default:
		mid = strings.Repeat("─", cellW)
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Quantum Circuit"))
	sb.WriteString("\n\n")

	// How many steps fit
	availWidth := width - labelVisualW - 4
	maxSteps := max(availWidth/cellW, 1)

	startStep := 0
	if m.cursorStep >= maxSteps {
		startStep = m.cursorStep - maxSteps + 1
	}

	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing steps %d–%d\n", startStep, startStep+maxSteps-1)
	}

	header := strings.Repeat(" ", labelVisualW)
	for step := startStep; step < startStep+maxSteps; step++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW))
	}
	sb.WriteString(header + "\n")

	// Render each qubit as 3 lines
	for qubit := range m.circuit.NumQubits {
		topLine := strings.Repeat(" ", labelVisualW)
		label := fmt.Sprintf("q[%d]", qubit)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-5s", label)) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for step := startStep; step < startStep+maxSteps; step++ {
			info := getCellInfo(m.circuit, step, qubit)

			hl := hlNone
			if step == m.cursorStep && qubit == m.cursorQubit && (m.focus == focusCircuit || m.focus == focusSelectTarget || m.focus == focusMenu) {
				hl = hlCursor
			} else if step == m.cursorStep && qubit == m.targetQubit && (m.focus == focusSelectTarget || m.focus == focusEditTarget || m.focus == focusEditControl) {
				hl = hlTargetSelect
			}

			top, mid, bot := renderCell(info, hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	// Status line
	if m.focus == focusSelectTarget || m.focus == focusEditTarget || m.focus == focusEditControl {
		role := "target"
		if m.focus == focusEditControl {
			role = "control"
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s", activeGateStyle.Render(m.pendingGate))
		fmt.Fprintf(&sb, "  Select %s qubit: ", role)
		sb.WriteString(targetSelectStyle.Render(fmt.Sprintf("q[%d]", m.targetQubit)))
		sb.WriteString(dimStyle.Render("   ↑↓ Move  Enter Confirm  Esc Cancel"))
	} else {
		fmt.Fprintf(&sb, "\n  Position: Step %d, Qubit %d", m.cursorStep, m.cursorQubit)
		if m.statusMsg != "" {
			fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
		}
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderQASMPanel renders the QASM editor panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM Editor"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())
	if m.qasmErr != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(m.qasmErr.Error()))
	}

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderStatePanel lists the non-zero amplitudes of the register after the
// cursor step.
func (m Model) renderStatePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("State after step %d", m.cursorStep)))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  (%s)", m.strategy)))
	sb.WriteString("\n")

	switch {
	case m.circuit.NumQubits > maxStateQubits:
		sb.WriteString(dimStyle.Render(fmt.Sprintf("not simulated above %d qubits", maxStateQubits)))
	case m.simErr != nil:
		sb.WriteString(errorStyle.Render(m.simErr.Error()))
	case m.sim != nil:
		states := m.sim.BasisStates(1e-10)
		barW := max(width-m.circuit.NumQubits-28, 4)
		for i, s := range states {
			if i == maxStateRows {
				sb.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(states)-maxStateRows)))
				break
			}
			amp := ampPositiveStyle.Render(fmt.Sprintf("%+.4f", s.Amplitude))
			if s.Amplitude < 0 {
				amp = ampNegativeStyle.Render(fmt.Sprintf("%+.4f", s.Amplitude))
			}
			bar := strings.Repeat("█", int(s.Probability*float64(barW)+0.5))
			fmt.Fprintf(&sb, "|%s⟩ %s %s %s\n",
				qubitLabelStyle.Render(s.Label), amp,
				probBarStyle.Render(fmt.Sprintf("%-*s", barW, bar)),
				dimStyle.Render(fmt.Sprintf("%.3f", s.Probability)))
		}
	}

	return stateStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Move qubit  ←→/hl Move step  +/- Qubits")
	sb.WriteString("    ")
	sb.WriteString(activeGateStyle.Render("a"))
	sb.WriteString(" Add gate  ")
	sb.WriteString(activeGateStyle.Render("e"))
	sb.WriteString(" Edit gate\n")

	sb.WriteString(activeGateStyle.Render("Actions:  "))
	sb.WriteString("Tab Switch focus  Bksp Delete  c Compact  ^R Reset  ^S Save  ^E Export state  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// isEscFinal reports whether r terminates an ANSI CSI sequence.
func isEscFinal(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at position x in bgLine with overlay content.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder

	col, i := 0, 0
	// Collect prefix: everything up to visible column x
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				r := runes[i]
				prefix.WriteRune(r)
				i++
				if r != '\x1b' && r != '[' && isEscFinal(r) {
					break
				}
			}
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}

	// Pad prefix if bg line is shorter than x
	for ; col < x; col++ {
		prefix.WriteRune(' ')
	}

	// Skip over ovWidth visible columns in the background
	for skipped := 0; i < len(runes) && skipped < ovWidth; {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				r := runes[i]
				i++
				if r != '\x1b' && r != '[' && isEscFinal(r) {
					break
				}
			}
			continue
		}
		skipped++
		i++
	}

	for ; i < len(runes); i++ {
		suffix.WriteRune(runes[i])
	}

	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscFinal(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}

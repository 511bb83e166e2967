package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"qdeck/internal/circuit"
	"qdeck/internal/register"
	"qdeck/internal/snapshot"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusSelectTarget
	focusEditGate
	focusEditTarget
	focusEditControl
)

// Model represents the TUI application state.
type Model struct {
	circuit     *circuit.Circuit
	cursorQubit int
	cursorStep  int
	width       int
	height      int
	qasmEditor  textarea.Model
	focus       focus
	lastQASM    string
	qasmErr     error  // last QASM editor parse failure
	statusMsg   string // transient status message (e.g. save confirmation)

	// Menu state
	menuCat  int
	menuItem int

	// Target-selection state (for CNOT)
	pendingGate string
	targetQubit int

	// Edit gate state
	editGate    circuit.Gate // working copy of the gate being edited
	editOrig    circuit.Gate // the gate as it sits in the circuit
	editMenuIdx int

	// Live simulation of the circuit up to the cursor step
	strategy register.Strategy
	qasmFile string
	log      zerolog.Logger
	sim      *register.Register
	simErr   error
}

// modelConfig carries the settings the TUI needs from the command line.
type modelConfig struct {
	strategy register.Strategy
	qasmFile string
	log      zerolog.Logger
	initial  *circuit.Circuit // optional circuit to open
}

func initialModel(cfg modelConfig) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)

	c := cfg.initial
	if c == nil {
		c = circuit.New(4)
	}
	qasmFile := cfg.qasmFile
	if qasmFile == "" {
		qasmFile = "circuit.qasm"
	}

	m := Model{
		circuit:    c,
		qasmEditor: ta,
		focus:      focusCircuit,
		strategy:   cfg.strategy,
		qasmFile:   qasmFile,
		log:        cfg.log,
	}

	m.syncFromCircuit()
	return m
}

// syncFromCircuit refreshes the QASM view and the simulated state after the
// circuit changed.
func (m *Model) syncFromCircuit() {
	qasm := m.circuit.ToQASM()
	m.qasmEditor.SetValue(qasm)
	m.lastQASM = qasm
	m.qasmErr = nil
	m.simulate()
}

func (m *Model) parseQASMInput() {
	qasm := m.qasmEditor.Value()
	if qasm == m.lastQASM {
		return
	}
	m.lastQASM = qasm

	next := circuit.New(m.circuit.NumQubits)
	if err := next.ParseQASM(qasm); err != nil {
		m.qasmErr = err
		return
	}
	if err := next.Validate(); err != nil {
		m.qasmErr = err
		return
	}
	m.qasmErr = nil
	m.circuit = next
	m.cursorQubit = min(m.cursorQubit, next.NumQubits-1)
	m.simulate()
}

// simulate runs the circuit through the cursor step on a fresh register.
func (m *Model) simulate() {
	m.sim, m.simErr = nil, nil
	if m.circuit.NumQubits > maxStateQubits {
		return
	}
	m.sim, m.simErr = m.circuit.Simulate(m.cursorStep,
		register.WithStrategy(m.strategy),
		register.WithLogger(m.log),
	)
	if m.simErr != nil {
		m.log.Warn().Err(m.simErr).Int("step", m.cursorStep).Msg("simulation failed")
	}
}

// spanQubits lists every qubit a gate between a and b occupies on the grid.
func spanQubits(a, b int) []int {
	lo, hi := min(a, b), max(a, b)
	qubits := make([]int, 0, hi-lo+1)
	for q := lo; q <= hi; q++ {
		qubits = append(qubits, q)
	}
	return qubits
}

func gateQubits(g circuit.Gate) []int {
	if g.Control < 0 {
		return []int{g.Target}
	}
	return spanQubits(g.Control, g.Target)
}

// placeGate places a gate on the circuit at the cursor position.
// targetQ is the target qubit for CNOT (-1 for single-qubit gates), with the
// cursor qubit as control.
// Returns true if placement succeeded, false if blocked by conflict.
func (m *Model) placeGate(gateType string, targetQ int) bool {
	g := circuit.Gate{Type: gateType, Target: m.cursorQubit, Control: -1, Step: m.cursorStep}
	if gateType == circuit.TypeCX {
		g.Target, g.Control = targetQ, m.cursorQubit
	}

	if !m.circuit.CanPlaceAt(m.cursorStep, gateQubits(g)) {
		m.statusMsg = "Cannot place: qubit already used by another gate at this step"
		m.pendingGate = ""
		return false
	}

	m.circuit.AddGate(g.Type, g.Target, g.Step, g.Control)
	m.log.Debug().Str("gate", g.Type).Int("target", g.Target).Int("control", g.Control).Int("step", g.Step).Msg("gate placed")
	m.pendingGate = ""

	m.cursorStep++
	m.syncFromCircuit()
	return true
}

// replaceGate swaps the gate being edited for updated, keeping the original
// when updated would collide with another gate.
func (m *Model) replaceGate(updated circuit.Gate) {
	m.circuit.RemoveGateAt(m.editOrig.Step, m.editOrig.Target)
	if !m.circuit.CanPlaceAt(updated.Step, gateQubits(updated)) {
		m.circuit.AddGate(m.editOrig.Type, m.editOrig.Target, m.editOrig.Step, m.editOrig.Control)
		m.editGate = m.editOrig
		m.statusMsg = "Cannot move: qubit already used by another gate at this step"
		m.syncFromCircuit()
		return
	}
	m.circuit.AddGate(updated.Type, updated.Target, updated.Step, updated.Control)
	m.editOrig, m.editGate = updated, updated
	m.syncFromCircuit()
}

func (m *Model) saveQASM() {
	if err := os.WriteFile(m.qasmFile, []byte(m.circuit.ToQASM()), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	m.statusMsg = "Saved " + m.qasmFile
}

func (m *Model) exportState() {
	if m.sim == nil {
		m.statusMsg = "Nothing to export"
		return
	}
	path := strings.TrimSuffix(m.qasmFile, filepath.Ext(m.qasmFile)) + ".msgpack"
	snap := snapshot.Take(m.sim, m.circuit.ToQASM())
	if err := snap.Save(path); err != nil {
		m.statusMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	m.statusMsg = "Exported " + path
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.layout()
		m.qasmEditor.SetWidth(max(l.sideW-6, 20))
		m.qasmEditor.SetHeight(max(l.qasmH-4, 3))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "ctrl+r":
				m.circuit = circuit.New(m.circuit.NumQubits)
				m.cursorStep = 0
				m.syncFromCircuit()
			case "ctrl+s":
				m.saveQASM()
			case "ctrl+e":
				m.exportState()
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.circuit.NumQubits-1 {
					m.cursorQubit++
				}
			case "left", "h":
				if m.cursorStep > 0 {
					m.cursorStep--
					m.simulate()
				}
			case "right", "l":
				m.cursorStep++
				m.simulate()
			case "+", "=":
				m.circuit.NumQubits++
				m.syncFromCircuit()
			case "-":
				if m.circuit.NumQubits > 1 {
					m.circuit.NumQubits--
					m.cursorQubit = min(m.cursorQubit, m.circuit.NumQubits-1)
					m.circuit.RemoveGatesOnQubit(m.circuit.NumQubits)
					m.syncFromCircuit()
				}
			case "c":
				m.circuit.Compact()
				m.syncFromCircuit()
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "backspace", "delete":
				m.circuit.RemoveGateAt(m.cursorStep, m.cursorQubit)
				m.syncFromCircuit()
			case "e":
				if g := m.circuit.GetGateAt(m.cursorStep, m.cursorQubit); g != nil {
					m.editOrig, m.editGate = *g, *g
					m.editMenuIdx = 0
					m.focus = focusEditGate
				}
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				cat := gateMenu[m.menuCat]
				if m.menuItem < len(cat.items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				item := gateMenu[m.menuCat].items[m.menuItem]
				m.pendingGate = item.gateType

				if item.needsTarget {
					if m.circuit.NumQubits < 2 {
						m.statusMsg = "CNOT needs at least two qubits"
						m.focus = focusCircuit
						break
					}
					m.focus = focusSelectTarget
					m.targetQubit = m.defaultTarget(m.cursorQubit)
				} else if m.placeGate(item.gateType, -1) {
					m.focus = focusCircuit
				}
			}

		case focusSelectTarget:
			switch key {
			case "esc":
				m.focus = focusCircuit
				m.pendingGate = ""
			case "up", "k":
				m.targetQubit = m.stepTarget(m.targetQubit, -1, m.cursorQubit)
			case "down", "j":
				m.targetQubit = m.stepTarget(m.targetQubit, 1, m.cursorQubit)
			case "enter":
				m.placeGate(m.pendingGate, m.targetQubit)
				m.focus = focusCircuit
			}

		case focusEditGate:
			editOptions := m.getEditOptions()
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.editMenuIdx > 0 {
					m.editMenuIdx--
				}
			case "down", "j":
				if m.editMenuIdx < len(editOptions)-1 {
					m.editMenuIdx++
				}
			case "enter":
				switch editOptions[m.editMenuIdx].action {
				case "edit_target":
					m.targetQubit = m.editGate.Target
					m.pendingGate = m.editGate.Type
					m.focus = focusEditTarget
				case "edit_control":
					m.targetQubit = m.editGate.Control
					m.pendingGate = m.editGate.Type
					m.focus = focusEditControl
				case "delete":
					m.circuit.RemoveGateAt(m.editOrig.Step, m.editOrig.Target)
					m.focus = focusCircuit
					m.syncFromCircuit()
				}
			}

		case focusEditTarget, focusEditControl:
			// The other end of a CNOT is off limits.
			blocked := m.editGate.Target
			if m.focus == focusEditTarget {
				blocked = m.editGate.Control
			}
			switch key {
			case "esc":
				m.focus = focusEditGate
			case "up", "k":
				m.targetQubit = m.stepTarget(m.targetQubit, -1, blocked)
			case "down", "j":
				m.targetQubit = m.stepTarget(m.targetQubit, 1, blocked)
			case "enter":
				updated := m.editGate
				if m.focus == focusEditTarget {
					updated.Target = m.targetQubit
				} else {
					updated.Control = m.targetQubit
				}
				m.replaceGate(updated)
				m.focus = focusEditGate
			}

		case focusQASM:
			switch key {
			case "tab":
				m.focus = focusCircuit
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				m.parseQASMInput()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// defaultTarget picks the qubit below q, or above it on the last wire.
func (m *Model) defaultTarget(q int) int {
	if q+1 < m.circuit.NumQubits {
		return q + 1
	}
	return q - 1
}

// stepTarget moves from qubit cur in direction dir, skipping the blocked
// qubit. It stays put at the edges.
func (m *Model) stepTarget(cur, dir, blocked int) int {
	for next := cur + dir; next >= 0 && next < m.circuit.NumQubits; next += dir {
		if next != blocked {
			return next
		}
	}
	return cur
}

// editOption represents an option in the edit gate menu.
type editOption struct {
	label  string
	action string
}

// getEditOptions returns available edit options for the current gate.
func (m *Model) getEditOptions() []editOption {
	opts := []editOption{{
		label:  fmt.Sprintf("Target: q[%d]", m.editGate.Target),
		action: "edit_target",
	}}
	if m.editGate.Control >= 0 {
		opts = append(opts, editOption{
			label:  fmt.Sprintf("Control: q[%d]", m.editGate.Control),
			action: "edit_control",
		})
	}
	return append(opts, editOption{label: "Delete gate", action: "delete"})
}

// panelLayout holds the panel sizes for the current window.
type panelLayout struct {
	circuitW  int
	sideW     int
	topH      int
	qasmH     int
	stateH    int
	controlsH int
}

func (m Model) layout() panelLayout {
	l := panelLayout{controlsH: 6}
	l.sideW = m.width / 3
	l.circuitW = m.width - l.sideW - 4
	l.topH = max(m.height-l.controlsH-2, 6)
	l.stateH = max(min(maxStateRows+2, l.topH/2), 3)
	l.qasmH = max(l.topH-l.stateH-2, 3)
	return l
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	l := m.layout()
	circuitPanel := m.renderCircuitPanel(l.circuitW, l.topH)
	side := lipgloss.JoinVertical(lipgloss.Left,
		m.renderQASMPanel(l.sideW, l.qasmH),
		m.renderStatePanel(l.sideW, l.stateH),
	)
	controlsPanel := m.renderControlsPanel(m.width-4, l.controlsH-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, side)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusEditGate:
		frame = overlayAt(frame, m.renderEditGateMenu(), 2, 2)
	}

	return frame
}

// renderEditGateMenu renders the edit gate menu overlay.
func (m Model) renderEditGateMenu() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Edit " + m.editGate.Type))
	sb.WriteString("\n\n")
	for i, opt := range m.getEditOptions() {
		if i == m.editMenuIdx {
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("▸ %s", opt.label)))
		} else {
			fmt.Fprintf(&sb, "  %s", opt.label)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("↑↓ Select  ⏎ Ok  Esc ✕"))
	return menuBorderStyle.Render(sb.String())
}

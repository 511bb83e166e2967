package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	singleGateRegex = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\]\s*;?$`)
	twoQubitRegex   = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\]\s*,\s*q\[(\d+)\]\s*;?$`)
	qregRegex       = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\]\s*;?$`)
)

// ToQASM generates QASM 2.0 output from the circuit.
func (c *Circuit) ToQASM() string {
	numQubits := max(c.NumQubits, 1)
	for _, g := range c.Gates {
		numQubits = max(numQubits, g.Target+1, g.Control+1)
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n\n", numQubits)

	for _, g := range c.Ordered() {
		if g.Control >= 0 {
			fmt.Fprintf(&sb, "%s q[%d], q[%d];\n", strings.ToLower(g.Type), g.Control, g.Target)
			continue
		}
		fmt.Fprintf(&sb, "%s q[%d];\n", strings.ToLower(g.Type), g.Target)
	}
	return sb.String()
}

// ParseQASM parses QASM text and rebuilds the circuit from it. Gates on
// disjoint qubits are packed into the same step. On error the circuit is left
// unchanged.
func (c *Circuit) ParseQASM(qasm string) error {
	parsed := Circuit{NumQubits: c.NumQubits}

	for i, line := range strings.Split(qasm, "\n") {
		lineNo := i + 1
		if cut := strings.Index(line, "//"); cut >= 0 {
			line = line[:cut]
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "OPENQASM"),
			strings.HasPrefix(line, "include"),
			strings.HasPrefix(line, "creg"),
			strings.HasPrefix(line, "barrier"):
			continue
		case strings.HasPrefix(line, "qreg"):
			matches := qregRegex.FindStringSubmatch(line)
			if matches == nil {
				return fmt.Errorf("line %d: malformed qreg %q", lineNo, line)
			}
			count, err := strconv.Atoi(matches[2])
			if err != nil || count <= 0 {
				return fmt.Errorf("line %d: invalid qubit count %q", lineNo, matches[2])
			}
			parsed.NumQubits = count
			continue
		}

		// Two-qubit gates: cx
		if matches := twoQubitRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			if gateType != "CX" && gateType != "CNOT" {
				return fmt.Errorf("line %d: %w %q", lineNo, ErrUnsupported, line)
			}
			control, _ := strconv.Atoi(matches[2])
			target, _ := strconv.Atoi(matches[3])
			parsed.Append(TypeCX, target, control)
			continue
		}

		// Single-qubit gates: h, x, z
		if matches := singleGateRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			switch gateType {
			case TypeH, TypeX, TypeZ:
			default:
				return fmt.Errorf("line %d: %w %q", lineNo, ErrUnsupported, line)
			}
			target, _ := strconv.Atoi(matches[2])
			parsed.Append(gateType, target)
			continue
		}

		return fmt.Errorf("line %d: %w %q", lineNo, ErrUnsupported, line)
	}

	parsed.Compact()
	*c = parsed
	return nil
}

// ParseQASM returns a new circuit parsed from QASM text.
func ParseQASM(qasm string) (*Circuit, error) {
	c := &Circuit{}
	if err := c.ParseQASM(qasm); err != nil {
		return nil, err
	}
	return c, nil
}

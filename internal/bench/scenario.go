// Package bench times gate programs against freshly constructed registers.
package bench

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"qdeck/internal/circuit"
)

// DefaultRepetitions is used when a scenario does not set its own.
const DefaultRepetitions = 10

var ErrInvalidSuite = errors.New("invalid suite")

// Scenario is one timed workload. Program is a QASM gate body; the qreg
// declaration is derived from Qubits.
type Scenario struct {
	Name        string `yaml:"name"`
	Qubits      int    `yaml:"qubits"`
	Repetitions int    `yaml:"repetitions,omitempty"`
	Program     string `yaml:"program"`
}

// Suite is an ordered list of scenarios.
type Suite struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Circuit parses the scenario program into a circuit over Qubits qubits.
func (s Scenario) Circuit() (*circuit.Circuit, error) {
	if s.Qubits <= 0 {
		return nil, fmt.Errorf("%w: scenario %q has %d qubits", ErrInvalidSuite, s.Name, s.Qubits)
	}
	c, err := circuit.ParseQASM(fmt.Sprintf("qreg q[%d];\n%s", s.Qubits, s.Program))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if c.NumQubits != s.Qubits {
		return nil, fmt.Errorf("%w: scenario %q declares qreg q[%d] but qubits is %d",
			ErrInvalidSuite, s.Name, c.NumQubits, s.Qubits)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return c, nil
}

func (s Scenario) reps() int {
	if s.Repetitions > 0 {
		return s.Repetitions
	}
	return DefaultRepetitions
}

// Validate checks names are present and unique and every program parses.
func (s Suite) Validate() error {
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("%w: no scenarios", ErrInvalidSuite)
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("%w: scenario %d has no name", ErrInvalidSuite, i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("%w: duplicate scenario %q", ErrInvalidSuite, sc.Name)
		}
		seen[sc.Name] = true
		if sc.Repetitions < 0 {
			return fmt.Errorf("%w: scenario %q has negative repetitions", ErrInvalidSuite, sc.Name)
		}
		if _, err := sc.Circuit(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSuite reads a YAML suite file.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes a YAML suite document.
func ParseSuite(data []byte) (Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("%w: %v", ErrInvalidSuite, err)
	}
	if err := s.Validate(); err != nil {
		return Suite{}, err
	}
	return s, nil
}

// Marshal encodes the suite as YAML.
func (s Suite) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Names lists the scenario names in order.
func (s Suite) Names() []string {
	names := make([]string, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		names[i] = sc.Name
	}
	return names
}

// Filter keeps the named scenarios. An empty list keeps everything.
func (s Suite) Filter(names ...string) (Suite, error) {
	if len(names) == 0 {
		return s, nil
	}
	byName := make(map[string]Scenario, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		byName[sc.Name] = sc
	}
	var out Suite
	for _, n := range names {
		sc, ok := byName[n]
		if !ok {
			return Suite{}, fmt.Errorf("%w: unknown scenario %q (have %s)",
				ErrInvalidSuite, n, strings.Join(s.Names(), ", "))
		}
		out.Scenarios = append(out.Scenarios, sc)
	}
	return out, nil
}

// DefaultSuite is the reference workload: each single gate once on ten
// qubits, two GHZ preparations and a four-qubit Deutsch-Jozsa run.
func DefaultSuite() Suite {
	ghz := []string{"h q[0];"}
	for i := 1; i < 10; i++ {
		ghz = append(ghz, fmt.Sprintf("cx q[0], q[%d];", i))
	}
	ghzRepeat := []string{"h q[0];"}
	for range 10 {
		ghzRepeat = append(ghzRepeat, "cx q[0], q[1];")
	}

	return Suite{Scenarios: []Scenario{
		{Name: "hadamard", Qubits: 10, Program: "h q[0];"},
		{Name: "x", Qubits: 10, Program: "x q[0];"},
		{Name: "cnot", Qubits: 10, Program: "cx q[0], q[1];"},
		{Name: "z", Qubits: 10, Program: "z q[0];"},
		{Name: "ghz", Qubits: 10, Program: strings.Join(ghz, "\n")},
		{Name: "ghz-repeat", Qubits: 10, Program: strings.Join(ghzRepeat, "\n")},
		{Name: "deutsch-jozsa", Qubits: 4, Program: deutschJozsa},
	}}
}

// Balanced oracle f(x) = x0 ⊕ x1 ⊕ x2 with the ancilla on q[3].
const deutschJozsa = `h q[0];
h q[1];
h q[2];
x q[3];
x q[0];
x q[2];
h q[3];
cx q[0], q[3];
cx q[1], q[3];
cx q[2], q[3];
x q[0];
x q[2];
h q[0];
h q[1];
h q[2];`

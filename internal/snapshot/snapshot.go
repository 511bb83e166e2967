// Package snapshot stores register states on disk.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"qdeck/internal/register"
)

// ErrCorrupt is returned when a decoded snapshot is internally inconsistent.
var ErrCorrupt = errors.New("corrupt snapshot")

// Snapshot is a point-in-time copy of a register's amplitudes.
type Snapshot struct {
	ID         uuid.UUID `msgpack:"id"`
	Qubits     int       `msgpack:"qubits"`
	Strategy   string    `msgpack:"strategy"`
	Source     string    `msgpack:"source,omitempty"` // program text that produced the state
	TakenAt    time.Time `msgpack:"taken_at"`
	Amplitudes []float64 `msgpack:"amplitudes"`
}

// Take copies reg's current state.
func Take(reg *register.Register, source string) *Snapshot {
	return &Snapshot{
		ID:         uuid.New(),
		Qubits:     reg.Qubits(),
		Strategy:   reg.Strategy().String(),
		Source:     source,
		TakenAt:    time.Now().UTC(),
		Amplitudes: reg.State(),
	}
}

// Validate checks the amplitude count matches the qubit count.
func (s *Snapshot) Validate() error {
	if s.Qubits <= 0 || s.Qubits > 62 {
		return fmt.Errorf("%w: qubit count %d", ErrCorrupt, s.Qubits)
	}
	if want := 1 << s.Qubits; len(s.Amplitudes) != want {
		return fmt.Errorf("%w: %d amplitudes for %d qubits, want %d", ErrCorrupt, len(s.Amplitudes), s.Qubits, want)
	}
	if _, err := register.ParseStrategy(s.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// Restore builds a register holding the snapshot's amplitudes. The stored
// strategy is applied first so opts can override it.
func (s *Snapshot) Restore(opts ...register.Option) (*register.Register, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy, _ := register.ParseStrategy(s.Strategy)
	opts = append([]register.Option{register.WithStrategy(strategy)}, opts...)
	return register.FromAmplitudes(s.Amplitudes, opts...)
}

// Encode serialises the snapshot with msgpack.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a msgpack snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the encoded snapshot to path.
func (s *Snapshot) Save(path string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}

// Package pipeline sequences normalization, quality gating, segmentation,
// transcript cleaning and dataset accumulation for one input file at a time.
package pipeline

import "errors"

// State tracks one input file's progress through the pipeline.
type State string

const (
	// StateNormalized means the file was decoded to a canonical waveform.
	StateNormalized State = "NORMALIZED"
	// StateQualityChecked means the file passed the quality gate.
	StateQualityChecked State = "QUALITY_CHECKED"
	// StateSegmented means segmentation produced at least one clip.
	StateSegmented State = "SEGMENTED"
	// StateTranscribed means all clips carry their transcripts.
	StateTranscribed State = "TRANSCRIBED"
	// StateFinalized means all clips and metadata were written to the sinks.
	StateFinalized State = "FINALIZED"
	// StateRejected means the quality gate refused the file. Terminal.
	StateRejected State = "REJECTED"
	// StateEmpty means segmentation yielded zero clips. Terminal.
	StateEmpty State = "EMPTY"
)

// IsTerminal reports whether the state ends processing for the file.
func (s State) IsTerminal() bool {
	switch s {
	case StateFinalized, StateRejected, StateEmpty:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition is returned when a state transition is not allowed.
var ErrInvalidTransition = errors.New("invalid pipeline state transition")

var validTransitions = map[State][]State{
	StateNormalized:     {StateQualityChecked, StateRejected},
	StateQualityChecked: {StateSegmented, StateEmpty},
	StateSegmented:      {StateTranscribed},
	StateTranscribed:    {StateFinalized},
	StateFinalized:      {},
	StateRejected:       {},
	StateEmpty:          {},
}

// run is the per-file state tracker. It exists to make illegal orderings
// (for example segmenting a rejected file) impossible to reach silently.
type run struct {
	state State
}

func newRun() *run {
	return &run{state: StateNormalized}
}

func (r *run) advance(to State) error {
	for _, allowed := range validTransitions[r.state] {
		if allowed == to {
			r.state = to
			return nil
		}
	}
	return ErrInvalidTransition
}

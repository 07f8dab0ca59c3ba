// Package wizard gates the Info -> Products -> Review flow of an export draft.
package wizard

import (
	"errors"
	"fmt"
)

// Step is a wizard state
type Step string

const (
	StepInfo      Step = "INFO"
	StepProducts  Step = "PRODUCTS"
	StepReview    Step = "REVIEW"
	StepSubmitted Step = "SUBMITTED"
)

var order = []Step{StepInfo, StepProducts, StepReview, StepSubmitted}

var (
	ErrUnknownStep    = errors.New("unknown wizard step")
	ErrAlreadyLast    = errors.New("no step after review; submit instead")
	ErrSubmitted      = errors.New("draft has already been submitted")
	ErrNotSubmittable = errors.New("only a draft on the review step can be submitted")
)

// Gates checks the data that must be valid to leave a step forwards
type Gates interface {
	// CheckHeader guards Info -> Products
	CheckHeader() error
	// CheckLines guards Products -> Review
	CheckLines() error
}

func (s Step) index() int {
	for i, step := range order {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known step
func (s Step) Valid() bool { return s.index() >= 0 }

// Machine tracks the current step of one draft
type Machine struct {
	step Step
}

// New restores a machine at step; an empty step starts at Info.
func New(step Step) (*Machine, error) {
	if step == "" {
		step = StepInfo
	}
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return &Machine{step: step}, nil
}

// Step returns the current step
func (m *Machine) Step() Step { return m.step }

// Next moves one step forward if the gate of the current step passes.
func (m *Machine) Next(g Gates) (Step, error) {
	switch m.step {
	case StepReview:
		return m.step, ErrAlreadyLast
	case StepSubmitted:
		return m.step, ErrSubmitted
	}
	if err := gate(m.step, g); err != nil {
		return m.step, err
	}
	m.step = order[m.step.index()+1]
	return m.step, nil
}

// Back moves one step backwards. It never touches draft data.
func (m *Machine) Back() (Step, error) {
	switch m.step {
	case StepSubmitted:
		return m.step, ErrSubmitted
	case StepInfo:
		return m.step, nil
	}
	m.step = order[m.step.index()-1]
	return m.step, nil
}

// GoTo jumps to target. Moving forward runs every gate on the way; the
// machine stops at the first step whose gate fails.
func (m *Machine) GoTo(target Step, g Gates) (Step, error) {
	if !target.Valid() || target == StepSubmitted {
		return m.step, fmt.Errorf("%w: %q", ErrUnknownStep, target)
	}
	if m.step == StepSubmitted {
		return m.step, ErrSubmitted
	}
	for m.step.index() > target.index() {
		m.Back()
	}
	for m.step.index() < target.index() {
		if _, err := m.Next(g); err != nil {
			return m.step, err
		}
	}
	return m.step, nil
}

// Settle moves back to the first step whose forward gate no longer passes,
// so the machine never sits past a gate its data fails. It returns that
// gate's error, or nil when the current step still holds.
func (m *Machine) Settle(g Gates) error {
	if m.step == StepSubmitted {
		return nil
	}
	for _, from := range order[:m.step.index()] {
		if err := gate(from, g); err != nil {
			m.step = from
			return err
		}
	}
	return nil
}

// Submittable re-runs every gate. Submission is only reachable from Review.
func (m *Machine) Submittable(g Gates) error {
	switch m.step {
	case StepSubmitted:
		return ErrSubmitted
	case StepReview:
	default:
		return ErrNotSubmittable
	}
	if err := g.CheckHeader(); err != nil {
		return err
	}
	return g.CheckLines()
}

// Complete marks the draft as submitted
func (m *Machine) Complete() {
	m.step = StepSubmitted
}

func gate(from Step, g Gates) error {
	switch from {
	case StepInfo:
		return g.CheckHeader()
	case StepProducts:
		return g.CheckLines()
	}
	return nil
}

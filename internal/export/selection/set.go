// Package selection holds the lines of an export being built and the pure
// rules deciding which lots and quantities each line may still choose.
package selection

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

// DefaultQuantity is the quantity of a freshly added line
const DefaultQuantity = 1

// Set is the ordered list of lines of one draft. It is not safe for
// concurrent use; callers serialize access per draft.
type Set struct {
	lines    []domain.SelectionLine
	baseline map[string]int
	keepOne  bool
	newID    func() string
}

// Option configures a Set
type Option func(*Set)

// WithIDGenerator overrides how local ids of new lines are generated
func WithIDGenerator(fn func() string) Option {
	return func(s *Set) { s.newID = fn }
}

// New restores a set from its current lines. A non-nil baseline marks an
// edit of a saved export: saved lines are locked to quantity edits and the
// last line cannot be removed.
func New(lines, baseline []domain.SelectionLine, opts ...Option) *Set {
	s := &Set{
		lines: append([]domain.SelectionLine(nil), lines...),
		newID: func() string { return uuid.New().String() },
	}
	if baseline != nil {
		s.keepOne = true
		s.baseline = make(map[string]int, len(baseline))
		for _, l := range baseline {
			s.baseline[l.LocalID] = l.Quantity
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lines returns a copy of the lines in display order
func (s *Set) Lines() []domain.SelectionLine {
	return append([]domain.SelectionLine(nil), s.lines...)
}

// Len returns the number of lines
func (s *Set) Len() int { return len(s.lines) }

// Line returns one line by local id
func (s *Set) Line(id string) (domain.SelectionLine, error) {
	i, err := s.find(id)
	if err != nil {
		return domain.SelectionLine{}, err
	}
	return s.lines[i], nil
}

// Add appends an empty new line with the default quantity
func (s *Set) Add() domain.SelectionLine {
	return s.Append(domain.SelectionLine{Quantity: DefaultQuantity})
}

// Append adds a new line with the given fields; LocalID and flags are assigned here.
func (s *Set) Append(l domain.SelectionLine) domain.SelectionLine {
	l.LocalID = s.newID()
	l.IsNew = true
	l.IsDirty = false
	s.lines = append(s.lines, l)
	return l
}

// Remove deletes a line
func (s *Set) Remove(id string) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	if s.keepOne && len(s.lines) == 1 {
		return domain.ErrLastLine
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return nil
}

// RemoveNew drops every line not yet saved
func (s *Set) RemoveNew() int {
	kept := s.lines[:0]
	removed := 0
	for _, l := range s.lines {
		if l.IsNew {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return removed
}

// SetProduct changes the product and clears zone and expiry.
func (s *Set) SetProduct(id, productID string) (domain.SelectionLine, error) {
	return s.mutate(id, true, func(l *domain.SelectionLine) {
		if l.ProductID == productID {
			return
		}
		l.ProductID = productID
		l.ZoneID = ""
		l.ExpiredAt = ""
	})
}

// SetZone changes the zone and clears the expiry.
func (s *Set) SetZone(id, zoneID string) (domain.SelectionLine, error) {
	return s.mutate(id, true, func(l *domain.SelectionLine) {
		if l.ZoneID == zoneID {
			return
		}
		l.ZoneID = zoneID
		l.ExpiredAt = ""
	})
}

// SetExpiry picks the lot of the line
func (s *Set) SetExpiry(id string, expiry domain.Date) (domain.SelectionLine, error) {
	return s.mutate(id, true, func(l *domain.SelectionLine) {
		l.ExpiredAt = expiry
	})
}

// SetQuantity changes the requested quantity
func (s *Set) SetQuantity(id string, qty int) (domain.SelectionLine, error) {
	if qty < 0 {
		return domain.SelectionLine{}, fmt.Errorf("%w: quantity must not be negative", domain.ErrIncompleteLine)
	}
	return s.mutate(id, false, func(l *domain.SelectionLine) {
		l.Quantity = qty
	})
}

func (s *Set) mutate(id string, locksSaved bool, fn func(*domain.SelectionLine)) (domain.SelectionLine, error) {
	i, err := s.find(id)
	if err != nil {
		return domain.SelectionLine{}, err
	}
	l := &s.lines[i]
	if locksSaved && !l.IsNew {
		return domain.SelectionLine{}, domain.ErrLineLocked
	}

	fn(l)

	if !l.IsNew {
		l.IsDirty = l.Quantity != s.baseline[l.LocalID]
	}
	return *l, nil
}

func (s *Set) find(id string) (int, error) {
	for i := range s.lines {
		if s.lines[i].LocalID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", domain.ErrLineNotFound, id)
}

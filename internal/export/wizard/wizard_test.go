package wizard_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

type stubGates struct {
	header, lines error
	calls         []string
}

func (g *stubGates) CheckHeader() error {
	g.calls = append(g.calls, "header")
	return g.header
}

func (g *stubGates) CheckLines() error {
	g.calls = append(g.calls, "lines")
	return g.lines
}

func TestNew(t *testing.T) {
	m, err := wizard.New("")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepInfo, m.Step())

	_, err = wizard.New("CHECKOUT")
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)
}

func TestNext_HeaderGate(t *testing.T) {
	m, _ := wizard.New(wizard.StepInfo)
	g := &stubGates{header: domain.ErrHeaderValidation}

	step, err := m.Next(g)
	assert.ErrorIs(t, err, domain.ErrHeaderValidation)
	assert.Equal(t, wizard.StepInfo, step)

	g.header = nil
	step, err = m.Next(g)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepProducts, step)
}

func TestNext_CannotReachReviewWithoutLines(t *testing.T) {
	m, _ := wizard.New(wizard.StepProducts)
	g := &stubGates{lines: domain.ErrEmptySelection}

	step, err := m.Next(g)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.Equal(t, wizard.StepProducts, step)

	_, err = m.GoTo(wizard.StepReview, g)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.Equal(t, wizard.StepProducts, m.Step())
}

func TestNext_FromReview(t *testing.T) {
	m, _ := wizard.New(wizard.StepReview)
	_, err := m.Next(&stubGates{})
	assert.ErrorIs(t, err, wizard.ErrAlreadyLast)
}

func TestBack_AlwaysAllowed(t *testing.T) {
	m, _ := wizard.New(wizard.StepReview)

	step, err := m.Back()
	require.NoError(t, err)
	assert.Equal(t, wizard.StepProducts, step)

	step, _ = m.Back()
	assert.Equal(t, wizard.StepInfo, step)

	step, err = m.Back()
	require.NoError(t, err)
	assert.Equal(t, wizard.StepInfo, step)
}

func TestGoTo_RunsEveryGateOnTheWay(t *testing.T) {
	m, _ := wizard.New(wizard.StepInfo)
	g := &stubGates{}

	step, err := m.GoTo(wizard.StepReview, g)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepReview, step)
	assert.Equal(t, []string{"header", "lines"}, g.calls)

	step, err = m.GoTo(wizard.StepInfo, &stubGates{header: errors.New("not consulted")})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepInfo, step)

	_, err = m.GoTo(wizard.StepSubmitted, g)
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)
}

func TestSubmittable(t *testing.T) {
	m, _ := wizard.New(wizard.StepProducts)
	assert.ErrorIs(t, m.Submittable(&stubGates{}), wizard.ErrNotSubmittable)

	m, _ = wizard.New(wizard.StepReview)
	assert.ErrorIs(t, m.Submittable(&stubGates{lines: domain.ErrQuantityExceedsStock}), domain.ErrQuantityExceedsStock)
	assert.NoError(t, m.Submittable(&stubGates{}))

	m.Complete()
	assert.ErrorIs(t, m.Submittable(&stubGates{}), wizard.ErrSubmitted)
	_, err := m.Back()
	assert.ErrorIs(t, err, wizard.ErrSubmitted)
}

func TestSettle(t *testing.T) {
	m, _ := wizard.New(wizard.StepReview)
	require.NoError(t, m.Settle(&stubGates{}))
	assert.Equal(t, wizard.StepReview, m.Step())

	err := m.Settle(&stubGates{lines: domain.ErrEmptySelection})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.Equal(t, wizard.StepProducts, m.Step())

	m, _ = wizard.New(wizard.StepReview)
	g := &stubGates{header: domain.ErrHeaderValidation, lines: domain.ErrEmptySelection}
	assert.ErrorIs(t, m.Settle(g), domain.ErrHeaderValidation)
	assert.Equal(t, wizard.StepInfo, m.Step())
	assert.Equal(t, []string{"header"}, g.calls, "stops at the first failing gate")

	m, _ = wizard.New(wizard.StepInfo)
	g = &stubGates{header: domain.ErrHeaderValidation}
	require.NoError(t, m.Settle(g))
	assert.Empty(t, g.calls)

	m, _ = wizard.New(wizard.StepSubmitted)
	require.NoError(t, m.Settle(&stubGates{lines: domain.ErrEmptySelection}))
	assert.Equal(t, wizard.StepSubmitted, m.Step())
}

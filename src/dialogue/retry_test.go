package dialogue

import (
	"testing"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_InputInvalidBudget(t *testing.T) {
	p := NewRetryPolicy(catalog.Default())
	require.Equal(t, 2, p.Budget(errs.InputInvalid))

	origin := To(ActionMenu, "s-1")
	d := p.Classify(errs.InputInvalid, origin, true)
	assert.Equal(t, OutcomeRetry, d.Outcome)
	assert.Equal(t, ActionMenu, d.Next.Action)
	assert.Equal(t, 2, d.Next.Params.Attempt)
	assert.Equal(t, "s-1", d.Next.Params.SessionID)

	d = p.Classify(errs.InputInvalid, origin.WithAttempt(2), true)
	assert.Equal(t, OutcomeMenu, d.Outcome)
	assert.Equal(t, 1, d.Next.Params.Attempt)
	assert.Equal(t, 1, d.Next.Params.Restarts)

	d = p.Classify(errs.InputInvalid, origin.WithAttempt(2).WithRestarts(MaxRestarts-1), true)
	assert.Equal(t, OutcomeTerminate, d.Outcome)
	assert.True(t, d.Response.Has(KindHangup))
}

func TestRetryPolicy_TerminalOutcomes(t *testing.T) {
	c := catalog.Default()
	p := NewRetryPolicy(c)

	d := p.Classify(errs.RecordNotFound, To(ActionRecord, "").WithAttempt(3), false)
	assert.Equal(t, OutcomeWelcome, d.Outcome)
	assert.Equal(t, ActionWelcome, d.Next.Action)
	assert.Equal(t, c.Message(errs.RecordNotFound), d.Response.Directives[0].Text)

	d = p.Classify(errs.ServiceUnavailable, To(ActionRecord, "").WithAttempt(2), false)
	assert.Equal(t, OutcomeTerminate, d.Outcome)
	assert.True(t, d.Response.Has(KindHangup))
	_, ok := d.Response.Next()
	assert.False(t, ok)

	d = p.Classify(errs.SessionExpired, To(ActionMenu, "gone"), false)
	assert.Equal(t, OutcomeWelcome, d.Outcome)
}

func TestRetryPolicy_FatalKindsRetryFirst(t *testing.T) {
	p := NewRetryPolicy(nil)
	d := p.Classify(errs.NetworkError, To(ActionRecord, ""), false)
	assert.Equal(t, OutcomeRetry, d.Outcome)
	assert.Equal(t, ActionRecord, d.Next.Action)
	assert.Equal(t, 2, d.Next.Params.Attempt)
}

func TestRetryPolicy_UnknownKindGetsOneAttempt(t *testing.T) {
	p := NewRetryPolicy(nil)
	d := p.Classify(errs.Kind("SOMETHING_ELSE"), To(ActionMenu, "s"), true)
	assert.Equal(t, OutcomeMenu, d.Outcome)
}

func TestRetryPolicy_WelcomeRestartsAreBounded(t *testing.T) {
	c := catalog.Default()
	p := NewRetryPolicy(c)
	origin := To(ActionWelcome, "").WithAttempt(c.Budget(errs.InputTimeout))

	d := p.Classify(errs.InputTimeout, origin, false)
	require.Equal(t, OutcomeWelcome, d.Outcome)
	assert.Equal(t, 1, d.Next.Params.Restarts)
	assert.Equal(t, 1, d.Next.Params.Attempt)

	d = p.Classify(errs.InputTimeout, origin.WithRestarts(MaxRestarts-1), false)
	assert.Equal(t, OutcomeTerminate, d.Outcome)
	assert.True(t, d.Response.Has(KindHangup))
	assert.Equal(t, c.Prompt(catalog.PromptGoodbye), d.Response.Directives[1].Text)
}

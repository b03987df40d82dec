package dialogue

import (
	"tracking_ivr/src/catalog"
	"tracking_ivr/src/errs"
)

// Outcome is the shape of the continuation chosen for a failure
type Outcome string

const (
	OutcomeRetry     Outcome = "retry"
	OutcomeTerminate Outcome = "terminate"
	OutcomeMenu      Outcome = "menu"
	OutcomeWelcome   Outcome = "welcome"
)

// MaxRestarts bounds how often spent budgets send a call back to the menu or
// the welcome before it is ended, so a silent line does not hold forever.
const MaxRestarts = 3

// Decision is what the retry policy chose for one failure
type Decision struct {
	Kind     errs.Kind
	Outcome  Outcome
	Message  string
	Next     Continuation
	Response Response
}

// RetryPolicy maps (error kind, attempt) to the next continuation. The attempt
// counter travels in the continuation itself, never in server state.
type RetryPolicy struct {
	catalog *catalog.Catalog
}

func NewRetryPolicy(c *catalog.Catalog) *RetryPolicy {
	if c == nil {
		c = catalog.Default()
	}
	return &RetryPolicy{catalog: c}
}

// Budget is the maximum number of attempts for kind
func (p *RetryPolicy) Budget(kind errs.Kind) int {
	return p.catalog.Budget(kind)
}

// Classify decides how to continue after kind happened while handling origin.
// Below the budget the caller is sent back to origin with attempt+1. Once the
// budget is spent fatal kinds hang up, otherwise the caller returns to the
// session's menu, or to the welcome when there is no session. The restart
// counter rides along; once it reaches MaxRestarts the call is ended instead.
func (p *RetryPolicy) Classify(kind errs.Kind, origin Continuation, hasSession bool) Decision {
	msg := p.catalog.Message(kind)
	d := Decision{Kind: kind, Message: msg}

	attempt := origin.Params.Attempt
	if attempt < 1 {
		attempt = 1
	}

	switch {
	case attempt < p.Budget(kind):
		d.Outcome = OutcomeRetry
		d.Next = origin.WithAttempt(attempt + 1).WithPolls(0)
		d.Response = Respond(Speak(msg), Redirect(d.Next))
	case kind.IsFatal(), origin.Params.Restarts+1 >= MaxRestarts:
		d.Outcome = OutcomeTerminate
		d.Response = Respond(Speak(msg), Speak(p.catalog.Prompt(catalog.PromptGoodbye)), Hangup())
	case hasSession && origin.Params.SessionID != "":
		d.Outcome = OutcomeMenu
		d.Next = To(ActionMenu, origin.Params.SessionID).WithRestarts(origin.Params.Restarts + 1)
		d.Response = Respond(Speak(msg), Redirect(d.Next))
	default:
		d.Outcome = OutcomeWelcome
		d.Next = To(ActionWelcome, "").WithRestarts(origin.Params.Restarts + 1)
		d.Response = Respond(Speak(msg), Redirect(d.Next))
	}
	return d
}

package dialogue

import (
	"net/url"
	"strconv"
	"strings"

	"tracking_ivr/src/model"
)

// Action is the address an inbound event is delivered to. Together with the
// presence of a session it determines where the caller is in the dialogue.
type Action string

const (
	ActionWelcome        Action = "welcome"
	ActionWelcomeChoice  Action = "welcome/choice"
	ActionRecord         Action = "record"
	ActionRecordLookup   Action = "record/lookup"
	ActionMenu           Action = "menu"
	ActionMenuSelect     Action = "menu/select"
	ActionTopic          Action = "topic"
	ActionQuote          Action = "quote"
	ActionQuoteRecording Action = "quote/recording"
	ActionQuotePoll      Action = "quote/poll"
	ActionQuoteDone      Action = "quote/done"
)

// Actions lists every address the machine answers
var Actions = []Action{
	ActionWelcome, ActionWelcomeChoice,
	ActionRecord, ActionRecordLookup,
	ActionMenu, ActionMenuSelect, ActionTopic,
	ActionQuote, ActionQuoteRecording, ActionQuotePoll, ActionQuoteDone,
}

// Query parameter names of the continuation
const (
	ParamSession = "sid"
	ParamAttempt = "attempt"
	ParamStage   = "stage"
	ParamPolls   = "poll"
	ParamRestart = "restart"
)

// Params is the state echoed back by the caller's network on the next
// request. Nothing in it is kept server side.
type Params struct {
	SessionID string
	Attempt   int
	Stage     model.Stage
	Polls     int
	// Restarts counts how often the call was sent back to the welcome after
	// spending a retry budget.
	Restarts int
}

// Continuation is "what happens next": the action the next request targets
// and the parameters it needs to resume.
type Continuation struct {
	Action Action
	Params Params
}

// To starts a fresh attempt sequence at action for session sid
func To(action Action, sid string) Continuation {
	return Continuation{Action: action, Params: Params{SessionID: sid, Attempt: 1}}
}

// WithStage returns a copy carrying stage
func (c Continuation) WithStage(stage model.Stage) Continuation {
	c.Params.Stage = stage
	return c
}

// WithAttempt returns a copy carrying attempt
func (c Continuation) WithAttempt(attempt int) Continuation {
	if attempt < 1 {
		attempt = 1
	}
	c.Params.Attempt = attempt
	return c
}

// WithPolls returns a copy carrying the poll counter
func (c Continuation) WithPolls(polls int) Continuation {
	c.Params.Polls = polls
	return c
}

// WithRestarts returns a copy carrying the welcome restart counter
func (c Continuation) WithRestarts(n int) Continuation {
	c.Params.Restarts = n
	return c
}

// Retry points back at the same action with the attempt counter bumped
func (c Continuation) Retry() Continuation {
	return c.WithAttempt(c.Params.Attempt + 1)
}

// Query encodes the parameters. Zero values are left out.
func (c Continuation) Query() url.Values {
	q := url.Values{}
	if c.Params.SessionID != "" {
		q.Set(ParamSession, c.Params.SessionID)
	}
	if c.Params.Attempt > 1 {
		q.Set(ParamAttempt, strconv.Itoa(c.Params.Attempt))
	}
	if c.Params.Stage != "" {
		q.Set(ParamStage, string(c.Params.Stage))
	}
	if c.Params.Polls > 0 {
		q.Set(ParamPolls, strconv.Itoa(c.Params.Polls))
	}
	if c.Params.Restarts > 0 {
		q.Set(ParamRestart, strconv.Itoa(c.Params.Restarts))
	}
	return q
}

// URL renders the continuation under base, e.g. "/ivr/menu?sid=abc&attempt=2"
func (c Continuation) URL(base string) string {
	u := strings.TrimRight(base, "/") + "/" + string(c.Action)
	if q := c.Query().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (c Continuation) String() string {
	return c.URL("")
}

// ParseContinuation rebuilds a continuation from the action path and query.
// Missing or malformed counters fall back to their defaults.
func ParseContinuation(action string, q url.Values) Continuation {
	c := Continuation{
		Action: Action(strings.Trim(action, "/")),
		Params: Params{
			SessionID: q.Get(ParamSession),
			Attempt:   1,
		},
	}
	if n, err := strconv.Atoi(q.Get(ParamAttempt)); err == nil && n > 1 {
		c.Params.Attempt = n
	}
	if s, ok := model.ParseStage(q.Get(ParamStage)); ok {
		c.Params.Stage = s
	}
	if n, err := strconv.Atoi(q.Get(ParamPolls)); err == nil && n > 0 {
		c.Params.Polls = n
	}
	if n, err := strconv.Atoi(q.Get(ParamRestart)); err == nil && n > 0 {
		c.Params.Restarts = n
	}
	return c
}

// Known reports whether the action is one the machine answers
func (a Action) Known() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

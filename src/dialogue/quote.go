package dialogue

import (
	"context"
	"strconv"
	"strings"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/errs"
	"tracking_ivr/src/menu"
	"tracking_ivr/src/model"
	"tracking_ivr/src/nlu"
	"tracking_ivr/src/quotation"
)

// quote starts the quotation track, or re-asks the current stage when the
// continuation already names a quotation session.
func (m *Machine) quote(ctx context.Context, c *call) Response {
	if m.bridge == nil {
		return m.fail(c, errs.New(errs.ServiceUnavailable, "quotation disabled"), To(ActionWelcome, ""), false).Response
	}

	sid := c.cont.Params.SessionID
	if sid == "" {
		sid, draft := m.bridge.Begin(ctx, c.in.CallID, c.in.From)
		return m.recordStage(sid, draft.Stage, draft.Prompt, 1)
	}

	draft, err := m.bridge.Load(ctx, sid)
	if err != nil {
		return m.fail(c, err, To(ActionWelcome, ""), false).Response
	}
	if draft.Stage == model.StageCompleted {
		return m.quoteResult(sid, draft)
	}
	return m.recordStage(sid, draft.Stage, m.bridge.StagePrompt(draft.Stage), c.cont.Params.Attempt)
}

func (m *Machine) recordStage(sid string, stage model.Stage, prompt string, attempt int) Response {
	next := To(ActionQuoteRecording, sid).WithStage(stage).WithAttempt(attempt)
	return Respond(Speak(prompt), Record(next, m.tel.RecordMaxLength, m.tel.RecordSilenceTimeout))
}

// quoteRecording hands the recording to the bridge and answers at once with
// the hold continuation. A repeated callback gets the same answer without
// starting new work.
func (m *Machine) quoteRecording(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID
	origin := To(ActionQuote, sid).WithAttempt(c.cont.Params.Attempt)
	if m.bridge == nil {
		return m.fail(c, errs.New(errs.ServiceUnavailable, "quotation disabled"), To(ActionWelcome, ""), false).Response
	}
	if strings.TrimSpace(c.in.RecordingURL) == "" {
		return m.quoteFail(ctx, c, errs.New(errs.InputTimeout, "no recording"), origin)
	}

	started, err := m.bridge.Start(ctx, sid, c.cont.Params.Stage, c.in.RecordingURL)
	if err != nil {
		return m.quoteFail(ctx, c, err, origin)
	}
	c.log.Info().Bool("started", started).Msg("recording received")

	poll := To(ActionQuotePoll, sid).WithStage(c.cont.Params.Stage).WithAttempt(c.cont.Params.Attempt)
	return m.hold(poll, 0)
}

func (m *Machine) hold(poll Continuation, polls int) Response {
	return Respond(
		Speak(m.catalog.Prompt(catalog.PromptQuoteHold)),
		Pause(quotation.Backoff(polls)),
		Redirect(poll.WithPolls(polls+1)),
	)
}

func (m *Machine) quotePoll(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID
	origin := To(ActionQuote, sid).WithAttempt(c.cont.Params.Attempt)
	if m.bridge == nil {
		return m.fail(c, errs.New(errs.ServiceUnavailable, "quotation disabled"), To(ActionWelcome, ""), false).Response
	}

	polls := c.cont.Params.Polls
	status, draft := m.bridge.Poll(ctx, sid, polls)
	c.log.Debug().Str("status", string(status)).Int("polls", polls).Msg("quotation poll")

	switch status {
	case quotation.StatusPending:
		return m.hold(c.cont, polls)
	case quotation.StatusExpired:
		return m.fail(c, errs.New(errs.SessionExpired, "quotation session "+sid), To(ActionWelcome, ""), false).Response
	case quotation.StatusTimedOut:
		return m.quoteFail(ctx, c, errs.New(errs.ServiceUnavailable, "quotation step timed out"), origin)
	case quotation.StatusFailed:
		return m.quoteFail(ctx, c, errs.New(errs.InputUnrecognized, "nothing usable for "+string(draft.Stage)), origin)
	}

	if draft.Stage == model.StageCompleted {
		return m.quoteResult(sid, draft)
	}
	return m.recordStage(sid, draft.Stage, draft.Prompt, 1)
}

// quoteFail classifies a quotation failure. Quotation sessions have no menu,
// so once the budget is spent the session is abandoned.
func (m *Machine) quoteFail(ctx context.Context, c *call, err error, origin Continuation) Response {
	d := m.fail(c, err, origin, false)
	if d.Outcome != OutcomeRetry && origin.Params.SessionID != "" {
		m.bridge.Abandon(ctx, origin.Params.SessionID)
	}
	return d.Response
}

func (m *Machine) quoteResult(sid string, draft *model.QuotationDraft) Response {
	q := draft.Quote
	var text string
	if q == nil || q.Default {
		amount, currency := 0.0, ""
		if q != nil {
			amount, currency = q.Amount, q.Currency
		}
		text = m.catalog.Render(catalog.PromptQuoteDefault, map[string]string{
			"amount":   money(amount),
			"currency": currency,
		})
	} else {
		text = m.catalog.Render(catalog.PromptQuoteResult, map[string]string{
			"amount":   money(q.Amount),
			"currency": q.Currency,
			"distance": strconv.FormatFloat(q.DistanceKm, 'f', 1, 64),
		})
	}
	return Respond(
		Speak(text),
		Collect(To(ActionQuoteDone, sid), m.catalog.Prompt(catalog.PromptQuoteFollowUp), anyKey, m.tel.GatherTimeout, ModeBoth),
	)
}

// quoteDone ends the quotation session and routes the caller onwards
func (m *Machine) quoteDone(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID

	category := nlu.CategoryContinueQuery
	digits := nlu.NormalizeDigits(c.in.Digits, m.tel.DigitTerminator)
	switch {
	case digits == menu.KeyAgent:
		category = nlu.CategoryAgent
	case digits == "":
		category = m.conversation.Classify(c.in.Speech)
	}

	if sid != "" {
		m.store.Remove(ctx, sid)
	}
	switch category {
	case nlu.CategoryHangup:
		return m.goodbye(ctx, "")
	case nlu.CategoryAgent:
		return m.agent(c, nil)
	}
	return Respond(Redirect(To(ActionWelcome, "")))
}

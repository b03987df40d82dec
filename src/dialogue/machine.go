package dialogue

import (
	"context"
	"strconv"
	"strings"
	"time"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/errs"
	"tracking_ivr/src/menu"
	"tracking_ivr/src/model"
	"tracking_ivr/src/nlu"
	"tracking_ivr/src/quotation"
	"tracking_ivr/src/record"
	"tracking_ivr/src/storage"

	"github.com/rs/zerolog"
)

const (
	DefaultLookupTimeout = 5 * time.Second

	minRecordIDLength = 3
	maxRecordIDLength = 12

	// a single key press is enough to leave a topic answer or a quote
	anyKey = "0123456789"
)

// Input is the caller-supplied part of one inbound event
type Input struct {
	CallID       string
	From         string
	Digits       string
	Speech       string
	RecordingURL string
}

// Empty reports whether the caller neither pressed keys nor spoke
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Digits) == "" && strings.TrimSpace(in.Speech) == ""
}

// Options wires the collaborators of a Machine. Bridge may be nil, which
// disables the quotation track.
type Options struct {
	Store         storage.Store
	Records       record.Service
	Catalog       *catalog.Catalog
	Composer      *menu.Composer
	Classifier    *nlu.Classifier
	Conversation  *nlu.ConversationClassifier
	Bridge        *quotation.Bridge
	Telephony     model.TelephonyConfig
	LookupTimeout time.Duration
	Logger        zerolog.Logger
}

// call is the per-event context handed to an action handler
type call struct {
	cont Continuation
	in   Input
	log  zerolog.Logger
}

type handlerFunc func(ctx context.Context, c *call) Response

// Machine turns one inbound event at an action address into one response.
// It keeps no per-call state: the address, its parameters and the session
// store are the whole state of the dialogue.
type Machine struct {
	store         storage.Store
	records       record.Service
	catalog       *catalog.Catalog
	composer      *menu.Composer
	classifier    *nlu.Classifier
	conversation  *nlu.ConversationClassifier
	bridge        *quotation.Bridge
	retry         *RetryPolicy
	tel           model.TelephonyConfig
	lookupTimeout time.Duration
	log           zerolog.Logger
	handlers      map[Action]handlerFunc
}

func NewMachine(opts Options) *Machine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Composer == nil {
		opts.Composer = menu.NewComposer(opts.Catalog.MenuLabels, opts.Logger)
	}
	if opts.Classifier == nil {
		opts.Classifier = nlu.NewClassifier(opts.Catalog.Commands, opts.Catalog.DenyList)
	}
	if opts.Conversation == nil {
		opts.Conversation = nlu.NewConversationClassifier(opts.Catalog.Conversation)
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}

	m := &Machine{
		store:         opts.Store,
		records:       opts.Records,
		catalog:       opts.Catalog,
		composer:      opts.Composer,
		classifier:    opts.Classifier,
		conversation:  opts.Conversation,
		bridge:        opts.Bridge,
		retry:         NewRetryPolicy(opts.Catalog),
		tel:           opts.Telephony,
		lookupTimeout: opts.LookupTimeout,
		log:           opts.Logger,
	}
	m.handlers = map[Action]handlerFunc{
		ActionWelcome:        m.welcome,
		ActionWelcomeChoice:  m.welcomeChoice,
		ActionRecord:         m.askRecord,
		ActionRecordLookup:   m.lookupRecord,
		ActionMenu:           m.showMenu,
		ActionMenuSelect:     m.selectOption,
		ActionTopic:          m.afterTopic,
		ActionQuote:          m.quote,
		ActionQuoteRecording: m.quoteRecording,
		ActionQuotePoll:      m.quotePoll,
		ActionQuoteDone:      m.quoteDone,
	}
	for _, a := range Actions {
		if _, ok := m.handlers[a]; !ok {
			panic("dialogue: no handler for action " + string(a))
		}
	}
	return m
}

// Handle answers one event. A panic in any handler is turned into the system
// error apology followed by a redirect to the welcome.
func (m *Machine) Handle(ctx context.Context, cont Continuation, in Input) (resp Response) {
	if cont.Params.Attempt < 1 {
		cont.Params.Attempt = 1
	}
	lc := m.log.With().
		Str("call_id", in.CallID).
		Str("action", string(cont.Action)).
		Int("attempt", cont.Params.Attempt)
	if cont.Params.SessionID != "" {
		lc = lc.Str("session_id", cont.Params.SessionID)
	}
	if cont.Params.Stage != "" {
		lc = lc.Str("stage", string(cont.Params.Stage))
	}
	log := lc.Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("kind", string(errs.SystemError)).Msg("dialogue handler panicked")
			resp = m.apology()
		}
	}()

	if !cont.Action.Known() {
		log.Warn().Msg("unknown action, restarting dialogue")
		return Respond(Redirect(To(ActionWelcome, "")))
	}
	return m.handlers[cont.Action](ctx, &call{cont: cont, in: in, log: log})
}

func (m *Machine) apology() Response {
	return Respond(Speak(m.catalog.Message(errs.SystemError)), Redirect(To(ActionWelcome, "")))
}

// fail classifies err against origin and logs the decision
func (m *Machine) fail(c *call, err error, origin Continuation, hasSession bool) Decision {
	kind := errs.KindOf(err)
	d := m.retry.Classify(kind, origin, hasSession)

	ev := c.log.Info()
	if kind.IsFatal() {
		ev = c.log.Warn()
	}
	ev.Err(err).
		Str("kind", string(kind)).
		Str("outcome", string(d.Outcome)).
		Str("origin", string(origin.Action)).
		Msg("dialogue error")
	return d
}

// ----------------------------------------------------
// ================ Welcome ================

func (m *Machine) welcome(ctx context.Context, c *call) Response {
	next := To(ActionWelcomeChoice, "").WithAttempt(c.cont.Params.Attempt).WithRestarts(c.cont.Params.Restarts)
	return Respond(Collect(next, m.catalog.Prompt(catalog.PromptWelcome), "12", m.tel.GatherTimeout, ModeBoth))
}

func (m *Machine) welcomeChoice(ctx context.Context, c *call) Response {
	restarts := c.cont.Params.Restarts
	origin := To(ActionWelcome, "").WithAttempt(c.cont.Params.Attempt).WithRestarts(restarts)

	var intent nlu.Intent
	digits := nlu.NormalizeDigits(c.in.Digits, m.tel.DigitTerminator)
	switch {
	case digits == "1":
		intent = nlu.IntentTracking
	case digits == "2":
		intent = nlu.IntentQuotation
	case digits != "":
		return m.fail(c, errs.New(errs.InputInvalid, "welcome key "+digits), origin, false).Response
	case strings.TrimSpace(c.in.Speech) != "":
		intent = m.classifier.Classify(c.in.Speech)
	default:
		return m.fail(c, errs.New(errs.InputTimeout, "no track chosen"), origin, false).Response
	}

	switch intent {
	case nlu.IntentTracking:
		return Respond(Redirect(To(ActionRecord, "").WithRestarts(restarts)))
	case nlu.IntentQuotation:
		return Respond(Redirect(To(ActionQuote, "")))
	case nlu.IntentAgent:
		return m.agent(c, nil)
	case nlu.IntentHangup:
		return m.goodbye(ctx, "")
	}
	return m.fail(c, errs.New(errs.InputUnrecognized, "welcome speech"), origin, false).Response
}

// ----------------------------------------------------
// ================ Record lookup ================

func (m *Machine) askRecord(ctx context.Context, c *call) Response {
	next := To(ActionRecordLookup, "").WithAttempt(c.cont.Params.Attempt).WithRestarts(c.cont.Params.Restarts)
	return Respond(Collect(next, m.catalog.Prompt(catalog.PromptRecordRequest), "", m.tel.GatherTimeout, ModeBoth))
}

func (m *Machine) lookupRecord(ctx context.Context, c *call) Response {
	origin := To(ActionRecord, "").WithAttempt(c.cont.Params.Attempt).WithRestarts(c.cont.Params.Restarts)

	id := nlu.NormalizeDigits(c.in.Digits, m.tel.DigitTerminator)
	if id == "" && strings.TrimSpace(c.in.Speech) != "" {
		id = nlu.SpokenDigits(c.in.Speech)
	}
	switch {
	case id == "" && c.in.Empty():
		return m.fail(c, errs.New(errs.InputTimeout, "no record id"), origin, false).Response
	case len(id) < minRecordIDLength || len(id) > maxRecordIDLength:
		return m.fail(c, errs.New(errs.RecordIDInvalid, "record id "+strconv.Quote(id)), origin, false).Response
	}

	lookupCtx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	rec, err := m.records.Lookup(lookupCtx, id)
	cancel()
	if err != nil {
		return m.fail(c, err, origin, false).Response
	}
	if rec == nil {
		return m.fail(c, errs.New(errs.RecordNotFound, "record "+id), origin, false).Response
	}

	sid := m.store.Create(ctx, storage.Payload{
		storage.KeyCallID: c.in.CallID,
		storage.KeyCaller: c.in.From,
		storage.KeyRecord: rec,
	})
	c.log.Info().Str("record_id", rec.ID).Str("status", string(rec.Status)).Str("session_id", sid).Msg("record session created")
	return Respond(Redirect(To(ActionMenu, sid)))
}

// loadRecord returns the record of session sid
func (m *Machine) loadRecord(ctx context.Context, sid string) (*model.Record, error) {
	if sid == "" {
		return nil, errs.New(errs.SessionExpired, "no session id")
	}
	payload, ok := m.store.Get(ctx, sid)
	if !ok {
		return nil, errs.New(errs.SessionExpired, "session "+sid)
	}
	var rec model.Record
	if err := storage.Decode(payload, storage.KeyRecord, &rec); err != nil {
		return nil, errs.Wrap(errs.SessionInvalid, "session "+sid+" has no record", err)
	}
	return &rec, nil
}

// ----------------------------------------------------
// ================ Record menu ================

func (m *Machine) showMenu(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID
	rec, err := m.loadRecord(ctx, sid)
	if err != nil {
		return m.fail(c, err, c.cont, false).Response
	}
	// touching the session slides its expiry
	m.store.Update(ctx, sid, nil)

	mn := m.composer.Compose(rec)
	next := To(ActionMenuSelect, sid).WithAttempt(c.cont.Params.Attempt).WithRestarts(c.cont.Params.Restarts)
	return Respond(Collect(next, m.menuText(rec, mn), mn.ValidKeys, m.tel.GatherTimeout, ModeBoth))
}

func (m *Machine) menuText(rec *model.Record, mn menu.Menu) string {
	parts := []string{m.catalog.Render(catalog.PromptMenuIntro, map[string]string{
		"record": rec.ID,
		"status": m.catalog.StatusLabel(string(rec.Status)),
	})}
	for _, o := range mn.Options {
		parts = append(parts, m.catalog.Render(catalog.PromptMenuOption, map[string]string{
			"label": o.Label,
			"key":   o.Key,
		}))
	}
	return strings.Join(parts, " ")
}

func (m *Machine) selectOption(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID
	origin := To(ActionMenu, sid).WithAttempt(c.cont.Params.Attempt).WithRestarts(c.cont.Params.Restarts)

	rec, err := m.loadRecord(ctx, sid)
	if err != nil {
		return m.fail(c, err, origin, false).Response
	}
	mn := m.composer.Compose(rec)

	var section menu.Section
	digits := nlu.NormalizeDigits(c.in.Digits, m.tel.DigitTerminator)
	switch {
	case digits != "":
		s, ok := mn.Lookup(digits)
		if !ok {
			return m.fail(c, errs.New(errs.InputInvalid, "menu key "+digits), origin, true).Response
		}
		section = s
	case strings.TrimSpace(c.in.Speech) != "":
		intent := m.classifier.Classify(c.in.Speech)
		switch intent {
		case nlu.IntentHangup:
			return m.goodbye(ctx, sid)
		case nlu.IntentMenu:
			return Respond(Redirect(To(ActionMenu, sid)))
		}
		s, ok := intentSections[intent]
		if !ok {
			return m.fail(c, errs.New(errs.InputUnrecognized, "menu speech"), origin, true).Response
		}
		if !mn.Offers(s) {
			return m.fail(c, errs.New(errs.InputInvalid, "section "+string(s)+" not offered"), origin, true).Response
		}
		section = s
	default:
		return m.fail(c, errs.New(errs.InputTimeout, "no menu selection"), origin, true).Response
	}

	c.log.Debug().Str("section", string(section)).Msg("menu option selected")
	switch {
	case section == menu.SectionNewRecord:
		m.store.Remove(ctx, sid)
		return Respond(Redirect(To(ActionRecord, "")))
	case section == menu.SectionAgent:
		return m.agent(c, rec)
	case !section.IsTopic():
		return m.fail(c, errs.New(errs.SystemError, "section "+string(section)+" has no answer"), origin, true).Response
	}

	return Respond(
		Speak(topicText(m.catalog, rec, section)),
		Collect(To(ActionTopic, sid), m.catalog.Prompt(catalog.PromptTopicFollowUp), anyKey, m.tel.GatherTimeout, ModeBoth),
	)
}

// afterTopic always leads somewhere: keys, silence and anything the
// conversational classifier does not place return to the menu.
func (m *Machine) afterTopic(ctx context.Context, c *call) Response {
	sid := c.cont.Params.SessionID
	rec, err := m.loadRecord(ctx, sid)
	if err != nil {
		return m.fail(c, err, c.cont, false).Response
	}

	category := nlu.CategoryContinueQuery
	if strings.TrimSpace(c.in.Digits) == "" {
		category = m.conversation.Classify(c.in.Speech)
	}

	switch category {
	case nlu.CategoryNewRecord:
		m.store.Remove(ctx, sid)
		return Respond(Redirect(To(ActionRecord, "")))
	case nlu.CategoryAgent:
		return m.agent(c, rec)
	case nlu.CategoryHangup:
		return m.goodbye(ctx, sid)
	}
	return Respond(Redirect(To(ActionMenu, sid)))
}

// ----------------------------------------------------
// ================ Agent / hangup ================

// agent transfers the call when transfer is enabled, otherwise registers a
// callback and ends the call.
func (m *Machine) agent(c *call, rec *model.Record) Response {
	var recordID string
	if rec != nil {
		recordID = rec.ID
	}
	if m.tel.TransferEnabled && m.tel.AgentNumber != "" {
		c.log.Info().Str("record_id", recordID).Msg("transferring to agent")
		return Respond(Speak(m.catalog.Prompt(catalog.PromptAgentTransfer)), Transfer(m.tel.AgentNumber))
	}
	c.log.Info().Str("record_id", recordID).Str("caller", c.in.From).Msg("callback requested")
	return Respond(Speak(m.catalog.Prompt(catalog.PromptCallback)), Hangup())
}

func (m *Machine) goodbye(ctx context.Context, sid string) Response {
	if sid != "" {
		m.store.Remove(ctx, sid)
	}
	return Respond(Speak(m.catalog.Prompt(catalog.PromptGoodbye)), Hangup())
}

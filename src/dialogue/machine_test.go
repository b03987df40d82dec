package dialogue

import (
	"context"
	"testing"
	"time"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/conversation"
	"tracking_ivr/src/errs"
	"tracking_ivr/src/model"
	"tracking_ivr/src/quotation"
	"tracking_ivr/src/record"
	"tracking_ivr/src/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inProgressRecord = model.Record{
	ID:       "54321",
	Status:   model.StatusInProgress,
	General:  &model.GeneralInfo{ServiceType: "arrastre", Client: "Ana López", Description: "Auto descompuesto."},
	Costs:    &model.Costs{Total: 2500, Paid: 1000, Currency: "pesos"},
	Unit:     &model.Unit{Number: "17", Model: "Grúa plataforma", Plate: "ABC-123", Driver: "Luis"},
	Location: &model.Location{Address: "Av. Reforma 100"},
	Schedule: &model.Schedule{RequestedAt: "9:10", AssignedAt: "9:25", ArrivalAt: "10:45"},
}

type panickingRecords struct{}

func (panickingRecords) Lookup(context.Context, string) (*model.Record, error) {
	panic("backend exploded")
}

type textTranscriber map[string]string

func (t textTranscriber) Transcribe(ctx context.Context, url string) string {
	return t[url]
}

type machineFixture struct {
	m      *Machine
	store  *storage.MemoryStore
	bridge *quotation.Bridge
	cat    *catalog.Catalog
}

func newMachineFixture(t *testing.T, tel model.TelephonyConfig, records record.Service) *machineFixture {
	t.Helper()
	store := storage.NewMemoryStore(storage.MemoryOptions{Logger: zerolog.Nop()})
	t.Cleanup(func() { _ = store.Close() })
	if records == nil {
		records = record.NewStaticService(inProgressRecord)
	}
	if tel.DigitTerminator == "" {
		tel.DigitTerminator = "#"
	}
	cat := catalog.Default()
	bridge := quotation.NewBridge(quotation.BridgeOptions{
		Store: store,
		Threads: conversation.NewService(
			conversation.NewMemoryRepository(time.Minute),
			conversation.NewExtractionContextStrategy(4),
		),
		Transcriber: textTranscriber{
			"o":   "19.4326, -99.1332",
			"d":   "19.0414, -98.2063",
			"v":   "es un nissan tsuru 2012",
			"bad": "no sé",
		},
		Catalog:       cat,
		DefaultAmount: 1500,
		Logger:        zerolog.Nop(),
	})
	m := NewMachine(Options{
		Store:     store,
		Records:   records,
		Catalog:   cat,
		Bridge:    bridge,
		Telephony: tel,
		Logger:    zerolog.Nop(),
	})
	return &machineFixture{m: m, store: store, bridge: bridge, cat: cat}
}

func (f *machineFixture) handle(cont Continuation, in Input) Response {
	in.CallID = "CA-test"
	in.From = "+525500000000"
	return f.m.Handle(context.Background(), cont, in)
}

func find(t *testing.T, r Response, kind DirectiveKind) Directive {
	t.Helper()
	for _, d := range r.Directives {
		if d.Kind == kind {
			return d
		}
	}
	require.Failf(t, "directive missing", "no %s in %+v", kind, r.Directives)
	return Directive{}
}

func next(t *testing.T, r Response) Continuation {
	t.Helper()
	c, ok := r.Next()
	require.True(t, ok, "response ends the call: %+v", r.Directives)
	return c
}

func TestMachine_TrackingEndToEnd(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	resp := f.handle(To(ActionWelcome, ""), Input{})
	choice := next(t, resp)
	require.Equal(t, ActionWelcomeChoice, choice.Action)
	assert.Equal(t, "12", find(t, resp, KindCollect).ValidKeys)

	resp = f.handle(choice, Input{Digits: "1"})
	require.Equal(t, ActionRecord, next(t, resp).Action)

	resp = f.handle(next(t, resp), Input{})
	lookup := next(t, resp)
	require.Equal(t, ActionRecordLookup, lookup.Action)

	resp = f.handle(lookup, Input{Digits: "54321#"})
	menuCont := next(t, resp)
	require.Equal(t, ActionMenu, menuCont.Action)
	sid := menuCont.Params.SessionID
	require.NotEmpty(t, sid)
	assert.Equal(t, 1, f.store.Count(context.Background()))

	resp = f.handle(menuCont, Input{})
	collect := find(t, resp, KindCollect)
	assert.Equal(t, "123590", collect.ValidKeys)
	assert.NotContains(t, collect.ValidKeys, "4")
	assert.Contains(t, collect.Text, "en proceso")
	sel := collect.Next
	require.Equal(t, ActionMenuSelect, sel.Action)

	resp = f.handle(sel, Input{Digits: "3"})
	assert.Contains(t, find(t, resp, KindSpeak).Text, "10:45")
	topic := next(t, resp)
	require.Equal(t, ActionTopic, topic.Action)

	resp = f.handle(topic, Input{Digits: "1"})
	back := next(t, resp)
	assert.Equal(t, To(ActionMenu, sid), back)

	resp = f.handle(sel, Input{Digits: "7"})
	assert.Equal(t, f.cat.Message(errs.InputInvalid), find(t, resp, KindSpeak).Text)
	retry := next(t, resp)
	assert.Equal(t, ActionMenu, retry.Action)
	assert.Equal(t, 2, retry.Params.Attempt)
	assert.Equal(t, sid, retry.Params.SessionID)

	// second invalid key exhausts the budget and re-arms the menu
	resp = f.handle(retry, Input{})
	sel2 := find(t, resp, KindCollect).Next
	assert.Equal(t, 2, sel2.Params.Attempt)
	resp = f.handle(sel2, Input{Digits: "7"})
	assert.Equal(t, To(ActionMenu, sid).WithRestarts(1), next(t, resp))
}

func TestMachine_SpeechSelection(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	sid := f.store.Create(context.Background(), storage.Payload{storage.KeyRecord: &inProgressRecord})

	resp := f.handle(To(ActionMenuSelect, sid), Input{Speech: "¿Cuánto es el costo?"})
	assert.Contains(t, find(t, resp, KindSpeak).Text, "1500.00")

	// location is not offered while in progress
	resp = f.handle(To(ActionMenuSelect, sid), Input{Speech: "dónde está la unidad"})
	assert.Equal(t, f.cat.Message(errs.InputInvalid), find(t, resp, KindSpeak).Text)

	resp = f.handle(To(ActionMenuSelect, sid), Input{Speech: "ninguna de las anteriores"})
	assert.Equal(t, f.cat.Message(errs.InputUnrecognized), find(t, resp, KindSpeak).Text)
}

func TestMachine_RecordLookupFailures(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	resp := f.handle(To(ActionRecordLookup, ""), Input{Digits: "12#"})
	assert.Equal(t, f.cat.Message(errs.RecordIDInvalid), find(t, resp, KindSpeak).Text)
	assert.Equal(t, To(ActionRecord, "").WithAttempt(2), next(t, resp))

	resp = f.handle(To(ActionRecordLookup, "").WithAttempt(2), Input{Digits: "99999"})
	assert.Equal(t, f.cat.Message(errs.RecordNotFound), find(t, resp, KindSpeak).Text)
	assert.Equal(t, 3, next(t, resp).Params.Attempt)

	resp = f.handle(To(ActionRecordLookup, "").WithAttempt(3), Input{Digits: "99999"})
	assert.Equal(t, ActionWelcome, next(t, resp).Action)

	resp = f.handle(To(ActionRecordLookup, ""), Input{})
	assert.Equal(t, f.cat.Message(errs.InputTimeout), find(t, resp, KindSpeak).Text)

	resp = f.handle(To(ActionRecordLookup, ""), Input{Speech: "cinco cuatro tres dos uno"})
	assert.Equal(t, ActionMenu, next(t, resp).Action)
}

func TestMachine_ExpiredSessionReturnsToWelcome(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	resp := f.handle(To(ActionMenu, "missing"), Input{})
	assert.Equal(t, f.cat.Message(errs.SessionExpired), find(t, resp, KindSpeak).Text)
	assert.Equal(t, To(ActionWelcome, "").WithRestarts(1), next(t, resp))
}

func TestMachine_NewRecordTearsDownSession(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	ctx := context.Background()
	sid := f.store.Create(ctx, storage.Payload{storage.KeyRecord: &inProgressRecord})

	resp := f.handle(To(ActionMenuSelect, sid), Input{Digits: "9"})
	assert.Equal(t, To(ActionRecord, ""), next(t, resp))
	_, ok := f.store.Get(ctx, sid)
	assert.False(t, ok)
}

func TestMachine_AgentTransferOrCallback(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	sid := f.store.Create(context.Background(), storage.Payload{storage.KeyRecord: &inProgressRecord})

	resp := f.handle(To(ActionMenuSelect, sid), Input{Digits: "0"})
	assert.Equal(t, f.cat.Prompt(catalog.PromptCallback), find(t, resp, KindSpeak).Text)
	assert.True(t, resp.Has(KindHangup))

	f = newMachineFixture(t, model.TelephonyConfig{TransferEnabled: true, AgentNumber: "+525511112222"}, nil)
	sid = f.store.Create(context.Background(), storage.Payload{storage.KeyRecord: &inProgressRecord})

	resp = f.handle(To(ActionTopic, sid), Input{Speech: "quiero hablar con un asesor"})
	assert.Equal(t, "+525511112222", find(t, resp, KindTransfer).Number)
}

func TestMachine_TopicHangupRemovesSession(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	ctx := context.Background()
	sid := f.store.Create(ctx, storage.Payload{storage.KeyRecord: &inProgressRecord})

	resp := f.handle(To(ActionTopic, sid), Input{Speech: "eso es todo, adiós"})
	assert.True(t, resp.Has(KindHangup))
	assert.Equal(t, 0, f.store.Count(ctx))

	sid = f.store.Create(ctx, storage.Payload{storage.KeyRecord: &inProgressRecord})
	resp = f.handle(To(ActionTopic, sid), Input{})
	assert.Equal(t, To(ActionMenu, sid), next(t, resp))
}

func TestMachine_PanicBecomesSystemError(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, panickingRecords{})

	resp := f.handle(To(ActionRecordLookup, ""), Input{Digits: "54321"})
	assert.Equal(t, f.cat.Message(errs.SystemError), find(t, resp, KindSpeak).Text)
	assert.Equal(t, To(ActionWelcome, ""), next(t, resp))
}

func TestMachine_SilentLineHangsUpAfterWelcomeRestarts(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	cont := To(ActionWelcome, "")
	var resp Response
	for turn := 0; turn < 50; turn++ {
		resp = f.handle(cont, Input{})
		c, ok := resp.Next()
		if !ok {
			break
		}
		cont = c
	}
	require.True(t, resp.Has(KindHangup), "silent caller still looping at %+v", cont)
	assert.Equal(t, MaxRestarts-1, cont.Params.Restarts)
	assert.Equal(t, f.cat.Prompt(catalog.PromptGoodbye), resp.Directives[1].Text)
}

func TestMachine_SilentLineOnMenuHangsUp(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	ctx := context.Background()
	sid := f.store.Create(ctx, storage.Payload{storage.KeyRecord: &inProgressRecord})

	cont := To(ActionMenu, sid)
	var resp Response
	for turn := 0; turn < 50; turn++ {
		resp = f.handle(cont, Input{})
		c, ok := resp.Next()
		if !ok {
			break
		}
		cont = c
	}
	require.True(t, resp.Has(KindHangup), "silent caller still looping at %+v", cont)
	assert.Equal(t, ActionMenuSelect, cont.Action)
	assert.Equal(t, MaxRestarts-1, cont.Params.Restarts)
}

func TestMachine_WelcomeRestartsSurviveTracking(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	resp := f.handle(To(ActionWelcomeChoice, "").WithRestarts(1), Input{Digits: "1"})
	rec := next(t, resp)
	require.Equal(t, ActionRecord, rec.Action)
	assert.Equal(t, 1, rec.Params.Restarts)

	resp = f.handle(rec, Input{})
	assert.Equal(t, 1, next(t, resp).Params.Restarts)
}

func TestMachine_UnknownActionRestarts(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	resp := f.handle(Continuation{Action: "nowhere"}, Input{})
	assert.Equal(t, To(ActionWelcome, ""), next(t, resp))
}

// quoteStep delivers a recording and polls until the step settles
func (f *machineFixture) quoteStep(t *testing.T, recording Continuation, url string) Response {
	t.Helper()
	resp := f.handle(recording, Input{RecordingURL: url})
	assert.Equal(t, 1, find(t, resp, KindPause).Seconds)
	poll := next(t, resp)
	require.Equal(t, ActionQuotePoll, poll.Action)
	f.bridge.Wait()
	return f.handle(poll, Input{})
}

func TestMachine_QuotationFlow(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)

	resp := f.handle(To(ActionWelcomeChoice, ""), Input{Speech: "quiero una cotización"})
	resp = f.handle(next(t, resp), Input{})
	assert.Equal(t, f.cat.Prompt(catalog.PromptQuoteOrigin), find(t, resp, KindSpeak).Text)
	rec := next(t, resp)
	require.Equal(t, ActionQuoteRecording, rec.Action)
	require.Equal(t, model.StageOrigin, rec.Params.Stage)

	resp = f.quoteStep(t, rec, "o")
	rec = next(t, resp)
	require.Equal(t, model.StageDestination, rec.Params.Stage)

	resp = f.quoteStep(t, rec, "d")
	rec = next(t, resp)
	require.Equal(t, model.StageVehicle, rec.Params.Stage)

	resp = f.quoteStep(t, rec, "v")
	assert.Contains(t, find(t, resp, KindSpeak).Text, "MXN")
	assert.Contains(t, find(t, resp, KindSpeak).Text, "106.")
	done := next(t, resp)
	require.Equal(t, ActionQuoteDone, done.Action)

	resp = f.handle(done, Input{Speech: "adiós"})
	assert.True(t, resp.Has(KindHangup))
	assert.Equal(t, 0, f.store.Count(context.Background()))
}

func TestMachine_QuotationRetryThenAbandon(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	ctx := context.Background()

	resp := f.handle(To(ActionQuote, ""), Input{})
	rec := next(t, resp)
	sid := rec.Params.SessionID

	for attempt := 1; attempt < 3; attempt++ {
		resp = f.quoteStep(t, rec, "bad")
		assert.Equal(t, f.cat.Message(errs.InputUnrecognized), find(t, resp, KindSpeak).Text)
		retry := next(t, resp)
		require.Equal(t, To(ActionQuote, sid).WithAttempt(attempt+1), retry)

		resp = f.handle(retry, Input{})
		rec = next(t, resp)
		require.Equal(t, attempt+1, rec.Params.Attempt)
		require.Equal(t, model.StageOrigin, rec.Params.Stage)
	}

	resp = f.quoteStep(t, rec, "bad")
	assert.Equal(t, To(ActionWelcome, "").WithRestarts(1), next(t, resp))
	_, ok := f.store.Get(ctx, sid)
	assert.False(t, ok, "session abandoned after the budget")
}

func TestMachine_QuotationMissingRecording(t *testing.T) {
	f := newMachineFixture(t, model.TelephonyConfig{}, nil)
	resp := f.handle(To(ActionQuote, ""), Input{})
	rec := next(t, resp)

	resp = f.handle(rec, Input{})
	assert.Equal(t, f.cat.Message(errs.InputTimeout), find(t, resp, KindSpeak).Text)
	assert.Equal(t, ActionQuote, next(t, resp).Action)
}

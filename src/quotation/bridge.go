package quotation

import (
	"context"
	"sync"
	"time"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/conversation"
	"tracking_ivr/src/errs"
	"tracking_ivr/src/llm/extract"
	"tracking_ivr/src/model"
	"tracking_ivr/src/storage"
	"tracking_ivr/src/transcription"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxPolls    = 20
	DefaultStepTimeout = 20 * time.Second
	completionTimeout  = 5 * time.Second
)

// PollStatus is what a poll request learns about the background step
type PollStatus string

const (
	StatusPending  PollStatus = "pending"
	StatusReady    PollStatus = "ready"
	StatusFailed   PollStatus = "failed"
	StatusTimedOut PollStatus = "timed_out"
	StatusExpired  PollStatus = "expired"
)

// Backoff is the pause before poll number n (0-based): 1, 2, 4, 4... seconds
func Backoff(n int) int {
	if n < 0 {
		n = 0
	}
	if n >= 2 {
		return 4
	}
	return 1 << n
}

// BridgeOptions wires the collaborators of a Bridge. Extractor and Threads
// may be nil; extraction then relies on the pattern fallback only.
type BridgeOptions struct {
	Store         storage.Store
	Threads       *conversation.Service
	Transcriber   transcription.Transcriber
	Extractor     extract.Extractor
	Pricer        Pricer
	Catalog       *catalog.Catalog
	MaxPolls      int
	StepTimeout   time.Duration
	DefaultAmount float64
	Currency      string
	Logger        zerolog.Logger
}

// Bridge runs the slow transcription → extraction step of each quotation
// stage off the request path and lets poll requests observe its outcome
// through the session.
type Bridge struct {
	store         storage.Store
	threads       *conversation.Service
	transcriber   transcription.Transcriber
	extractor     extract.Extractor
	pricer        Pricer
	catalog       *catalog.Catalog
	maxPolls      int
	stepTimeout   time.Duration
	defaultAmount float64
	currency      string
	log           zerolog.Logger
	wg            sync.WaitGroup
}

func NewBridge(opts BridgeOptions) *Bridge {
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.Currency == "" {
		opts.Currency = "MXN"
	}
	if opts.Pricer == nil {
		opts.Pricer = NewTariffPricer(opts.Currency)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	return &Bridge{
		store:         opts.Store,
		threads:       opts.Threads,
		transcriber:   opts.Transcriber,
		extractor:     opts.Extractor,
		pricer:        opts.Pricer,
		catalog:       opts.Catalog,
		maxPolls:      opts.MaxPolls,
		stepTimeout:   opts.StepTimeout,
		defaultAmount: opts.DefaultAmount,
		currency:      opts.Currency,
		log:           opts.Logger,
	}
}

func (b *Bridge) MaxPolls() int { return b.maxPolls }

// StagePrompt is the question asked at stage
func (b *Bridge) StagePrompt(stage model.Stage) string {
	switch stage {
	case model.StageOrigin:
		return b.catalog.Prompt(catalog.PromptQuoteOrigin)
	case model.StageDestination:
		return b.catalog.Prompt(catalog.PromptQuoteDestination)
	case model.StageVehicle:
		return b.catalog.Prompt(catalog.PromptQuoteVehicle)
	}
	return ""
}

func (b *Bridge) retryPrompt(stage model.Stage) string {
	return b.catalog.Prompt(catalog.PromptQuoteRetry) + " " + b.StagePrompt(stage)
}

// Begin creates the quotation session with a draft at Origin and opens its
// AI thread. A thread store failure is logged and the flow continues without
// conversation context.
func (b *Bridge) Begin(ctx context.Context, callID, caller string) (string, model.QuotationDraft) {
	var threadID string
	if b.threads != nil {
		id, err := b.threads.Open(ctx)
		if err != nil {
			b.log.Warn().Err(err).Str("call_id", callID).Msg("failed to open conversation thread")
		} else {
			threadID = id
		}
	}

	draft := model.NewQuotationDraft(threadID)
	draft.Prompt = b.StagePrompt(draft.Stage)
	sid := b.store.Create(ctx, storage.Payload{
		storage.KeyCallID:    callID,
		storage.KeyCaller:    caller,
		storage.KeyQuotation: draft,
	})

	b.log.Info().Str("call_id", callID).Str("session_id", sid).Str("thread_id", threadID).Msg("quotation started")
	return sid, draft
}

// Load returns the draft stored in the session
func (b *Bridge) Load(ctx context.Context, sessionID string) (*model.QuotationDraft, error) {
	payload, ok := b.store.Get(ctx, sessionID)
	if !ok {
		return nil, errs.New(errs.SessionExpired, "quotation: session "+sessionID)
	}
	var draft model.QuotationDraft
	if err := storage.Decode(payload, storage.KeyQuotation, &draft); err != nil {
		return nil, errs.Wrap(errs.SessionInvalid, "quotation: no draft in session", err)
	}
	return &draft, nil
}

// Start hands a recording for stage to background work and returns at once.
// It reports started=false when the callback is a repeat of one already being
// processed or of a stage that has moved on, in which case no new work runs.
func (b *Bridge) Start(ctx context.Context, sessionID string, stage model.Stage, recordingURL string) (bool, error) {
	var started model.QuotationDraft
	var skip string
	var current model.Stage
	found, written := b.mutateDraft(ctx, sessionID, func(d *model.QuotationDraft) bool {
		current = d.Stage
		switch {
		case d.IsProcessing && !d.IsComplete:
			skip = "duplicate recording callback ignored"
			return false
		case stage != "" && stage != d.Stage:
			skip = "stale recording callback ignored"
			return false
		case d.Stage == model.StageCompleted:
			skip = "recording after quotation completed ignored"
			return false
		}
		skip = ""
		d.Step++
		d.IsProcessing = true
		d.IsComplete = false
		d.Succeeded = false
		d.UpdatedAt = time.Now()
		started = *d
		return true
	})
	switch {
	case !found:
		return false, errs.New(errs.SessionExpired, "quotation: session "+sessionID)
	case !written && skip == "":
		return false, errs.New(errs.SessionInvalid, "quotation: no draft in session")
	case !written:
		b.log.Info().
			Str("session_id", sessionID).
			Str("stage", string(stage)).
			Str("current_stage", string(current)).
			Msg(skip)
		return false, nil
	}

	b.wg.Add(1)
	go b.run(sessionID, started, recordingURL)
	return true, nil
}

// Poll reports the state of the current stage's background step. polls is
// the number of polls already made for this step.
func (b *Bridge) Poll(ctx context.Context, sessionID string, polls int) (PollStatus, *model.QuotationDraft) {
	draft, err := b.Load(ctx, sessionID)
	if err != nil {
		return StatusExpired, nil
	}
	if status := stepStatus(draft); status != StatusPending || polls < b.maxPolls {
		return status, draft
	}

	// The step may settle between the read above and this write, so the
	// timeout only lands on the step that was seen running.
	var timedOut model.QuotationDraft
	found, written := b.mutateDraft(ctx, sessionID, func(d *model.QuotationDraft) bool {
		if d.Step != draft.Step || d.IsComplete || !d.IsProcessing {
			return false
		}
		d.IsProcessing = false
		d.Prompt = b.retryPrompt(d.Stage)
		d.UpdatedAt = time.Now()
		timedOut = *d
		return true
	})
	if written {
		b.log.Warn().Str("session_id", sessionID).Str("stage", string(timedOut.Stage)).Int("polls", polls).Msg("quotation step timed out")
		return StatusTimedOut, &timedOut
	}
	if !found {
		return StatusExpired, nil
	}
	draft, err = b.Load(ctx, sessionID)
	if err != nil {
		return StatusExpired, nil
	}
	return stepStatus(draft), draft
}

func stepStatus(d *model.QuotationDraft) PollStatus {
	switch {
	case d.IsComplete && d.Succeeded:
		return StatusReady
	case d.IsComplete, !d.IsProcessing:
		return StatusFailed
	}
	return StatusPending
}

// mutateDraft applies fn to the stored draft inside one conditional update.
// found is false when the session is gone; written is false when fn declined
// or the draft could not be decoded.
func (b *Bridge) mutateDraft(ctx context.Context, sessionID string, fn func(d *model.QuotationDraft) bool) (found, written bool) {
	written = b.store.UpdateIf(ctx, sessionID, func(current storage.Payload) (storage.Payload, bool) {
		found = true
		var draft model.QuotationDraft
		if err := storage.Decode(current, storage.KeyQuotation, &draft); err != nil {
			return nil, false
		}
		if !fn(&draft) {
			return nil, false
		}
		return storage.Payload{storage.KeyQuotation: draft}, true
	})
	return found, written
}

// Abandon closes the AI thread and removes the session
func (b *Bridge) Abandon(ctx context.Context, sessionID string) {
	if draft, err := b.Load(ctx, sessionID); err == nil {
		b.closeThread(ctx, draft.ThreadID)
	}
	b.store.Remove(ctx, sessionID)
}

// Wait blocks until every background step has finished
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) run(sessionID string, draft model.QuotationDraft, recordingURL string) {
	defer b.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), b.stepTimeout)
	defer cancel()

	result := draft
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("session_id", sessionID).Msg("quotation step panicked")
			result = draft
			result.Succeeded = false
			result.Prompt = b.retryPrompt(draft.Stage)
		}
		b.complete(sessionID, result)
	}()

	result = b.process(ctx, draft, recordingURL)
}

// process never returns an error: every failure keeps the stage and sets a
// re-prompt.
func (b *Bridge) process(ctx context.Context, draft model.QuotationDraft, recordingURL string) model.QuotationDraft {
	log := b.log.With().Str("stage", string(draft.Stage)).Str("thread_id", draft.ThreadID).Logger()
	stage := draft.Stage

	transcript := ""
	if b.transcriber != nil {
		transcript = b.transcriber.Transcribe(ctx, recordingURL)
	}
	if transcript == "" {
		log.Info().Msg("empty transcript")
		draft.Succeeded = false
		draft.Prompt = b.retryPrompt(stage)
		return draft
	}

	fields := b.extract(ctx, &draft, transcript, log)
	if fields == nil {
		fields = FallbackExtract(stage, transcript)
		if fields != nil {
			log.Debug().Msg("pattern fallback matched")
		}
	}

	if !draft.Apply(fields) {
		log.Info().Str("transcript", transcript).Msg("no usable data for stage")
		draft.Succeeded = false
		draft.Prompt = b.retryPrompt(stage)
		return draft
	}

	b.saveExtraction(ctx, draft.ThreadID, fields, log)
	draft.Succeeded = true
	draft.Prompt = b.StagePrompt(draft.Stage)

	if draft.Stage == model.StageCompleted {
		quote, err := b.pricer.Quote(&draft)
		if err != nil {
			log.Warn().Err(err).Msg("pricing failed, using default quote")
			quote = DefaultQuote(b.defaultAmount, b.currency)
		}
		draft.Quote = quote
		b.closeThread(ctx, draft.ThreadID)
	}
	return draft
}

func (b *Bridge) extract(ctx context.Context, draft *model.QuotationDraft, transcript string, log zerolog.Logger) *model.QuotationFields {
	var history string
	if b.threads != nil && draft.ThreadID != "" {
		h, err := b.threads.ProcessMessage(ctx, draft.ThreadID, transcript)
		if err != nil {
			log.Warn().Err(err).Msg("conversation thread unavailable")
		}
		history = h
	}
	if b.extractor == nil {
		return nil
	}
	fields, _, err := b.extractor.Extract(ctx, draft.Stage, transcript, history)
	if err != nil {
		log.Warn().Err(err).Msg("AI extraction failed")
		return nil
	}
	return fields
}

func (b *Bridge) saveExtraction(ctx context.Context, threadID string, fields *model.QuotationFields, log zerolog.Logger) {
	if b.threads == nil || threadID == "" {
		return
	}
	data, err := sonic.MarshalString(fields)
	if err != nil {
		return
	}
	if err := b.threads.SaveResponse(ctx, threadID, data); err != nil {
		log.Warn().Err(err).Msg("failed to save extraction to thread")
	}
}

func (b *Bridge) closeThread(ctx context.Context, threadID string) {
	if b.threads == nil || threadID == "" {
		return
	}
	if err := b.threads.Close(ctx, threadID); err != nil {
		b.log.Warn().Err(err).Str("thread_id", threadID).Msg("failed to close conversation thread")
	}
}

// complete publishes the step outcome. It lands only while the stored draft
// is still running the same step: a removed session is never revived, and a
// step that timed out or was superseded is dropped.
func (b *Bridge) complete(sessionID string, draft model.QuotationDraft) {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	draft.IsProcessing = false
	draft.IsComplete = true
	draft.UpdatedAt = time.Now()

	var currentStep int
	found, written := b.mutateDraft(ctx, sessionID, func(d *model.QuotationDraft) bool {
		currentStep = d.Step
		if d.Step != draft.Step || !d.IsProcessing || d.IsComplete {
			return false
		}
		*d = draft
		return true
	})
	switch {
	case !found:
		b.log.Warn().Str("session_id", sessionID).Str("stage", string(draft.Stage)).Msg("session gone before quotation step completed, result dropped")
		b.closeThread(ctx, draft.ThreadID)
	case !written:
		b.log.Warn().Str("session_id", sessionID).Int("step", draft.Step).Int("current_step", currentStep).Msg("stale quotation step, result dropped")
	default:
		b.log.Info().
			Str("session_id", sessionID).
			Str("stage", string(draft.Stage)).
			Bool("succeeded", draft.Succeeded).
			Msg("quotation step completed")
	}
}

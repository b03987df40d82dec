package telephony

import (
	"fmt"
	"net/http"
	"strconv"

	"tracking_ivr/src/dialogue"
	"tracking_ivr/src/model"

	"github.com/twilio/twilio-go/twiml"
)

const ContentType = "application/xml; charset=utf-8"

// Renderer turns directive sequences into TwiML documents. Continuations are
// rendered as absolute URLs under base.
type Renderer struct {
	base       string
	voice      string
	language   string
	terminator string
}

func NewRenderer(base string, cfg model.TelephonyConfig) *Renderer {
	return &Renderer{
		base:       base,
		voice:      cfg.Voice,
		language:   cfg.Language,
		terminator: cfg.DigitTerminator,
	}
}

// Render encodes resp. Every collect and record verb is followed by a
// redirect to its own action, so silence still reaches the handler as an
// empty event.
func (r *Renderer) Render(resp dialogue.Response) ([]byte, error) {
	var verbs []twiml.Element
	for _, d := range resp.Directives {
		switch d.Kind {
		case dialogue.KindSpeak:
			if d.Text != "" {
				verbs = append(verbs, r.say(d.Text))
			}
		case dialogue.KindCollect:
			g := &twiml.VoiceGather{
				Input:       inputMode(d.Mode),
				Action:      d.Next.URL(r.base),
				Method:      http.MethodPost,
				Timeout:     positive(d.Timeout),
				FinishOnKey: r.terminator,
				Language:    r.language,
			}
			if d.ValidKeys != "" {
				g.NumDigits = "1"
			}
			if d.Text != "" {
				g.InnerElements = []twiml.Element{r.say(d.Text)}
			}
			verbs = append(verbs, g, r.redirect(d.Next))
		case dialogue.KindRecord:
			verbs = append(verbs, &twiml.VoiceRecord{
				Action:    d.Next.URL(r.base),
				Method:    http.MethodPost,
				MaxLength: positive(d.MaxLength),
				Timeout:   positive(d.SilenceTimeout),
				PlayBeep:  "true",
				Trim:      "trim-silence",
			}, r.redirect(d.Next))
		case dialogue.KindTransfer:
			verbs = append(verbs, &twiml.VoiceDial{Number: d.Number})
		case dialogue.KindRedirect:
			verbs = append(verbs, r.redirect(d.Next))
		case dialogue.KindHangup:
			verbs = append(verbs, &twiml.VoiceHangup{})
		case dialogue.KindPause:
			if d.Seconds > 0 {
				verbs = append(verbs, &twiml.VoicePause{Length: strconv.Itoa(d.Seconds)})
			}
		default:
			return nil, fmt.Errorf("telephony: unknown directive %q", d.Kind)
		}
	}

	doc, err := twiml.Voice(verbs)
	if err != nil {
		return nil, fmt.Errorf("telephony: encode twiml: %w", err)
	}
	return []byte(doc), nil
}

func (r *Renderer) say(text string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: text, Voice: r.voice, Language: r.language}
}

func (r *Renderer) redirect(c dialogue.Continuation) *twiml.VoiceRedirect {
	return &twiml.VoiceRedirect{Url: c.URL(r.base), Method: http.MethodPost}
}

// positive renders n as an attribute value, empty (omitted) when unset
func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func inputMode(m dialogue.InputMode) string {
	switch m {
	case dialogue.ModeDigits:
		return "dtmf"
	case dialogue.ModeSpeech:
		return "speech"
	}
	return "dtmf speech"
}

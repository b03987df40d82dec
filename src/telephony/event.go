package telephony

import (
	"fmt"
	"net/http"
	"net/url"

	"tracking_ivr/src/dialogue"

	"github.com/twilio/twilio-go/client"
)

// Inbound webhook field names
const (
	FieldCallID       = "CallSid"
	FieldFrom         = "From"
	FieldDigits       = "Digits"
	FieldSpeech       = "SpeechResult"
	FieldRecordingURL = "RecordingUrl"

	SignatureHeader = "X-Twilio-Signature"
)

// ParseEvent reads one webhook request delivered to action. Continuation
// parameters come from the query string, caller input from the form body or
// the query.
func ParseEvent(action string, r *http.Request) (dialogue.Continuation, dialogue.Input, error) {
	if err := r.ParseForm(); err != nil {
		return dialogue.Continuation{}, dialogue.Input{}, fmt.Errorf("telephony: parse form: %w", err)
	}
	cont := dialogue.ParseContinuation(action, r.URL.Query())
	in := dialogue.Input{
		CallID:       r.Form.Get(FieldCallID),
		From:         r.Form.Get(FieldFrom),
		Digits:       r.Form.Get(FieldDigits),
		Speech:       r.Form.Get(FieldSpeech),
		RecordingURL: r.Form.Get(FieldRecordingURL),
	}
	return cont, in, nil
}

// ValidSignature checks the gateway's X-Twilio-Signature header against the
// full request URL and the POST parameters.
func ValidSignature(authToken, fullURL string, params url.Values, signature string) bool {
	if signature == "" {
		return false
	}
	flat := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	validator := client.NewRequestValidator(authToken)
	return validator.Validate(fullURL, flat, signature)
}

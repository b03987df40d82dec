package dialogue

// DirectiveKind names one outbound call-control instruction
type DirectiveKind string

const (
	KindSpeak    DirectiveKind = "speak"
	KindCollect  DirectiveKind = "collect"
	KindRecord   DirectiveKind = "record"
	KindTransfer DirectiveKind = "transfer"
	KindRedirect DirectiveKind = "redirect"
	KindHangup   DirectiveKind = "hangup"
	KindPause    DirectiveKind = "pause"
)

// InputMode is what a collect directive listens for
type InputMode string

const (
	ModeDigits InputMode = "digits"
	ModeSpeech InputMode = "speech"
	ModeBoth   InputMode = "both"
)

// Directive is one instruction of a response. Only the fields of its Kind
// are meaningful.
type Directive struct {
	Kind DirectiveKind

	// speak, and the prompt played while collecting
	Text string

	// collect, record, redirect
	Next Continuation

	// collect
	ValidKeys string
	Timeout   int
	Mode      InputMode

	// record
	MaxLength      int
	SilenceTimeout int

	// transfer
	Number string

	// pause
	Seconds int
}

func Speak(text string) Directive {
	return Directive{Kind: KindSpeak, Text: text}
}

// Collect plays prompt while gathering input for next. An empty validKeys
// accepts any digit string.
func Collect(next Continuation, prompt, validKeys string, timeout int, mode InputMode) Directive {
	return Directive{Kind: KindCollect, Next: next, Text: prompt, ValidKeys: validKeys, Timeout: timeout, Mode: mode}
}

func Record(next Continuation, maxLength, silenceTimeout int) Directive {
	return Directive{Kind: KindRecord, Next: next, MaxLength: maxLength, SilenceTimeout: silenceTimeout}
}

func Transfer(number string) Directive {
	return Directive{Kind: KindTransfer, Number: number}
}

func Redirect(next Continuation) Directive {
	return Directive{Kind: KindRedirect, Next: next}
}

func Hangup() Directive {
	return Directive{Kind: KindHangup}
}

func Pause(seconds int) Directive {
	return Directive{Kind: KindPause, Seconds: seconds}
}

// Response is the ordered directive sequence answering one event
type Response struct {
	Directives []Directive
}

func Respond(ds ...Directive) Response {
	return Response{Directives: ds}
}

// Next is the continuation the caller's network will request next: that of
// the last collect, record or redirect directive. ok is false when the
// response ends the call.
func (r Response) Next() (Continuation, bool) {
	for i := len(r.Directives) - 1; i >= 0; i-- {
		switch d := r.Directives[i]; d.Kind {
		case KindCollect, KindRecord, KindRedirect:
			return d.Next, true
		case KindHangup, KindTransfer:
			return Continuation{}, false
		}
	}
	return Continuation{}, false
}

// Text joins everything spoken by the response, prompts included
func (r Response) Text() string {
	var out string
	for _, d := range r.Directives {
		if d.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += d.Text
	}
	return out
}

// Has reports whether the response contains a directive of kind
func (r Response) Has(kind DirectiveKind) bool {
	for _, d := range r.Directives {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

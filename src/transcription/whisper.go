package transcription

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"tracking_ivr/src/model"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const maxRecordingBytes = 10 << 20

// Transcriber turns a recording reference into text. It never fails: any
// problem yields "".
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) string
}

type Options struct {
	Config     model.TranscriptionConfig
	AccountSID string
	AuthToken  string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// WhisperTranscriber downloads the call recording and sends it to an
// OpenAI-compatible transcription endpoint.
type WhisperTranscriber struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	language   string
	timeout    time.Duration
	accountSID string
	authToken  string
	log        zerolog.Logger
}

func NewWhisperTranscriber(opts Options) *WhisperTranscriber {
	cfg := openai.DefaultConfig(opts.Config.APIKey)
	if opts.Config.BaseURL != "" {
		cfg.BaseURL = opts.Config.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	modelName := opts.Config.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}
	return &WhisperTranscriber{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		model:      modelName,
		language:   opts.Config.Language,
		timeout:    opts.Config.Timeout,
		accountSID: opts.AccountSID,
		authToken:  opts.AuthToken,
		log:        opts.Logger,
	}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, recordingURL string) string {
	if recordingURL == "" {
		return ""
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	audio, name, err := w.download(ctx, recordingURL)
	if err != nil {
		w.log.Warn().Err(err).Str("recording_url", recordingURL).Msg("recording download failed")
		return ""
	}

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio),
		Language: w.language,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("recording_url", recordingURL).Msg("transcription failed")
		return ""
	}

	text := strings.TrimSpace(resp.Text)
	w.log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("transcription completed")
	return text
}

func (w *WhisperTranscriber) download(ctx context.Context, recordingURL string) ([]byte, string, error) {
	name := path.Base(recordingURL)
	if path.Ext(name) == "" {
		recordingURL += ".wav"
		name += ".wav"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, "", err
	}
	if w.accountSID != "" {
		req.SetBasicAuth(w.accountSID, w.authToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("recording fetch returned %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordingBytes))
	if err != nil {
		return nil, "", err
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("empty recording")
	}
	return audio, name, nil
}
